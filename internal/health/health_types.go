package health

import "time"

// Options selects what a snapshot inspects.
type Options struct {
	Started   time.Time // process start, for uptime
	UploadDir string
	Policies  *int // indexed policy passages
}

// Snapshot is the health report served by the endpoint.
type Snapshot struct {
	Status     string       `json:"status"`
	Uptime     string       `json:"uptime,omitempty"`
	Goroutines int          `json:"goroutines"`
	Memory     MemoryInfo   `json:"memory"`
	Runtime    RuntimeInfo  `json:"runtime"`
	Uploads    *UploadsInfo `json:"uploads,omitempty"`
	Policies   *int         `json:"policy_passages,omitempty"`
	Timestamp  string       `json:"timestamp"`
}

// MemoryInfo summarises Go heap statistics.
type MemoryInfo struct {
	AllocMB      float64 `json:"alloc_mb"`
	TotalAllocMB float64 `json:"total_alloc_mb"`
	SysMB        float64 `json:"sys_mb"`
	NumGC        uint32  `json:"num_gc"`
}

// RuntimeInfo describes the Go runtime.
type RuntimeInfo struct {
	Version string `json:"version"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
	CPUs    int    `json:"cpus"`
}

// UploadsInfo describes the upload directory.
type UploadsInfo struct {
	Path       string `json:"path"`
	Exists     bool   `json:"exists"`
	Files      int    `json:"files"`
	TotalBytes int64  `json:"total_bytes"`
	OldestAt   string `json:"oldest_at,omitempty"`
	InspectErr string `json:"inspect_error,omitempty"`
}
