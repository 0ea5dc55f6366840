package health

import (
	"runtime"
	"time"
)

// Collect returns a health snapshot for the current process.
func Collect(opts Options) Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	s := Snapshot{
		Status:     "healthy",
		Goroutines: runtime.NumGoroutine(),
		Memory: MemoryInfo{
			AllocMB:      float64(mem.Alloc) / 1024 / 1024,
			TotalAllocMB: float64(mem.TotalAlloc) / 1024 / 1024,
			SysMB:        float64(mem.Sys) / 1024 / 1024,
			NumGC:        mem.NumGC,
		},
		Runtime: RuntimeInfo{
			Version: runtime.Version(),
			OS:      runtime.GOOS,
			Arch:    runtime.GOARCH,
			CPUs:    runtime.NumCPU(),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	if !opts.Started.IsZero() {
		s.Uptime = time.Since(opts.Started).Round(time.Second).String()
	}

	s.Policies = opts.Policies

	if opts.UploadDir != "" {
		s.Uploads = inspectUploadDir(opts.UploadDir)
		if !s.Uploads.Exists || s.Uploads.InspectErr != "" {
			s.Status = "degraded"
		}
	}

	return s
}
