package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linanwx/policychat/logger"
)

var (
	// ErrTooLarge reports an upload over the size limit.
	ErrTooLarge = errors.New("too large")
	// ErrUnsupportedType reports an upload that is neither an image nor a PDF.
	ErrUnsupportedType = errors.New("only images and PDF files are accepted")
)

var allowedExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".pdf": true,
}

// UploadStore keeps uploaded receipts in a directory.
type UploadStore struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

// NewUploadStore creates the store, making dir if needed.
func NewUploadStore(dir string, maxBytes int64) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &UploadStore{dir: dir, maxBytes: maxBytes, now: time.Now}, nil
}

// Dir returns the storage directory.
func (s *UploadStore) Dir() string { return s.dir }

// MaxBytes returns the per-file size limit.
func (s *UploadStore) MaxBytes() int64 { return s.maxBytes }

// Save stores r under a unique name derived from filename and returns the
// stored path.
func (s *UploadStore) Save(filename string, r io.Reader) (string, error) {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(base))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedType
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if !sniffAllowed(head) {
		return "", ErrUnsupportedType
	}

	name := uuid.NewString() + "_" + sanitizeName(base)
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}

	body := io.MultiReader(bytes.NewReader(head), r)
	written, copyErr := io.Copy(f, io.LimitReader(body, s.maxBytes+1))
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		os.Remove(path)
		return "", fmt.Errorf("write upload: %w", copyErr)
	case written > s.maxBytes:
		os.Remove(path)
		return "", ErrTooLarge
	case closeErr != nil:
		os.Remove(path)
		return "", fmt.Errorf("close upload: %w", closeErr)
	}

	logger.Info("upload stored", "file", name, "bytes", written)
	return path, nil
}

// Sweep removes uploads last modified before now minus retention and returns
// how many were removed.
func (s *UploadStore) Sweep(retention time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read upload dir: %w", err)
	}
	cutoff := s.now().Add(-retention)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			logger.Warn("upload not removed", "file", e.Name(), "err", err)
			continue
		}
		removed++
	}
	return removed, nil
}

func sniffAllowed(head []byte) bool {
	ct := http.DetectContentType(head)
	return strings.HasPrefix(ct, "image/") || ct == "application/pdf"
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "upload"
	}
	return b.String()
}
