// Package client talks to the assistant endpoint: /chat, /reset and /upload.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linanwx/policychat/logger"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	defaultTimeout  = 60 * time.Second
	maxResponseBody = 4 << 20
)

// TransportError is a network failure or a non-2xx status without a usable
// error payload.
type TransportError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ApplicationError is a well-formed {"error": "..."} payload from the endpoint.
type ApplicationError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ApplicationError) Error() string { return e.Message }

// Client is an HTTP client for one assistant endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// New creates a client for baseURL, e.g. "http://127.0.0.1:5000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the endpoint root.
func (c *Client) BaseURL() string { return c.baseURL }

// Chat sends one user message and returns the assistant reply.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "message", message)
	if err != nil {
		return "", fmt.Errorf("chat: build request: %w", err)
	}
	start := time.Now()
	data, err := c.do(ctx, "chat", "/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		logger.Warn("chat request failed", "err", err, "latencyMs", time.Since(start).Milliseconds())
		return "", err
	}
	if msg := gjson.GetBytes(data, "error"); msg.Exists() && !gjson.GetBytes(data, "response").Exists() {
		return "", &ApplicationError{Op: "chat", StatusCode: http.StatusOK, Message: msg.String()}
	}
	resp := gjson.GetBytes(data, "response")
	if !resp.Exists() {
		return "", &TransportError{Op: "chat", Err: errors.New("response field missing")}
	}
	logger.Info("chat reply received", "inputChars", len(message), "outputChars", len(resp.String()),
		"latencyMs", time.Since(start).Milliseconds())
	return resp.String(), nil
}

// Reset asks the endpoint to clear its conversation memory.
func (c *Client) Reset(ctx context.Context) error {
	_, err := c.do(ctx, "reset", "/reset", "", nil)
	return err
}

// Upload sends the file at path as the multipart "file" field and returns
// the stored path reported by the endpoint.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("upload: open file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("upload: build form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("upload: read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("upload: build form: %w", err)
	}

	data, err := c.do(ctx, "upload", "/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		logger.Warn("upload failed", "file", filepath.Base(path), "err", err)
		return "", err
	}
	stored := gjson.GetBytes(data, "file_path")
	if !stored.Exists() || strings.TrimSpace(stored.String()) == "" {
		if msg := gjson.GetBytes(data, "error"); msg.Exists() {
			return "", &ApplicationError{Op: "upload", StatusCode: http.StatusOK, Message: msg.String()}
		}
		return "", &TransportError{Op: "upload", Err: errors.New("file_path field missing")}
	}
	logger.Info("upload stored", "file", filepath.Base(path), "path", stored.String())
	return stored.String(), nil
}

// do posts to the endpoint and returns the body of a 2xx response.
// Non-2xx responses carrying {"error": "..."} become ApplicationErrors.
func (c *Client) do(ctx context.Context, op, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if msg := gjson.GetBytes(data, "error"); gjson.ValidBytes(data) && msg.Exists() {
			return nil, &ApplicationError{Op: op, StatusCode: resp.StatusCode, Message: msg.String()}
		}
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}
	return data, nil
}
