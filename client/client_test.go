package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatSendsMessageAndReturnsResponse(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"response":"Please select the date."}`)
	}))
	defer srv.Close()

	reply, err := New(srv.URL+"/").Chat(context.Background(), `say "hi"`)
	require.NoError(t, err)
	assert.Equal(t, "Please select the date.", reply)
	assert.Equal(t, `say "hi"`, got["message"])
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantApp   string
		wantTrans bool
	}{
		{name: "error payload with 200", status: http.StatusOK, body: `{"error":"No message provided"}`, wantApp: "No message provided"},
		{name: "error payload with 500", status: http.StatusInternalServerError, body: `{"error":"model down"}`, wantApp: "model down"},
		{name: "non json 502", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, wantTrans: true},
		{name: "missing response", status: http.StatusOK, body: `{"answer":"x"}`, wantTrans: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := New(srv.URL).Chat(context.Background(), "hi")
			require.Error(t, err)
			if tt.wantTrans {
				var terr *TransportError
				assert.ErrorAs(t, err, &terr)
				return
			}
			var aerr *ApplicationError
			require.ErrorAs(t, err, &aerr)
			assert.Equal(t, tt.wantApp, aerr.Message)
			assert.Equal(t, tt.status, aerr.StatusCode)
		})
	}
}

func TestChatNetworkFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Chat(context.Background(), "hi")
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, 0, terr.StatusCode)
}

func TestUploadSendsMultipartFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload", r.URL.Path)
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "receipt.pdf", hdr.Filename)
		assert.Equal(t, "%PDF-1.4", string(data))
		_, _ = io.WriteString(w, `{"file_path":"uploads/abc_receipt.pdf"}`)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "receipt.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	stored, err := New(srv.URL).Upload(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "uploads/abc_receipt.pdf", stored)
}

func TestUploadErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_, _ = io.WriteString(w, `{"error":"too large"}`)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "big.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o644))

	_, err := New(srv.URL).Upload(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestUploadMissingFile(t *testing.T) {
	_, err := New("http://127.0.0.1:1").Upload(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResetNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reset", r.URL.Path)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := New(srv.URL).Reset(context.Background())
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusServiceUnavailable, terr.StatusCode)
}
