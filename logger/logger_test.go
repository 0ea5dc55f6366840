package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileFor(t *testing.T) {
	tests := []struct {
		file, component, want string
	}{
		{"logs/policychat.log", "serve", "logs/policychat-serve.log"},
		{"logs/policychat.log", "", "logs/policychat.log"},
		{"policychat", "chat", "policychat-chat"},
		{"", "serve", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FileFor(tt.file, tt.component), "%s/%s", tt.file, tt.component)
	}
}

func TestInitWritesComponentFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(Config{Enabled: true, Level: "info", File: "logs/policychat.log", Component: "serve"}, dir))
	t.Cleanup(func() { _ = Close() })

	var screen bytes.Buffer
	Intercept(&screen)
	t.Cleanup(Restore)

	Info("policy index built", "chunks", 4)
	Debug("hidden below info")
	require.NoError(t, Close())

	data, err := os.ReadFile(filepath.Join(dir, "logs", "policychat-serve.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `msg="policy index built"`)
	assert.Contains(t, string(data), "component=serve")
	assert.NotContains(t, string(data), "hidden below info")
	assert.Contains(t, screen.String(), "chunks=4")
}

func TestSecretsAreMasked(t *testing.T) {
	require.NoError(t, Init(Config{Enabled: true, Level: "debug"}, ""))
	var out bytes.Buffer
	Intercept(&out)
	t.Cleanup(Restore)

	Debug("provider configured", "apiKey", "sk-live-1234567890abcd", "token", "short", "model", "gpt-4o-mini")

	line := out.String()
	assert.NotContains(t, line, "sk-live-1234567890abcd")
	assert.Contains(t, line, "apiKey=****abcd")
	assert.Contains(t, line, "token=****")
	assert.Contains(t, line, "model=gpt-4o-mini")
}
