package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/linanwx/policychat/client"
	"github.com/linanwx/policychat/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	chats   []string
	resets  int
	replies map[string]string
	chatErr error
	upErr   error
}

func (s *stubBackend) Chat(_ context.Context, message string) (string, error) {
	s.chats = append(s.chats, message)
	if s.chatErr != nil {
		return "", s.chatErr
	}
	if r, ok := s.replies[message]; ok {
		return r, nil
	}
	return "Noted.", nil
}

func (s *stubBackend) Reset(context.Context) error {
	s.resets++
	return errors.New("offline")
}

func (s *stubBackend) Upload(_ context.Context, path string) (string, error) {
	if s.upErr != nil {
		return "", s.upErr
	}
	return "uploads/abc_" + filepath.Base(path), nil
}

func TestPlainChatGuidedFlow(t *testing.T) {
	b := &stubBackend{replies: map[string]string{
		"claim my taxi": "What category does this expense fall under?",
		"Travel":        "Please upload a photo or PDF of the receipt.",
	}}
	var out bytes.Buffer
	pc := newPlainChat(b, config.DefaultConfig(), &out)

	in := strings.NewReader("claim my taxi\n\nTravel\n/upload /tmp/taxi.pdf\n/reset\nquit\nnever sent\n")
	require.NoError(t, pc.run(context.Background(), in))

	assert.Equal(t, []string{"claim my taxi", "Travel", "receipt_uploaded: uploads/abc_taxi.pdf"}, b.chats)
	assert.Equal(t, 1, b.resets)
	got := out.String()
	assert.Contains(t, got, "Options: Travel | Meals | Office Supplies | Other")
	assert.Contains(t, got, "Upload with: /upload")
}

func TestPlainChatFallbackOnError(t *testing.T) {
	b := &stubBackend{chatErr: &client.ApplicationError{Op: "chat", StatusCode: 500, Message: "model down"}}
	var out bytes.Buffer
	pc := newPlainChat(b, config.DefaultConfig(), &out)

	require.NoError(t, pc.send(context.Background(), "hello"))
	assert.Equal(t, "Sorry, I'm having trouble connecting.\n", out.String())
}

func TestPlainChatUploadFailure(t *testing.T) {
	b := &stubBackend{upErr: errors.New("too large")}
	var out bytes.Buffer
	pc := newPlainChat(b, config.DefaultConfig(), &out)

	require.NoError(t, pc.run(context.Background(), strings.NewReader("/upload big.png\n")))
	assert.Empty(t, b.chats)
	assert.Equal(t, "Upload failed: too large\n", out.String())
}

func TestPlainChatRendersMarkdown(t *testing.T) {
	b := &stubBackend{replies: map[string]string{"Dress Code": "**Dress code**\n\n- Business casual\n- Fridays casual"}}
	var out bytes.Buffer
	pc := newPlainChat(b, config.DefaultConfig(), &out)

	require.NoError(t, pc.send(context.Background(), "Dress Code"))
	got := out.String()
	assert.NotContains(t, got, "**")
	assert.Contains(t, got, "• Business casual")
}

func TestPipelineOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	opts := pipelineOptions(cfg)
	assert.Equal(t, cfg.Widget.Welcome, opts.Welcome)
	assert.Equal(t, cfg.Widget.RevealInterval(), opts.RevealInterval)
	assert.NotNil(t, opts.Render)
	assert.Len(t, opts.Cues, 4)

	off := false
	cfg.Widget.RenderMarkdown = &off
	assert.Nil(t, pipelineOptions(cfg).Render)
}

func TestValidateServerURL(t *testing.T) {
	assert.NoError(t, validateServerURL("http://127.0.0.1:5000"))
	assert.NoError(t, validateServerURL(" https://chat.example.com "))
	assert.Error(t, validateServerURL("127.0.0.1:5000"))
	assert.Error(t, validateServerURL("http://"))
}

func TestBuildAssistantUsesConfig(t *testing.T) {
	ac := config.DefaultConfig().Assistant
	a, err := buildAssistant(ac)
	require.NoError(t, err)

	reply, err := a.Answer(context.Background(), "I want to apply for leave")
	require.NoError(t, err)
	assert.Contains(t, reply, "What type of leave")

	ac.Provider = "nope"
	_, err = buildAssistant(ac)
	assert.ErrorContains(t, err, "unknown provider")
}
