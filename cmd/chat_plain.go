package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/linanwx/policychat/client"
	"github.com/linanwx/policychat/config"
	"github.com/linanwx/policychat/controls"
	"github.com/linanwx/policychat/cue"
	"github.com/linanwx/policychat/logger"
	"github.com/linanwx/policychat/pipeline"
)

// plainChat talks to the endpoint line by line, for pipes and -m.
type plainChat struct {
	backend  pipeline.Backend
	cues     cue.Table
	render   func(string) string
	fallback string
	timeout  time.Duration
	upload   time.Duration
	out      io.Writer
}

func newPlainChat(backend pipeline.Backend, cfg *config.Config, out io.Writer) *plainChat {
	pc := &plainChat{
		backend:  backend,
		cues:     cfg.Cues,
		fallback: cfg.Widget.FallbackReply,
		timeout:  cfg.Widget.Timeout(),
		upload:   cfg.Widget.UploadTimeout(),
		out:      out,
	}
	if cfg.Widget.MarkdownEnabled() {
		pc.render = renderReply
	}
	return pc
}

func (p *plainChat) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		text := strings.TrimSpace(scanner.Text())
		switch {
		case text == "":
			continue
		case isExitCommand(text):
			return nil
		case text == "/reset":
			p.reset(ctx)
		case strings.HasPrefix(text, "/upload "):
			if err := p.uploadFile(ctx, strings.TrimSpace(strings.TrimPrefix(text, "/upload "))); err != nil {
				return err
			}
		default:
			if err := p.send(ctx, text); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}

// send prints the reply to text, and the structured follow-up it asks for.
func (p *plainChat) send(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	reply, err := p.backend.Chat(ctx, text)
	if err != nil {
		var appErr *client.ApplicationError
		if errors.As(err, &appErr) {
			logger.Warn("assistant returned an error", "err", appErr.Message)
		} else {
			logger.Warn("chat request failed", "err", err)
		}
		reply = p.fallback
	} else if p.render != nil {
		reply = p.render(reply)
	}
	if _, err := fmt.Fprintln(p.out, reply); err != nil {
		return err
	}
	return p.hint(p.cues.Classify(reply))
}

func (p *plainChat) hint(c cue.Cue) error {
	var line string
	switch c.Kind {
	case cue.KindChoiceList:
		line = "Options: " + strings.Join(c.Options, " | ")
	case cue.KindDateRange:
		line = "Reply with a date, e.g. " + controls.FormatRange(time.Now(), time.Time{}) + ", or a range like March 3 to March 5."
	case cue.KindFileUpload:
		line = "Upload with: /upload <path to image or PDF>"
	default:
		return nil
	}
	_, err := fmt.Fprintln(p.out, line)
	return err
}

func (p *plainChat) uploadFile(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, p.upload)
	defer cancel()

	stored, err := p.backend.Upload(ctx, path)
	if err != nil {
		_, werr := fmt.Fprintln(p.out, "Upload failed: "+err.Error())
		return werr
	}
	return p.send(ctx, controls.UploadPrefix+stored)
}

func (p *plainChat) reset(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.backend.Reset(ctx); err != nil {
		logger.Warn("remote reset failed", "err", err)
	}
}

func isExitCommand(text string) bool {
	switch text {
	case "exit", "quit", "/exit", "/quit":
		return true
	}
	return false
}
