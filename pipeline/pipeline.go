// Package pipeline owns the conversation: it appends messages to the
// transcript, sends them to the assistant endpoint, plays replies through the
// reveal engine, classifies the revealed text and mounts the structured
// control it asks for. Every user response, typed or produced by a control,
// re-enters through Submit.
//
// A Pipeline is a bubbletea sub-model. All methods must be called from the
// program's update loop.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linanwx/policychat/client"
	"github.com/linanwx/policychat/controls"
	"github.com/linanwx/policychat/cue"
	"github.com/linanwx/policychat/logger"
	"github.com/linanwx/policychat/reveal"
	"github.com/linanwx/policychat/transcript"
)

const (
	// DefaultFallbackReply replaces the reply of a failed /chat request.
	DefaultFallbackReply = "Sorry, I'm having trouble connecting."
	// SkippedMarker finalises the placeholder of a reply that arrived after a
	// newer submission or a reset.
	SkippedMarker = "(skipped)"

	defaultTimeout = 60 * time.Second
)

// Backend is the assistant endpoint.
type Backend interface {
	Chat(ctx context.Context, message string) (string, error)
	Reset(ctx context.Context) error
	Upload(ctx context.Context, path string) (string, error)
}

// Phase is the position of the current turn in its cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingReply
	PhaseRevealing
	PhaseClassified
	PhaseControlActive
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingReply:
		return "awaiting_reply"
	case PhaseRevealing:
		return "revealing"
	case PhaseClassified:
		return "classified"
	case PhaseControlActive:
		return "control_active"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Options configures a Pipeline.
type Options struct {
	Cues           cue.Table
	Welcome        string
	FallbackReply  string
	RevealInterval time.Duration
	Timeout        time.Duration       // per /chat and /reset request
	Render         func(string) string // applied to replies before reveal
	Controls       controls.Deps       // Uploader defaults to the backend
}

type replyMsg struct {
	turn        uint64
	placeholder string
	text        string
	err         error
}

type resetDoneMsg struct {
	err error
}

// Pipeline is the conversation state machine.
type Pipeline struct {
	backend Backend
	opts    Options

	transcript *transcript.Transcript
	engine     *reveal.Engine

	phase      Phase
	turn       uint64 // bumped by every submission and reset
	revealTurn uint64 // turn of the reveal in progress

	control     controls.Control
	nextControl controls.ID
	prompt      string
	width       int
}

// New creates a pipeline talking to backend.
func New(backend Backend, opts Options) *Pipeline {
	if opts.FallbackReply == "" {
		opts.FallbackReply = DefaultFallbackReply
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Cues == nil {
		opts.Cues = cue.Default()
	}
	if opts.Controls.Uploader == nil {
		opts.Controls.Uploader = backend
	}
	return &Pipeline{
		backend:    backend,
		opts:       opts,
		transcript: transcript.New(),
		engine:     reveal.New(opts.RevealInterval),
	}
}

// Transcript returns the conversation log.
func (p *Pipeline) Transcript() *transcript.Transcript { return p.transcript }

// Phase returns the current phase.
func (p *Pipeline) Phase() Phase { return p.phase }

// Control returns the mounted control, or nil.
func (p *Pipeline) Control() controls.Control { return p.control }

// Prompt returns the free-text hint requested by the last escape option.
func (p *Pipeline) Prompt() string { return p.prompt }

// Revealing reports whether a reveal is playing.
func (p *Pipeline) Revealing() bool { return p.engine.Active() != nil }

// SetWidth sizes the mounted control.
func (p *Pipeline) SetWidth(width int) {
	p.width = width
	if p.control != nil {
		p.control.SetWidth(width)
	}
}

// Seed reveals an assistant message that was not requested, such as the
// welcome text. It is classified like any reply.
func (p *Pipeline) Seed(text string) tea.Cmd {
	if text == "" {
		return nil
	}
	id := p.transcript.AppendPlaceholder()
	return p.startReveal(id, text)
}

// Greet reveals the welcome message.
func (p *Pipeline) Greet() tea.Cmd { return p.Seed(p.opts.Welcome) }

// Submit sends text as the next user turn. Empty or whitespace-only text is
// ignored.
func (p *Pipeline) Submit(text string) tea.Cmd {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	p.unmount("submit")
	p.prompt = ""
	p.turn++
	p.transcript.AppendUser(text)
	placeholder := p.transcript.AppendPlaceholder()
	p.setPhase(PhaseAwaitingReply)
	logger.Info("message submitted", "turn", p.turn, "chars", len(text))
	return p.chat(p.turn, placeholder, text)
}

// Reset clears the conversation, reveals the welcome message again and asks
// the endpoint to forget its memory. A failing remote reset is only logged.
func (p *Pipeline) Reset() tea.Cmd {
	if t := p.engine.Stop(); t != nil {
		logger.Debug("reveal stopped by reset", "message", t.MessageID)
	}
	p.unmount("reset")
	p.turn++
	p.prompt = ""
	p.transcript.Clear()
	p.setPhase(PhaseIdle)
	logger.Info("conversation reset", "turn", p.turn)
	return tea.Batch(p.Greet(), p.resetRemote())
}

// Mount presents the control for c, replacing any mounted control. Mounting a
// file upload while one is mounted leaves the existing one in place.
func (p *Pipeline) Mount(c cue.Cue) tea.Cmd {
	if c.IsNone() {
		return nil
	}
	if c.Kind == cue.KindFileUpload && p.control != nil && p.control.Kind() == cue.KindFileUpload {
		logger.Debug("file upload already mounted", "control", p.control.ID())
		p.setPhase(PhaseControlActive)
		return nil
	}
	p.unmount("superseded")
	p.nextControl++
	ctl, err := controls.New(p.nextControl, c, p.opts.Controls)
	if err != nil {
		logger.Warn("control not mounted", "kind", c.Kind, "err", err)
		p.setPhase(PhaseIdle)
		return nil
	}
	ctl.SetWidth(p.width)
	p.control = ctl
	p.setPhase(PhaseControlActive)
	logger.Info("control mounted", "control", ctl.ID(), "kind", ctl.Kind())
	return ctl.Init()
}

// Update handles pipeline messages and forwards the rest to the mounted
// control.
func (p *Pipeline) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case replyMsg:
		return p.handleReply(msg)

	case reveal.TickMsg:
		frame, cmd, ok := p.engine.Update(msg)
		if !ok {
			return nil
		}
		if !frame.Done {
			if err := p.transcript.SetVisible(frame.MessageID, frame.Text); err != nil {
				logger.Debug("reveal frame dropped", "err", err)
			}
			return cmd
		}
		if err := p.transcript.Complete(frame.MessageID, frame.Text); err != nil {
			logger.Debug("reveal completion dropped", "err", err)
		}
		return p.revealed(frame.Text)

	case resetDoneMsg:
		if msg.err != nil {
			logger.Warn("remote reset failed", "err", msg.err)
		} else {
			logger.Debug("remote reset acknowledged")
		}
		return nil

	case controls.SubmitMsg:
		if !p.owns(msg.Control) {
			return nil
		}
		logger.Info("control resolved", "control", msg.Control)
		return p.Submit(msg.Text)

	case controls.FreeTextMsg:
		if !p.owns(msg.Control) {
			return nil
		}
		p.unmount("free text requested")
		p.prompt = msg.Prompt
		p.setPhase(PhaseIdle)
		return nil

	case controls.DismissMsg:
		if !p.owns(msg.Control) {
			return nil
		}
		p.unmount("dismissed")
		p.setPhase(PhaseIdle)
		return nil

	case controls.NoticeMsg:
		if !p.owns(msg.Control) {
			return nil
		}
		p.transcript.AppendAssistant(msg.Text)
		return nil
	}

	if p.control == nil {
		return nil
	}
	ctl, cmd := p.control.Update(msg)
	p.control = ctl
	return cmd
}

func (p *Pipeline) handleReply(msg replyMsg) tea.Cmd {
	if msg.turn != p.turn {
		logger.Debug("stale reply discarded", "turn", msg.turn, "current", p.turn)
		if err := p.transcript.Complete(msg.placeholder, SkippedMarker); err != nil {
			logger.Debug("stale placeholder gone", "err", err)
		}
		return nil
	}
	text := msg.text
	if msg.err != nil {
		var appErr *client.ApplicationError
		if errors.As(msg.err, &appErr) {
			logger.Warn("assistant returned an error", "turn", msg.turn, "err", appErr.Message)
		} else {
			logger.Warn("chat request failed", "turn", msg.turn, "err", msg.err)
		}
		text = p.opts.FallbackReply
	} else if p.opts.Render != nil {
		text = p.opts.Render(text)
	}
	return p.startReveal(msg.placeholder, text)
}

func (p *Pipeline) startReveal(id, text string) tea.Cmd {
	frame, stopped, cmd := p.engine.Start(id, text)
	if stopped != nil {
		if err := p.transcript.Freeze(stopped.MessageID); err != nil {
			logger.Debug("stopped reveal not frozen", "err", err)
		}
		logger.Debug("reveal superseded", "message", stopped.MessageID)
	}
	p.revealTurn = p.turn
	if err := p.transcript.SetVisible(frame.MessageID, frame.Text); err != nil {
		logger.Debug("reveal frame dropped", "err", err)
	}
	p.setPhase(PhaseRevealing)
	return cmd
}

// revealed classifies a fully revealed message of the current turn.
func (p *Pipeline) revealed(text string) tea.Cmd {
	if p.revealTurn != p.turn {
		logger.Debug("reveal of an older turn finished unclassified", "turn", p.revealTurn, "current", p.turn)
		return nil
	}
	p.setPhase(PhaseClassified)
	c := p.opts.Cues.Classify(text)
	if c.IsNone() {
		p.setPhase(PhaseIdle)
		return nil
	}
	return p.Mount(c)
}

func (p *Pipeline) chat(turn uint64, placeholder, text string) tea.Cmd {
	backend, timeout := p.backend, p.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		reply, err := backend.Chat(ctx, text)
		return replyMsg{turn: turn, placeholder: placeholder, text: reply, err: err}
	}
}

func (p *Pipeline) resetRemote() tea.Cmd {
	backend, timeout := p.backend, p.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return resetDoneMsg{err: backend.Reset(ctx)}
	}
}

func (p *Pipeline) owns(id controls.ID) bool {
	return p.control != nil && p.control.ID() == id
}

func (p *Pipeline) unmount(reason string) {
	if p.control == nil {
		return
	}
	logger.Info("control removed", "control", p.control.ID(), "kind", p.control.Kind(), "reason", reason)
	p.control = nil
}

func (p *Pipeline) setPhase(next Phase) {
	if p.phase == next {
		return
	}
	logger.Debug("phase transition", "from", p.phase, "to", next, "turn", p.turn)
	p.phase = next
}
