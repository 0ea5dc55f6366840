// Package cue classifies fully revealed assistant text into the structured
// follow-up interaction the user should be offered, if any.
package cue

import (
	"fmt"
	"strings"
)

// Kind identifies the structured control a cue asks for.
type Kind string

const (
	KindNone       Kind = ""
	KindChoiceList Kind = "choice"
	KindDateRange  Kind = "date_range"
	KindFileUpload Kind = "file_upload"
)

// EscapeBehavior decides what choosing the escape option of a choice list does.
type EscapeBehavior string

const (
	// EscapeResubmit submits the escape option label like any other option.
	EscapeResubmit EscapeBehavior = "resubmit"
	// EscapeFreeText removes the control and asks the user to type instead.
	EscapeFreeText EscapeBehavior = "free_text"
)

// Cue is the classification of one assistant message.
type Cue struct {
	Kind           Kind           `json:"kind" yaml:"kind"`
	Title          string         `json:"title,omitempty" yaml:"title,omitempty"`
	Options        []string       `json:"options,omitempty" yaml:"options,omitempty"`               // choice list only, in display order
	EscapeOption   string         `json:"escapeOption,omitempty" yaml:"escapeOption,omitempty"`     // e.g. "Other"
	EscapeBehavior EscapeBehavior `json:"escapeBehavior,omitempty" yaml:"escapeBehavior,omitempty"` // defaults to resubmit
	Prompt         string         `json:"prompt,omitempty" yaml:"prompt,omitempty"`                 // free-text prompt after escape
}

// None is the zero cue: no structured follow-up.
var None = Cue{}

// IsNone reports whether the cue asks for no control.
func (c Cue) IsNone() bool { return c.Kind == KindNone }

// IsEscape reports whether label is the escape option that switches to free text.
func (c Cue) IsEscape(label string) bool {
	if c.EscapeOption == "" || c.EscapeBehavior != EscapeFreeText {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(label), strings.TrimSpace(c.EscapeOption))
}

// Trigger maps a phrase found in assistant text to a cue.
type Trigger struct {
	Phrase string `json:"phrase" yaml:"phrase"`
	Cue    `yaml:",inline"`
}

// Table is an ordered trigger list. The first matching trigger wins.
type Table []Trigger

// Classify returns the cue of the first trigger whose phrase occurs in text,
// compared case-insensitively, or None.
func (t Table) Classify(text string) Cue {
	if strings.TrimSpace(text) == "" {
		return None
	}
	lower := strings.ToLower(text)
	for _, tr := range t {
		phrase := strings.ToLower(strings.TrimSpace(tr.Phrase))
		if phrase == "" || tr.Kind == KindNone {
			continue
		}
		if strings.Contains(lower, phrase) {
			return tr.Cue.normalized()
		}
	}
	return None
}

// Validate reports the first malformed trigger, if any.
func (t Table) Validate() error {
	for i, tr := range t {
		if strings.TrimSpace(tr.Phrase) == "" {
			return &TriggerError{Index: i, Reason: "empty phrase"}
		}
		switch tr.Kind {
		case KindChoiceList:
			if len(tr.Options) == 0 {
				return &TriggerError{Index: i, Phrase: tr.Phrase, Reason: "choice list without options"}
			}
		case KindDateRange, KindFileUpload:
		default:
			return &TriggerError{Index: i, Phrase: tr.Phrase, Reason: "unknown kind " + string(tr.Kind)}
		}
		switch tr.EscapeBehavior {
		case "", EscapeResubmit, EscapeFreeText:
		default:
			return &TriggerError{Index: i, Phrase: tr.Phrase, Reason: "unknown escape behavior " + string(tr.EscapeBehavior)}
		}
	}
	return nil
}

// TriggerError describes a malformed trigger table entry.
type TriggerError struct {
	Index  int
	Phrase string
	Reason string
}

func (e *TriggerError) Error() string {
	if e.Phrase == "" {
		return fmt.Sprintf("cue trigger #%d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("cue trigger #%d (%s): %s", e.Index, e.Phrase, e.Reason)
}

// normalized returns a copy that does not share option storage with the table.
func (c Cue) normalized() Cue {
	out := c
	out.Options = append([]string(nil), c.Options...)
	if out.EscapeBehavior == "" {
		out.EscapeBehavior = EscapeResubmit
	}
	return out
}
