package controls

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linanwx/policychat/cue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collect runs cmd and every command it batches, returning the produced messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func only[T any](t *testing.T, msgs []tea.Msg) T {
	t.Helper()
	var found []T
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			found = append(found, v)
		}
	}
	require.Len(t, found, 1, "messages: %#v", msgs)
	return found[0]
}

type fakeUploader struct {
	mu     sync.Mutex
	calls  []string
	stored string
	err    error
}

func (f *fakeUploader) Upload(_ context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, path)
	return f.stored, f.err
}

func expenseCue() cue.Cue {
	return cue.Default().Classify("What category does this expense fall under?")
}

func TestNewRejectsUnknownCues(t *testing.T) {
	_, err := New(1, cue.None, Deps{})
	assert.Error(t, err)

	_, err = New(1, cue.Cue{Kind: cue.KindFileUpload}, Deps{})
	assert.Error(t, err, "file upload needs an uploader")

	_, err = New(1, cue.Cue{Kind: cue.KindChoiceList}, Deps{})
	assert.Error(t, err)
}

func TestChoiceListSubmitsLabelVerbatim(t *testing.T) {
	ctl, err := New(7, expenseCue(), Deps{})
	require.NoError(t, err)
	cl := ctl.(*ChoiceList)
	assert.Equal(t, []string{"Travel", "Meals", "Office Supplies", "Other"}, cl.Options())

	msg := only[SubmitMsg](t, collect(cl.Choose("Travel")))
	assert.Equal(t, SubmitMsg{Control: 7, Text: "Travel"}, msg)

	assert.Nil(t, cl.Choose("Meals"), "a resolved list ignores further choices")
}

func TestChoiceListEscapeAsksForFreeText(t *testing.T) {
	ctl, err := New(3, expenseCue(), Deps{})
	require.NoError(t, err)

	msgs := collect(ctl.(*ChoiceList).Choose("Other"))
	ft := only[FreeTextMsg](t, msgs)
	assert.Equal(t, ID(3), ft.Control)
	assert.Equal(t, "Please type the expense category...", ft.Prompt)
	for _, m := range msgs {
		_, isSubmit := m.(SubmitMsg)
		assert.False(t, isSubmit, "escape option must not submit")
	}
}

func TestChoiceListResubmitEscape(t *testing.T) {
	c := cue.Cue{Kind: cue.KindChoiceList, Options: []string{"Yes", "Other"}, EscapeOption: "Other", EscapeBehavior: cue.EscapeResubmit}
	ctl, err := New(1, c, Deps{})
	require.NoError(t, err)

	msg := only[SubmitMsg](t, collect(ctl.(*ChoiceList).Choose("Other")))
	assert.Equal(t, "Other", msg.Text)
}

func TestChoiceListIgnoresUnknownLabel(t *testing.T) {
	ctl, err := New(1, expenseCue(), Deps{})
	require.NoError(t, err)
	cl := ctl.(*ChoiceList)

	assert.Nil(t, cl.Choose("Lodging"))
	assert.NotNil(t, cl.Choose("Meals"))
}

func TestFormatRange(t *testing.T) {
	march3 := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	march5 := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "March 3", FormatRange(march3, time.Time{}))
	assert.Equal(t, "March 3 to March 5", FormatRange(march3, march5))
	assert.Equal(t, "March 3 to March 5", FormatRange(march5, march3))
	assert.Equal(t, "March 3", FormatRange(march3, march3.Add(5*time.Hour)))
}

func TestParseDate(t *testing.T) {
	now := time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC)

	got, err := ParseDate("March 3, 2025", now)
	require.NoError(t, err)
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 3, got.Day())

	got, err = ParseDate("2025-03-05", now)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Day())

	_, err = ParseDate("  ", now)
	assert.Error(t, err)
	_, err = ParseDate("not a date at all", now)
	assert.Error(t, err)
}

func TestDateRangeConfirm(t *testing.T) {
	march3 := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	march5 := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)

	ctl, err := New(2, cue.Cue{Kind: cue.KindDateRange}, Deps{})
	require.NoError(t, err)
	msg := only[SubmitMsg](t, collect(ctl.(*DateRange).Confirm(march3)))
	assert.Equal(t, "March 3", msg.Text)

	ctl, err = New(3, cue.Cue{Kind: cue.KindDateRange}, Deps{})
	require.NoError(t, err)
	msg = only[SubmitMsg](t, collect(ctl.(*DateRange).Confirm(march3, march5)))
	assert.Equal(t, "March 3 to March 5", msg.Text)
}

func TestDateRangeCloseEmitsNothingToSubmit(t *testing.T) {
	ctl, err := New(4, cue.Cue{Kind: cue.KindDateRange}, Deps{})
	require.NoError(t, err)

	_, cmd := ctl.Update(tea.KeyMsg{Type: tea.KeyEsc})
	msg := only[DismissMsg](t, collect(cmd))
	assert.Equal(t, ID(4), msg.Control)

	assert.Nil(t, ctl.(*DateRange).Confirm(time.Now()), "closed picker ignores late confirmation")
}

func TestFileUploadSuccess(t *testing.T) {
	up := &fakeUploader{stored: "uploads/1_receipt.pdf"}
	ctl, err := New(9, cue.Cue{Kind: cue.KindFileUpload}, Deps{Uploader: up})
	require.NoError(t, err)
	fu := ctl.(*FileUpload)
	assert.Equal(t, "Upload receipt", fu.Label())

	msgs := collect(fu.Pick("/tmp/receipt.pdf"))
	assert.False(t, fu.Enabled())
	assert.Equal(t, "Uploading...", fu.Label())
	assert.Nil(t, fu.Pick("/tmp/other.pdf"), "disabled while uploading")

	done := only[uploadDoneMsg](t, msgs)
	_, cmd := fu.Update(done)
	submit := only[SubmitMsg](t, collect(cmd))
	assert.Equal(t, "receipt_uploaded: uploads/1_receipt.pdf", submit.Text)
	assert.Equal(t, UploadSucceeded, fu.Status())
	assert.Equal(t, []string{"/tmp/receipt.pdf"}, up.calls)
}

func TestFileUploadFailureReenables(t *testing.T) {
	up := &fakeUploader{err: errors.New("too large")}
	ctl, err := New(5, cue.Cue{Kind: cue.KindFileUpload}, Deps{Uploader: up})
	require.NoError(t, err)
	fu := ctl.(*FileUpload)

	done := only[uploadDoneMsg](t, collect(fu.Pick("/tmp/huge.png")))
	_, cmd := fu.Update(done)
	msgs := collect(cmd)

	notice := only[NoticeMsg](t, msgs)
	assert.Contains(t, notice.Text, "too large")
	for _, m := range msgs {
		_, isSubmit := m.(SubmitMsg)
		assert.False(t, isSubmit)
	}
	assert.Equal(t, UploadFailed, fu.Status())
	assert.True(t, fu.Enabled())
	assert.Equal(t, "Upload receipt", fu.Label())
	assert.Contains(t, fu.View(), "upload failed")

	up.err = nil
	up.stored = "uploads/2_huge.png"
	done = only[uploadDoneMsg](t, collect(fu.Pick("/tmp/huge.png")))
	_, cmd = fu.Update(done)
	assert.Equal(t, "receipt_uploaded: uploads/2_huge.png", only[SubmitMsg](t, collect(cmd)).Text)
	assert.Equal(t, UploadSucceeded, fu.Status())
}

func TestFileUploadRejectsOtherTypes(t *testing.T) {
	up := &fakeUploader{}
	ctl, err := New(6, cue.Cue{Kind: cue.KindFileUpload}, Deps{Uploader: up})
	require.NoError(t, err)
	fu := ctl.(*FileUpload)

	notice := only[NoticeMsg](t, collect(fu.Pick("/tmp/notes.docx")))
	assert.Contains(t, notice.Text, "images and PDF")
	assert.True(t, fu.Enabled())
	assert.Empty(t, up.calls)
}

func TestFileUploadIgnoresResultsForOtherControls(t *testing.T) {
	up := &fakeUploader{stored: "uploads/x.pdf"}
	ctl, err := New(10, cue.Cue{Kind: cue.KindFileUpload}, Deps{Uploader: up})
	require.NoError(t, err)

	_, cmd := ctl.Update(uploadDoneMsg{control: 11, stored: "uploads/x.pdf"})
	assert.Nil(t, cmd)
}
