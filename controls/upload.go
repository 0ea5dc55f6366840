package controls

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/linanwx/policychat/cue"
	"github.com/linanwx/policychat/logger"
)

// UploadPrefix starts the synthetic user message produced by a successful upload.
const UploadPrefix = "receipt_uploaded: "

const (
	defaultUploadTimeout = 2 * time.Minute
	busyLabel            = "Uploading..."
)

// AllowedUploadTypes restricts the picker to images and PDF.
var AllowedUploadTypes = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".pdf"}

var (
	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("63")).
			Padding(0, 2)
	busyButtonStyle = buttonStyle.
			Background(lipgloss.Color("8"))
)

// UploadStatus is the state of the upload task behind the button.
type UploadStatus int

const (
	UploadIdle UploadStatus = iota
	UploadPicking
	UploadUploading
	UploadSucceeded
	UploadFailed // last attempt failed; the button accepts a retry
)

// uploadDoneMsg reports the outcome of an upload request.
type uploadDoneMsg struct {
	control ID
	file    string
	stored  string
	err     error
}

// FileUpload is a button that opens a file picker and uploads the chosen file.
type FileUpload struct {
	id      ID
	cue     cue.Cue
	deps    Deps
	label   string
	status  UploadStatus
	form    *huh.Form
	picked  string
	spinner spinner.Model
	width   int
}

func newFileUpload(id ID, c cue.Cue, deps Deps) *FileUpload {
	sp := spinner.New()
	sp.Spinner = spinner.Line
	return &FileUpload{
		id:      id,
		cue:     c,
		deps:    deps,
		label:   titleOr(c, "Upload receipt"),
		spinner: sp,
	}
}

func (u *FileUpload) ID() ID         { return u.id }
func (u *FileUpload) Kind() cue.Kind { return cue.KindFileUpload }

// Status returns the upload state.
func (u *FileUpload) Status() UploadStatus { return u.status }

// Label returns the current button label.
func (u *FileUpload) Label() string {
	if u.status == UploadUploading {
		return busyLabel
	}
	return u.label
}

// Enabled reports whether the button accepts a new file.
func (u *FileUpload) Enabled() bool {
	switch u.status {
	case UploadIdle, UploadPicking, UploadFailed:
		return true
	}
	return false
}

func (u *FileUpload) Init() tea.Cmd { return nil }

func (u *FileUpload) Update(msg tea.Msg) (Control, tea.Cmd) {
	switch msg := msg.(type) {
	case uploadDoneMsg:
		if msg.control != u.id || u.status != UploadUploading {
			return u, nil
		}
		if msg.err != nil {
			u.status = UploadFailed
			logger.Warn("upload control re-enabled after failure", "control", u.id, "file", msg.file, "err", msg.err)
			return u, emit(NoticeMsg{Control: u.id, Text: "Upload failed: " + msg.err.Error()})
		}
		u.status = UploadSucceeded
		return u, emit(SubmitMsg{Control: u.id, Text: UploadPrefix + msg.stored})

	case spinner.TickMsg:
		if u.status != UploadUploading {
			return u, nil
		}
		var cmd tea.Cmd
		u.spinner, cmd = u.spinner.Update(msg)
		return u, cmd

	case tea.KeyMsg:
		switch u.status {
		case UploadIdle, UploadFailed:
			if msg.Type == tea.KeyEnter || msg.String() == " " {
				return u, u.openPicker()
			}
			return u, nil
		case UploadPicking:
			if msg.Type == tea.KeyEsc {
				u.status = UploadIdle
				u.form = nil
				return u, nil
			}
		default:
			return u, nil
		}
	}

	if u.status != UploadPicking || u.form == nil {
		return u, nil
	}
	m, cmd := u.form.Update(msg)
	if f, ok := m.(*huh.Form); ok {
		u.form = f
	}
	if u.form.State == huh.StateCompleted {
		u.form = nil
		u.status = UploadIdle
		return u, tea.Batch(cmd, u.Pick(u.picked))
	}
	return u, cmd
}

func (u *FileUpload) openPicker() tea.Cmd {
	u.picked = ""
	fp := huh.NewFilePicker().
		Title(u.label).
		Description("Images or PDF").
		AllowedTypes(AllowedUploadTypes).
		Picking(true).
		Height(10).
		Value(&u.picked)
	if u.deps.StartDir != "" {
		fp = fp.CurrentDirectory(u.deps.StartDir)
	}
	u.form = huh.NewForm(huh.NewGroup(fp)).WithShowHelp(false)
	if u.width > 4 {
		u.form = u.form.WithWidth(u.width - 4)
	}
	u.status = UploadPicking
	return u.form.Init()
}

// Pick uploads path. It is ignored while an upload is in flight. Files that
// are not images or PDF produce a notice and leave the button enabled.
func (u *FileUpload) Pick(path string) tea.Cmd {
	if !u.Enabled() {
		return nil
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if !allowedUpload(path) {
		return emit(NoticeMsg{Control: u.id, Text: "Only images and PDF files can be uploaded."})
	}
	u.status = UploadUploading
	u.form = nil
	logger.Info("upload started", "control", u.id, "file", filepath.Base(path))

	uploader := u.deps.Uploader
	timeout := u.deps.UploadTimeout
	if timeout <= 0 {
		timeout = defaultUploadTimeout
	}
	id := u.id
	upload := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		stored, err := uploader.Upload(ctx, path)
		return uploadDoneMsg{control: id, file: filepath.Base(path), stored: stored, err: err}
	}
	return tea.Batch(u.spinner.Tick, upload)
}

func allowedUpload(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range AllowedUploadTypes {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (u *FileUpload) View() string {
	switch u.status {
	case UploadPicking:
		if u.form != nil {
			return frameStyle.Render(u.form.View() + "\n" + hintStyle.Render("enter select • esc back"))
		}
	case UploadUploading:
		return busyButtonStyle.Render(u.spinner.View() + " " + busyLabel)
	case UploadFailed:
		return buttonStyle.Render("📎 "+u.label) + " " + hintStyle.Render("upload failed, enter to try again")
	}
	return buttonStyle.Render("📎 "+u.label) + " " + hintStyle.Render("enter to choose an image or PDF")
}

func (u *FileUpload) SetWidth(width int) {
	u.width = width
	if u.form != nil && width > 4 {
		u.form = u.form.WithWidth(width - 4)
	}
}
