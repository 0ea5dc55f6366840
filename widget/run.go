package widget

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linanwx/policychat/logger"
)

// Run shows app full screen until the user quits or ctx is cancelled. Log
// output goes to the log panel while the program runs.
func Run(ctx context.Context, app *App) error {
	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	lw := newLogWriter(program)
	logger.Intercept(lw)
	defer func() {
		logger.Restore()
		_ = lw.Close()
	}()

	logger.Info("chat widget started")
	_, err := program.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
