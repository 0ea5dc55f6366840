package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/linanwx/policychat/client"
	"github.com/linanwx/policychat/config"
	"github.com/linanwx/policychat/controls"
	"github.com/linanwx/policychat/logger"
	"github.com/linanwx/policychat/mdtext"
	"github.com/linanwx/policychat/pipeline"
	"github.com/linanwx/policychat/widget"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the chat widget",
	Long: `Open the terminal chat widget connected to the assistant endpoint.

When stdin is not a terminal, lines are read from stdin and each reply is
printed as plain text. Lines starting with /upload <file> upload a receipt,
/reset clears the conversation.

Examples:
  policychat chat
  policychat chat -m "What are the office timings?"
  echo "Dress Code" | policychat chat`,
	RunE: runChat,
}

var (
	chatMessage string
	chatServer  string
	chatClosed  bool
	chatLogs    bool
)

func init() {
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "Send one message, print the reply and exit")
	chatCmd.Flags().StringVar(&chatServer, "server", "", "Assistant endpoint URL (default from config)")
	chatCmd.Flags().BoolVar(&chatClosed, "closed", false, "Start with the launcher instead of the open chat")
	chatCmd.Flags().BoolVar(&chatLogs, "logs", false, "Show the log panel")
	rootCmd.AddCommand(chatCmd)
}

func runChat(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if chatServer != "" {
		cfg.Widget.ServerURL = chatServer
	}

	backend := client.New(cfg.Widget.ServerURL,
		client.WithTimeout(max(cfg.Widget.Timeout(), cfg.Widget.UploadTimeout())))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if chatMessage != "" || !term.IsTerminal(int(os.Stdin.Fd())) {
		// Keep stdout for replies.
		logger.Intercept(os.Stderr)
		defer logger.Restore()

		pc := newPlainChat(backend, cfg, os.Stdout)
		if chatMessage != "" {
			return pc.send(ctx, chatMessage)
		}
		return pc.run(ctx, os.Stdin)
	}

	pipe := pipeline.New(backend, pipelineOptions(cfg))
	app := widget.New(pipe, widget.Options{
		Suggestions: cfg.Widget.Suggestions,
		Open:        !chatClosed,
		ShowLogs:    chatLogs,
	})
	logger.Debug("chat widget connecting", "server", backend.BaseURL())
	return widget.Run(ctx, app)
}

func pipelineOptions(cfg *config.Config) pipeline.Options {
	opts := pipeline.Options{
		Cues:           cfg.Cues,
		Welcome:        cfg.Widget.Welcome,
		FallbackReply:  cfg.Widget.FallbackReply,
		RevealInterval: cfg.Widget.RevealInterval(),
		Timeout:        cfg.Widget.Timeout(),
		Controls: controls.Deps{
			UploadTimeout: cfg.Widget.UploadTimeout(),
		},
	}
	if wd, err := os.Getwd(); err == nil {
		opts.Controls.StartDir = wd
	}
	if cfg.Widget.MarkdownEnabled() {
		opts.Render = renderReply
	}
	return opts
}

func renderReply(text string) string {
	return strings.TrimRight(mdtext.Plain(text), "\n")
}
