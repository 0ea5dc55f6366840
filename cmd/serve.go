package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/linanwx/policychat/assistant"
	"github.com/linanwx/policychat/config"
	"github.com/linanwx/policychat/logger"
	"github.com/linanwx/policychat/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the assistant endpoint",
	Long: `Start the HTTP endpoint the chat widget talks to.

Endpoints:
  POST /chat     {"message": "..."} -> {"response": "..."}
  POST /reset    clears the conversation memory
  POST /upload   multipart "file" (image or PDF) -> {"file_path": "..."}
  GET  /healthz  runtime and upload directory status

Examples:
  policychat serve                    # mock provider on 127.0.0.1:5000
  policychat serve --addr :8080
  policychat serve --provider openai  # uses OPENAI_API_KEY`,
	RunE: runServe,
}

var (
	serveAddr     string
	serveProvider string
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, 127.0.0.1:5000)")
	serveCmd.Flags().StringVar(&serveProvider, "provider", "", "LLM provider: "+joinProviders())
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if serveProvider != "" {
		cfg.Assistant.Provider = serveProvider
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	asst, err := buildAssistant(cfg.Assistant)
	if err != nil {
		return err
	}

	uploadDir, err := config.ResolvePath(cfg.Server.UploadDir)
	if err != nil {
		return err
	}
	store, err := server.NewUploadStore(uploadDir, cfg.Server.MaxUploadBytes())
	if err != nil {
		return err
	}
	sweeper, err := server.NewSweeper(store, cfg.Server.SweepCron, cfg.Server.UploadRetention())
	if err != nil {
		return err
	}
	sweeper.RunOnce()
	sweeper.Start()
	defer sweeper.Stop()

	srv := server.New(asst, store, server.Options{AllowedOrigins: cfg.Server.AllowedOrigins})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received")
		cancel()
	}()

	logger.Info("policychat endpoint starting",
		"addr", cfg.Server.Addr,
		"provider", cfg.Assistant.Provider,
		"uploads", uploadDir,
	)
	fmt.Printf("policychat is serving on http://%s. Press Ctrl+C to stop.\n", cfg.Server.Addr)

	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

func buildAssistant(ac config.AssistantConfig) (*assistant.Assistant, error) {
	provider, err := assistant.NewProvider(ac.Provider, assistant.Settings{
		APIKey:      ac.APIKey,
		APIBase:     ac.APIBase,
		Model:       ac.Model,
		MaxTokens:   ac.MaxTokens,
		Temperature: ac.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	logger.Debug("provider configured", "provider", ac.Provider, "model", ac.Model, "apiKey", ac.APIKey)

	policies, err := loadPolicies(ac.PolicyDir, ac.ChunkChars)
	if assistant.IsMissingPolicyDir(err) {
		logger.Warn("policy directory not found, answering without document excerpts", "dir", ac.PolicyDir)
	} else if err != nil {
		return nil, err
	}
	return assistant.New(provider, assistant.Options{
		SystemPrompt:  ac.SystemPrompt,
		FAQ:           ac.FAQ,
		FAQThreshold:  ac.FAQThreshold,
		HistoryTokens: ac.HistoryTokens,
		Policies:      policies,
		RetrieveK:     ac.RetrieveK,
	})
}

// loadPolicies indexes the policy directory, resolved against the config
// dir when relative.
func loadPolicies(dir string, chunkChars int) (*assistant.Index, error) {
	path, err := config.ResolvePath(dir)
	if err != nil {
		return nil, err
	}
	return assistant.LoadIndex(path, chunkChars)
}
