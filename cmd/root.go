// Package cmd implements the policychat command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/linanwx/policychat/config"
	"github.com/linanwx/policychat/logger"
	"github.com/spf13/cobra"
)

var configDirFlag string

var rootCmd = &cobra.Command{
	Use:   "policychat",
	Short: "Chat widget and assistant endpoint for workplace policy questions",
	Long: `policychat answers employee questions about company policies.

"policychat serve" runs the assistant endpoint (/chat, /reset, /upload).
"policychat chat" opens the terminal chat widget against that endpoint,
with guided leave and expense flows.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		config.SetConfigDir(configDirFlag)
		initLogger(cmd.Name())
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = logger.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "Config directory (default ~/.policychat, or $POLICYCHAT_CONFIG_DIR)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initLogger(component string) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error, using defaults:", err)
		cfg = config.DefaultConfig()
	}
	dir, _ := config.ConfigDir()
	lc := cfg.BuildLoggerConfig()
	lc.Component = component
	if err := logger.Init(lc, dir); err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
	}
}
