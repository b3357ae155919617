package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"concierge/internal/config"
	"concierge/internal/logging"
)

var (
	// Global flags
	configPath  string
	verbose     bool
	threadID    string
	passengerID string

	// Loaded configuration
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command. Running it with no subcommand
// starts the interactive chat session.
var rootCmd = &cobra.Command{
	Use:   "concierge",
	Short: "concierge - Swiss Airlines travel assistant",
	Long: `concierge is a multi-assistant travel support agent.

A primary dispatcher answers flight and policy questions and hands
booking work to specialized assistants for flights, car rentals,
hotels, and excursions. Every booking mutation pauses for your
approval before it executes.

Run without arguments to start an interactive session.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if passengerID != "" {
			cfg.Session.PassengerID = passengerID
		}

		logLevel := cfg.Logging.Level
		if verbose {
			logLevel = "debug"
		}
		var categories map[string]bool
		if len(cfg.Logging.Categories) > 0 {
			categories = make(map[string]bool, len(cfg.Logging.Categories))
			for _, c := range cfg.Logging.Categories {
				categories[c] = true
			}
		}
		if err := logging.Configure(logging.Options{
			Workspace:  ".",
			Level:      logLevel,
			Categories: categories,
		}); err != nil {
			return fmt.Errorf("failed to configure logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "concierge.yaml", "path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().StringVar(&threadID, "thread", "", "resume a previous conversation by thread id")
	rootCmd.Flags().StringVar(&passengerID, "passenger", "", "override the signed-in passenger id")

	rootCmd.AddCommand(dbCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
