package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"recyclebot/internal/config"
	"recyclebot/internal/logger"
)

var version = "0.1.0"

var (
	cfgPath  string
	demoMode bool

	cfg       *config.AppConfig
	log       zerolog.Logger
	logCloser io.Closer
)

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "recyclebot",
	Short: "Question answering about the Framingham recycling program",
	Long: `recyclebot answers questions about the Framingham recycling program using
excerpts from the city's recycling guidance, and shows the excerpts it used.

Examples:
  # Web front end on :8080
  recyclebot serve

  # Terminal chat without any hosted services
  recyclebot chat --demo

  # Load guidance documents into the configured index
  recyclebot ingest docs/*.md`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(ingestCmd)

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to YAML config file (default ./config.yaml or ~/.config/recyclebot/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&demoMode, "demo", false, "Answer from canned responses without calling any hosted service")
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("demo") {
		cfg.Demo = demoMode
	}

	// The terminal UI owns stdout.
	if cmd == chatCmd && cfg.Log.File == "" {
		cfg.Log.File = logger.DefaultFile()
	}
	log, logCloser, err = logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	return nil
}
