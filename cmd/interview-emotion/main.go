package main

import (
	"fmt"
	"os"

	"github.com/futig/interview-emotion/internal/config"
	"github.com/spf13/cobra"
)

var environment string

var rootCmd = &cobra.Command{
	Use:   "interview-emotion",
	Short: "Interview session controller with emotion recognition",
	Long: `interview-emotion runs recorded interview sessions: it captures one answer
per question, transcribes it live and asks the emotion service for the
emotion distribution of every answer.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(environment)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&environment, "env", "local", "Environment to run (local, prod, or custom)")
	rootCmd.AddCommand(serveCmd, predictCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
