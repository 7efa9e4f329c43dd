package main

import (
	"fmt"

	"github.com/futig/interview-emotion/internal/builder"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interview session HTTP and live socket service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		app, err := builder.Build(cfg)
		if err != nil {
			return fmt.Errorf("failed to build application: %w", err)
		}
		return app.Run()
	},
}
