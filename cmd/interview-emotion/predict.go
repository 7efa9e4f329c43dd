package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/futig/interview-emotion/internal/builder"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/spf13/cobra"
)

var predictTimeout time.Duration

var predictCmd = &cobra.Command{
	Use:   "predict <audio-file>",
	Short: "Classify the emotion of a single recorded answer",
	Long: `predict uploads one recorded answer (.webm or .wav) to the emotion
service and prints the predicted emotion label.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		uc, logger, err := builder.BuildPredictUsecase(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		path := filepath.Clean(args[0])
		audio, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read audio file: %w", err)
		}

		ctx, cancel := context.WithTimeout(ctxzap.ToContext(cmd.Context(), logger), predictTimeout)
		defer cancel()

		resp, err := uc.PredictEmotion(ctx, audio, filepath.Base(path))
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), resp.Emotion)
		return nil
	},
}

func init() {
	predictCmd.Flags().DurationVar(&predictTimeout, "timeout", time.Minute, "Upload timeout")
}
