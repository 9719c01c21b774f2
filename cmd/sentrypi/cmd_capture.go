package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mbarrette/sentrypi/internal/config"
	"github.com/mbarrette/sentrypi/internal/debug"
	"github.com/mbarrette/sentrypi/internal/state"
	"github.com/mbarrette/sentrypi/internal/storage"
	"github.com/mbarrette/sentrypi/internal/transfer"
)

// newCaptureCmd creates the "sentrypi capture" subcommand: the worker
// process spawned per motion event. It captures one still, delivers it
// to Slack and the S3 archive, and exits.
func newCaptureCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "capture",
		Short: "Capture one still and deliver it (worker process)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return runCapture(cfg)
		},
	}
}

func runCapture(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store := openStore(cfg)
	defer store.Close()

	cam := newCameraFromConfig(cfg)

	if err := os.MkdirAll(cfg.Camera.ImageDir, 0o755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}
	filename := uuid.New().String() + ".png"
	imagePath := filepath.Join(cfg.Camera.ImageDir, filename)

	debug.Section("Capture")
	if err := cam.CaptureStill(ctx, imagePath); err != nil {
		return fmt.Errorf("capture: %w", err)
	}

	if err := store.Set(ctx, state.KeyLastCapture, state.String(filename)); err != nil {
		debug.Error(err)
	}

	policy := transfer.Policy{
		MaxAttempts: cfg.Transfer.MaxAttempts,
		Delay:       cfg.TransferDelay(),
	}

	var deliveryErrs []error

	if notifier := newNotifier(cfg); notifier != nil {
		fileID, outcome := transfer.Do(policy, "slack upload", func() (string, error) {
			return notifier.UploadImage(ctx, imagePath, filename)
		})
		if outcome.OK() {
			if err := notifier.PostTagPrompt(ctx, fileID, filename); err != nil {
				debug.Error(err)
				deliveryErrs = append(deliveryErrs, err)
			}
		} else {
			debug.Info("Slack delivery failed after %d attempts: %v", outcome.Attempts, outcome.Err)
			deliveryErrs = append(deliveryErrs, fmt.Errorf("slack delivery: %w", outcome.Err))
		}
	}

	if cfg.S3.Bucket != "" {
		archiver, err := storage.NewArchiver(ctx, cfg.S3.Bucket, cfg.S3.Prefix, cfg.S3.Region)
		if err != nil {
			debug.Error(err)
			deliveryErrs = append(deliveryErrs, err)
		} else {
			outcome := transfer.Run(policy, "s3 archive", func() error {
				return archiver.Upload(ctx, imagePath, archiver.KeyFor(filename))
			})
			if !outcome.OK() {
				debug.Info("Archive failed after %d attempts: %v", outcome.Attempts, outcome.Err)
				deliveryErrs = append(deliveryErrs, fmt.Errorf("s3 archive: %w", outcome.Err))
			}
		}
	}

	if len(deliveryErrs) > 0 {
		return errors.Join(deliveryErrs...)
	}

	debug.Info("Capture %s delivered", filename)
	return nil
}
