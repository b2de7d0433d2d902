package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fiapx/fiapx-dataset-prep/internal/infra/config"
	"github.com/fiapx/fiapx-dataset-prep/pkg/logger"
)

// app carries what every subcommand needs once the root has loaded it.
type app struct {
	cfg *config.Config
	log *zap.Logger
}

// progress returns where batch progress bars are drawn, or nil when disabled.
func (a *app) progress(cmd *cobra.Command) io.Writer {
	if !a.cfg.ProgressBar {
		return nil
	}
	return cmd.ErrOrStderr()
}

// sync flushes the logger; it runs whether or not the command failed.
func (a *app) sync() {
	if a.log != nil {
		_ = a.log.Sync()
	}
}

func execute(ctx context.Context, a *app, root *cobra.Command) error {
	defer a.sync()
	return root.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "datasetprep",
		Short: "Prepare video-derived image datasets for model training",
		Long: `Tools to cut clips from videos, sample frames, rename files and split
labeled image/annotation pairs into train/valid/test sets without letting
frames of one video leak across splits.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return errors.Wrap(err, "load config")
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			a.cfg = cfg
			if a.log != nil {
				return nil
			}
			log, err := logger.New(cfg.LogLevel)
			if err != nil {
				return errors.Wrap(err, "init logger")
			}
			a.log = log
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(
		newSplitCmd(a),
		newExtractClipsCmd(a),
		newBatchClipsCmd(a),
		newExtractFramesCmd(a),
		newRenameCmd(a),
		newWorkerCmd(a),
		newSubmitCmd(a),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	a := &app{}
	err := execute(ctx, a, newRootCmd(a))
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}
