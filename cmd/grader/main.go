package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-grader/internal/config"
	"github.com/noah-isme/gema-grader/internal/service"
)

const (
	exitOK          = 0
	exitConfigError = 1
	exitSourceError = 2
)

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var coded *exitError
	if errors.As(err, &coded) {
		return coded.code
	}
	return exitConfigError
}

type cliFlags struct {
	submission string
	customData string
	outputDir  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{}

	root := &cobra.Command{
		Use:   "grader",
		Short: "Grade a promise-chaining fetch submission",
		Long: `Checks a JavaScript submission against the promise-chaining checklist,
writes text and XML reports and pushes every verdict to the scoring endpoint.

Configuration is read from GRADER_* environment variables and an optional .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			return runGrade(cmd.Context(), cfg, newLogger(cfg))
		},
	}

	root.PersistentFlags().StringVar(&flags.submission, "submission", "", "path to the submission source (overrides GRADER_SUBMISSION_PATH)")
	root.PersistentFlags().StringVar(&flags.customData, "custom-data", "", "path to the custom data file (overrides GRADER_CUSTOM_DATA_PATH)")
	root.PersistentFlags().StringVar(&flags.outputDir, "output-dir", "", "directory for report files (overrides GRADER_OUTPUT_DIR)")

	root.AddCommand(newServeCmd(flags))
	return root
}

func loadConfig(cmd *cobra.Command, flags *cliFlags) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, &exitError{code: exitConfigError, err: err}
	}

	if cmd.Flags().Changed("submission") {
		cfg.SubmissionPath = flags.submission
	}
	if cmd.Flags().Changed("custom-data") {
		cfg.CustomDataPath = flags.customData
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir = flags.outputDir
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, &exitError{code: exitConfigError, err: err}
	}
	return cfg, nil
}

func newLogger(cfg config.Config) zerolog.Logger {
	return zerolog.New(os.Stdout).
		Level(cfg.Level()).
		With().
		Timestamp().
		Str("service", cfg.AppName).
		Logger()
}

func runGrade(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	app, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return &exitError{code: exitConfigError, err: err}
	}
	defer app.Close()

	_, runErr := app.service.Run(ctx)

	// Verdicts already dispatched are given a bounded chance to reach the
	// scoring endpoint, even after a failed run.
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.RemoteDrainTimeout)
	defer cancel()
	if err := app.remote.Drain(drainCtx); err != nil {
		logger.Warn().Err(err).Msg("abandoning remote submissions")
	}

	if runErr != nil {
		if service.IsSourceError(runErr) {
			return &exitError{code: exitSourceError, err: runErr}
		}
		return runErr
	}
	return nil
}
