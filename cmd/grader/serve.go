package main

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-grader/internal/config"
	"github.com/noah-isme/gema-grader/internal/handler"
	"github.com/noah-isme/gema-grader/internal/middleware"
	"github.com/noah-isme/gema-grader/internal/router"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the grading API over HTTP",
		Long: `Starts an HTTP server exposing:
  GET  /api/v1/health  service status
  POST /api/v1/grade   grade {"source", "customData"} in memory
  GET  /metrics        Prometheus metrics

Set GRADER_SERVER_JWT_SECRET to require bearer tokens on /api/v1/grade.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, newLogger(cfg))
		},
	}
}

// newServer wires the grading API. It grades in memory, so it creates no
// output files and opens no history or broker connections.
func newServer(cfg config.Config, logger zerolog.Logger) (*fiber.App, error) {
	grading, ruleCount, err := buildAPIService(cfg, logger)
	if err != nil {
		return nil, &exitError{code: exitConfigError, err: err}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	deps := router.Dependencies{
		GradingHandler: handler.NewGradingHandler(grading, validate, logger),
		RuleCount:      ruleCount,
	}
	if cfg.JWTSecret != "" {
		deps.JWTMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}

	server := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		ServerHeader:          cfg.AppName,
		DisableStartupMessage: true,
	})
	middleware.Register(server, middleware.Config{Logger: logger})
	router.Register(server, cfg, deps)

	return server, nil
}

func runServe(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	server, err := newServer(cfg, logger)
	if err != nil {
		return err
	}

	listenErr := make(chan error, 1)
	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Msg("grading api listening")
		listenErr <- server.Listen(cfg.HTTPAddress())
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
