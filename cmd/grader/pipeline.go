package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-grader/internal/config"
	"github.com/noah-isme/gema-grader/internal/database"
	"github.com/noah-isme/gema-grader/internal/models"
	"github.com/noah-isme/gema-grader/internal/reporter"
	"github.com/noah-isme/gema-grader/internal/repository"
	"github.com/noah-isme/gema-grader/internal/rules"
	"github.com/noah-isme/gema-grader/internal/service"
	"github.com/noah-isme/gema-grader/pkg/jsparse"
)

// pipeline holds the wired grading service and the resources it owns.
type pipeline struct {
	service service.GradingService
	remote  *reporter.RemoteReporter
	closers []func()
}

// Close releases broker and database connections in reverse order.
func (p *pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
}

// newCoreDependencies wires the parts shared by file runs and the API: the
// rule catalog, loader, syntax validator and aggregator. It touches no output
// files and opens no connections.
func newCoreDependencies(cfg config.Config, logger zerolog.Logger) (service.GradingDependencies, error) {
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return service.GradingDependencies{}, err
	}

	engine, err := rules.NewEngine(catalog, logger)
	if err != nil {
		return service.GradingDependencies{}, err
	}

	return service.GradingDependencies{
		Loader:     service.NewSourceLoader(),
		Validator:  jsparse.NewValidator(),
		Engine:     engine,
		Aggregator: service.NewResultAggregator(cfg.BaseCaseID, logger),
	}, nil
}

// buildAPIService returns an in-memory grading service and its rule count.
func buildAPIService(cfg config.Config, logger zerolog.Logger) (service.GradingService, int, error) {
	deps, err := newCoreDependencies(cfg, logger)
	if err != nil {
		return nil, 0, err
	}
	return service.NewGradingService(deps, service.GradingConfig{}, logger), len(deps.Engine.Rules()), nil
}

func buildPipeline(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*pipeline, error) {
	deps, err := newCoreDependencies(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	p := &pipeline{
		remote: reporter.NewRemoteReporter(reporter.RemoteConfig{
			Endpoint: cfg.RemoteEndpoint,
			Timeout:  cfg.RemoteTimeout,
			Logger:   logger,
		}),
	}

	deps.Artifacts = service.NewArtifactLifecycle(cfg.ArtifactPaths(), logger)
	deps.Remote = p.remote
	deps.XML = reporter.NewXMLReporter(cfg.OutputPath(config.XMLReportFile))
	deps.Text = reporter.NewTextReporter(map[models.Category]string{
		models.CategoryFunctional: cfg.OutputPath(config.FunctionalOutputFile),
		models.CategoryBoundary:   cfg.OutputPath(config.BoundaryOutputFile),
		models.CategoryException:  cfg.OutputPath(config.ExceptionOutputFile),
	})
	deps.Recorders = p.connectRecorders(ctx, cfg, logger)

	p.service = service.NewGradingService(deps, service.GradingConfig{
		SubmissionPath: cfg.SubmissionPath,
		CustomDataPath: cfg.CustomDataPath,
	}, logger)

	return p, nil
}

func loadCatalog(cfg config.Config) ([]rules.Rule, error) {
	catalog := rules.DefaultCatalog()
	if cfg.RuleOverridesPath == "" {
		return catalog, nil
	}

	overrides, err := rules.LoadOverrides(cfg.RuleOverridesPath)
	if err != nil {
		return nil, err
	}
	return overrides.Apply(catalog)
}

// connectRecorders opens the optional history and event sinks. A sink that
// cannot connect is skipped so grading still completes.
func (p *pipeline) connectRecorders(ctx context.Context, cfg config.Config, logger zerolog.Logger) []service.RunRecorder {
	var recorders []service.RunRecorder

	if cfg.HistoryDSN != "" {
		if history, err := p.connectHistory(cfg, logger); err != nil {
			logger.Error().Err(err).Msg("run history disabled")
		} else {
			recorders = append(recorders, history)
		}
	}

	if cfg.EventsRedisURL == "" && cfg.EventsNATSURL == "" {
		return recorders
	}

	events := p.connectEvents(ctx, cfg, logger)
	if events != nil {
		recorders = append(recorders, events)
	}
	return recorders
}

func (p *pipeline) connectHistory(cfg config.Config, logger zerolog.Logger) (*reporter.HistoryReporter, error) {
	db, err := database.Connect(cfg.HistoryDSN)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("history database handle: %w", err)
	}
	p.closers = append(p.closers, func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	return reporter.NewHistoryReporter(repository.NewGradingRunRepository(db), cfg.SubmissionPath, logger), nil
}

func (p *pipeline) connectEvents(ctx context.Context, cfg config.Config, logger zerolog.Logger) *reporter.EventReporter {
	redisClient, natsConn := connectBrokers(ctx, cfg, logger)
	if redisClient == nil && natsConn == nil {
		return nil
	}

	if redisClient != nil {
		p.closers = append(p.closers, func() { _ = redisClient.Close() })
	}
	if natsConn != nil {
		p.closers = append(p.closers, func() {
			if err := natsConn.Drain(); err != nil {
				natsConn.Close()
			}
		})
	}

	return reporter.NewEventReporter(redisClient, natsConn, cfg.EventsChannel, logger)
}
