package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-grader/internal/dto"
	"github.com/noah-isme/gema-grader/internal/models"
	"github.com/noah-isme/gema-grader/internal/observability"
	"github.com/noah-isme/gema-grader/internal/rules"
)

// SyntaxValidator confirms submission text parses.
type SyntaxValidator interface {
	Validate(ctx context.Context, source string) error
}

// RemoteSubmitter dispatches one verdict envelope without waiting for it.
type RemoteSubmitter interface {
	Submit(ctx context.Context, envelope dto.RemoteEnvelope)
}

// TextWriter appends a verdict line to the category text report.
type TextWriter interface {
	Write(verdict models.RuleVerdict) error
}

// XMLWriter appends a verdict fragment to the XML report.
type XMLWriter interface {
	Append(verdict models.RuleVerdict) error
}

// RunRecorder receives the finished report of a run.
type RunRecorder interface {
	Name() string
	Record(ctx context.Context, report models.GradingReport) error
}

// GradingConfig holds the input paths of a file-based run.
type GradingConfig struct {
	SubmissionPath string
	CustomDataPath string
}

// GradingDependencies groups the collaborators of the grading service.
// Remote, XML, Text and Recorders are optional.
type GradingDependencies struct {
	Artifacts  *ArtifactLifecycle
	Loader     *SourceLoader
	Validator  SyntaxValidator
	Engine     *rules.Engine
	Aggregator *ResultAggregator
	Remote     RemoteSubmitter
	XML        XMLWriter
	Text       TextWriter
	Recorders  []RunRecorder
}

// GradeResult is the outcome of grading source text in memory.
type GradeResult struct {
	Report    models.GradingReport
	SyntaxErr error
}

// GradingService runs the grading pipeline.
type GradingService interface {
	Run(ctx context.Context) (models.GradingReport, error)
	Grade(ctx context.Context, source, customData string) GradeResult
}

type gradingService struct {
	deps   GradingDependencies
	config GradingConfig
	logger zerolog.Logger
	tracer trace.Tracer
	newID  func() string
}

// NewGradingService constructs the grading pipeline.
func NewGradingService(deps GradingDependencies, cfg GradingConfig, logger zerolog.Logger) GradingService {
	return &gradingService{
		deps:   deps,
		config: cfg,
		logger: logger.With().Str("component", "grading_service").Logger(),
		tracer: otel.Tracer("github.com/noah-isme/gema-grader/internal/service/grading"),
		newID:  uuid.NewString,
	}
}

// Run resets previous artifacts, grades the submission file and fans the
// report out to every sink. Only a failure to load the submission is
// returned; remote submissions may still be in flight when Run returns.
func (s *gradingService) Run(parent context.Context) (models.GradingReport, error) {
	runID := s.newID()
	ctx, span := s.tracer.Start(parent, "grading.run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.String("submission.path", s.config.SubmissionPath),
	))
	defer span.End()

	logger := s.logger.With().Str("run_id", runID).Logger()

	if s.deps.Artifacts != nil {
		deleted := s.deps.Artifacts.Reset()
		logger.Debug().Int("deleted", len(deleted)).Msg("previous artifacts reset")
	}

	source, err := s.deps.Loader.Load(s.config.SubmissionPath)
	if err != nil {
		observability.Runs().WithLabelValues("source_error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error().Err(err).Str("path", s.config.SubmissionPath).Msg("failed to read submission")
		return models.GradingReport{}, err
	}

	outcomes, syntaxErr := s.evaluate(ctx, source)
	if syntaxErr != nil {
		logger.Warn().Err(syntaxErr).Msg("submission is not valid javascript, grading raw text")
	}

	customData := s.deps.Aggregator.ReadCustomData(s.config.CustomDataPath)
	report := s.deps.Aggregator.Aggregate(runID, outcomes, customData)

	s.dispatch(ctx, report, logger)
	s.record(ctx, report, logger)

	earned, max := report.Score()
	logger.Info().
		Float64("earned", earned).
		Float64("max", max).
		Int("passed", report.PassedCount()).
		Int("total", len(report.Entries)).
		Strs("mandatory_failures", report.MandatoryFailures()).
		Msg("grading completed")

	observability.Runs().WithLabelValues("completed").Inc()
	return report, nil
}

// Grade evaluates source in memory without touching any sink.
func (s *gradingService) Grade(ctx context.Context, source, customData string) GradeResult {
	runID := s.newID()
	ctx, span := s.tracer.Start(ctx, "grading.grade", trace.WithAttributes(
		attribute.String("run.id", runID),
	))
	defer span.End()

	outcomes, syntaxErr := s.evaluate(ctx, source)
	report := s.deps.Aggregator.Aggregate(runID, outcomes, customData)
	observability.Runs().WithLabelValues("graded").Inc()

	return GradeResult{Report: report, SyntaxErr: syntaxErr}
}

func (s *gradingService) evaluate(ctx context.Context, source string) ([]rules.Outcome, error) {
	var syntaxErr error
	if s.deps.Validator != nil {
		syntaxErr = s.deps.Validator.Validate(ctx, source)
	}
	return s.deps.Engine.Evaluate(ctx, source), syntaxErr
}

func (s *gradingService) dispatch(ctx context.Context, report models.GradingReport, logger zerolog.Logger) {
	for _, entry := range report.Entries {
		verdict := entry.Verdict
		event := logger.Info()
		if !verdict.Passed() {
			event = logger.Warn().Str("feedback", strings.Join(verdict.Feedback, ", "))
		}
		event.Str("case_id", entry.CaseID).Str("rule", verdict.RuleName).Str("status", string(verdict.Status)).Msg("rule verdict")

		if s.deps.Remote != nil {
			s.deps.Remote.Submit(ctx, dto.NewRemoteEnvelope(entry, report.CustomData))
		}

		if s.deps.XML != nil {
			if err := s.deps.XML.Append(verdict); err != nil {
				s.sinkFailed(logger, "xml", entry.CaseID, err)
			}
		}

		if s.deps.Text != nil {
			if err := s.deps.Text.Write(verdict); err != nil {
				s.sinkFailed(logger, "text", entry.CaseID, err)
			}
		}
	}
}

func (s *gradingService) record(ctx context.Context, report models.GradingReport, logger zerolog.Logger) {
	for _, recorder := range s.deps.Recorders {
		if err := recorder.Record(ctx, report); err != nil {
			s.sinkFailed(logger, recorder.Name(), "", err)
		}
	}
}

func (s *gradingService) sinkFailed(logger zerolog.Logger, sink, caseID string, err error) {
	observability.SinkErrors().WithLabelValues(sink).Inc()
	event := logger.Error().Err(err).Str("sink", sink)
	if caseID != "" {
		event = event.Str("case_id", caseID)
	}
	event.Msg("failed to write report")
}

// IsSourceError reports whether err came from loading the submission.
func IsSourceError(err error) bool {
	return errors.Is(err, ErrSourceUnreadable)
}
