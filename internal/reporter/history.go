package reporter

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-grader/internal/models"
	"github.com/noah-isme/gema-grader/internal/repository"
)

// HistoryReporter stores a rendered copy of each run in the history database.
type HistoryReporter struct {
	runs           repository.GradingRunRepository
	submissionPath string
	logger         zerolog.Logger
}

// NewHistoryReporter builds a reporter backed by the grading run repository.
func NewHistoryReporter(runs repository.GradingRunRepository, submissionPath string, logger zerolog.Logger) *HistoryReporter {
	return &HistoryReporter{
		runs:           runs,
		submissionPath: submissionPath,
		logger:         logger.With().Str("component", "history_reporter").Logger(),
	}
}

// Name identifies the sink in logs and metrics.
func (r *HistoryReporter) Name() string {
	return "history"
}

// Record persists the run summary and one row per case.
func (r *HistoryReporter) Record(ctx context.Context, report models.GradingReport) error {
	earned, max := report.Score()
	run := models.GradingRun{
		RunID:            report.RunID,
		SubmissionPath:   r.submissionPath,
		EarnedScore:      earned,
		MaxScore:         max,
		PassedCases:      report.PassedCount(),
		TotalCases:       len(report.Entries),
		CustomDataLength: len(report.CustomData),
		Cases:            make([]models.GradingCase, 0, len(report.Entries)),
	}
	for _, entry := range report.Entries {
		run.Cases = append(run.Cases, models.NewGradingCase(entry))
	}

	if err := r.runs.Create(ctx, &run); err != nil {
		return fmt.Errorf("store grading run %s: %w", report.RunID, err)
	}

	r.logger.Debug().Str("run_id", report.RunID).Int("cases", len(run.Cases)).Msg("grading run stored")
	return nil
}
