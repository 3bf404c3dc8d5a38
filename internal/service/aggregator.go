package service

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-grader/internal/models"
	"github.com/noah-isme/gema-grader/internal/rules"
)

// ResultAggregator turns rule outcomes into a grading report.
type ResultAggregator struct {
	baseCaseID string
	logger     zerolog.Logger
}

// NewResultAggregator builds an aggregator deriving case ids from baseCaseID.
func NewResultAggregator(baseCaseID string, logger zerolog.Logger) *ResultAggregator {
	return &ResultAggregator{
		baseCaseID: baseCaseID,
		logger:     logger.With().Str("component", "result_aggregator").Logger(),
	}
}

// CaseID returns the identifier used for a rule's verdict.
func (a *ResultAggregator) CaseID(rule rules.Rule) string {
	return a.baseCaseID + rule.CaseSuffix
}

// Aggregate keys each outcome by its case identifier, keeping rule order.
func (a *ResultAggregator) Aggregate(runID string, outcomes []rules.Outcome, customData string) models.GradingReport {
	report := models.GradingReport{
		RunID:      runID,
		Entries:    make([]models.ReportEntry, 0, len(outcomes)),
		CustomData: customData,
	}
	for _, outcome := range outcomes {
		report.Entries = append(report.Entries, models.ReportEntry{
			CaseID:  a.CaseID(outcome.Rule),
			Verdict: outcome.Verdict,
		})
	}
	return report
}

// ReadCustomData returns the auxiliary payload at path, or "" when it cannot
// be read. The content is not interpreted.
func (a *ResultAggregator) ReadCustomData(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		a.logger.Warn().Err(err).Str("path", path).Msg("failed to read custom data file")
		return ""
	}
	return string(data)
}
