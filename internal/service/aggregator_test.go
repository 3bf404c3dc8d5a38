package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-grader/internal/models"
	"github.com/noah-isme/gema-grader/internal/rules"
)

const testBaseCaseID = "d805050e-a0d8-49b0-afbd-46a486105170"

func TestAggregatorDerivesCaseIDs(t *testing.T) {
	engine, err := rules.NewEngine(rules.DefaultCatalog(), zerolog.Nop())
	require.NoError(t, err)

	aggregator := NewResultAggregator(testBaseCaseID, zerolog.Nop())
	report := aggregator.Aggregate("run-1", engine.Evaluate(context.Background(), ""), "payload")

	require.Equal(t, "run-1", report.RunID)
	require.Equal(t, "payload", report.CustomData)
	require.Len(t, report.Entries, 4)

	ids := make([]string, 0, len(report.Entries))
	for _, entry := range report.Entries {
		ids = append(ids, entry.CaseID)
	}
	require.Equal(t, []string{
		testBaseCaseID,
		testBaseCaseID + "-promise-chaining",
		testBaseCaseID + "-error-handling",
		testBaseCaseID + "-sequential-fetching",
	}, ids)

	verdict, ok := report.Verdict(testBaseCaseID + "-error-handling")
	require.True(t, ok)
	require.Equal(t, rules.RuleErrorHandling, verdict.RuleName)
	require.Equal(t, models.VerdictStatusFail, verdict.Status)
}

func TestAggregatorReadCustomData(t *testing.T) {
	aggregator := NewResultAggregator(testBaseCaseID, zerolog.Nop())

	path := filepath.Join(t.TempDir(), "custom.ih")
	require.NoError(t, os.WriteFile(path, []byte("  opaque <data>\n"), 0o644))
	require.Equal(t, "  opaque <data>\n", aggregator.ReadCustomData(path))

	require.Empty(t, aggregator.ReadCustomData(filepath.Join(t.TempDir(), "missing.ih")))
}
