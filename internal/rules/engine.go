package rules

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-grader/internal/models"
	"github.com/noah-isme/gema-grader/internal/observability"
)

// Outcome is the verdict produced by one rule during a run.
type Outcome struct {
	Rule    Rule
	Verdict models.RuleVerdict
}

// Engine evaluates an ordered rule set against submission text.
type Engine struct {
	rules  []Rule
	logger zerolog.Logger
	tracer trace.Tracer
}

// NewEngine validates the catalog and builds an engine over a copy of it.
// Rule names and case suffixes must be unique.
func NewEngine(catalog []Rule, logger zerolog.Logger) (*Engine, error) {
	names := make(map[string]struct{}, len(catalog))
	suffixes := make(map[string]struct{}, len(catalog))
	for _, rule := range catalog {
		if err := rule.validate(); err != nil {
			return nil, err
		}
		if _, ok := names[rule.Name]; ok {
			return nil, fmt.Errorf("duplicate rule name %q", rule.Name)
		}
		if _, ok := suffixes[rule.CaseSuffix]; ok {
			return nil, fmt.Errorf("rule %s: duplicate case suffix %q", rule.Name, rule.CaseSuffix)
		}
		names[rule.Name] = struct{}{}
		suffixes[rule.CaseSuffix] = struct{}{}
	}

	rules := make([]Rule, len(catalog))
	copy(rules, catalog)

	return &Engine{
		rules:  rules,
		logger: logger.With().Str("component", "rule_engine").Logger(),
		tracer: otel.Tracer("github.com/noah-isme/gema-grader/internal/rules"),
	}, nil
}

// Rules returns the configured rules in evaluation order.
func (e *Engine) Rules() []Rule {
	rules := make([]Rule, len(e.rules))
	copy(rules, e.rules)
	return rules
}

// Evaluate runs every rule against source and returns one outcome per rule.
func (e *Engine) Evaluate(ctx context.Context, source string) []Outcome {
	_, span := e.tracer.Start(ctx, "rules.evaluate", trace.WithAttributes(
		attribute.Int("rules.count", len(e.rules)),
		attribute.Int("source.bytes", len(source)),
	))
	defer span.End()

	outcomes := make([]Outcome, 0, len(e.rules))
	for _, rule := range e.rules {
		verdict := rule.Evaluate(source)
		observability.Verdicts().WithLabelValues(rule.Name, string(verdict.Status)).Inc()

		e.logger.Debug().
			Str("rule", rule.Name).
			Str("status", string(verdict.Status)).
			Msg("rule evaluated")

		outcomes = append(outcomes, Outcome{Rule: rule, Verdict: verdict})
	}

	return outcomes
}
