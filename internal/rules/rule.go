// Package rules holds the static checks applied to a submission and the
// engine that evaluates them.
package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/noah-isme/gema-grader/internal/models"
)

// Predicate inspects submission text. It must not keep state between calls.
type Predicate func(source string) (bool, error)

// Rule describes one static check and how its verdict is weighted.
type Rule struct {
	Name       string
	CaseSuffix string
	Category   models.Category
	MaxScore   float64
	Mandatory  bool
	Feedback   string
	Predicate  Predicate
}

// EvaluationError reports a rule that could not produce an answer.
type EvaluationError struct {
	Rule string
	Err  error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("rule %s could not be evaluated: %v", e.Rule, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// ErrNoPredicate is returned for rules built without a predicate.
var ErrNoPredicate = errors.New("rule has no predicate")

// Evaluate applies the rule to the source text. Predicate errors and panics
// become Fail verdicts carrying the reason as feedback.
func (r Rule) Evaluate(source string) (verdict models.RuleVerdict) {
	defer func() {
		if recovered := recover(); recovered != nil {
			evalErr := &EvaluationError{Rule: r.Name, Err: fmt.Errorf("panic: %v", recovered)}
			verdict = models.NewFailVerdict(r.Name, r.Category, r.MaxScore, r.Mandatory, evalErr.Error())
		}
	}()

	passed, err := r.check(source)
	if err != nil {
		evalErr := &EvaluationError{Rule: r.Name, Err: err}
		return models.NewFailVerdict(r.Name, r.Category, r.MaxScore, r.Mandatory, evalErr.Error())
	}
	if !passed {
		return models.NewFailVerdict(r.Name, r.Category, r.MaxScore, r.Mandatory, r.Feedback)
	}
	return models.NewPassVerdict(r.Name, r.Category, r.MaxScore, r.Mandatory)
}

func (r Rule) check(source string) (bool, error) {
	if r.Predicate == nil {
		return false, ErrNoPredicate
	}
	return r.Predicate(source)
}

func (r Rule) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("rule name must not be empty")
	}
	if !r.Category.Valid() {
		return fmt.Errorf("rule %s: unknown category %q", r.Name, r.Category)
	}
	if r.MaxScore <= 0 {
		return fmt.Errorf("rule %s: max score must be positive", r.Name)
	}
	return nil
}

// Contains passes when the text contains needle.
func Contains(needle string) Predicate {
	return func(source string) (bool, error) {
		return strings.Contains(source, needle), nil
	}
}

// MatchesAtLeast passes when pattern occurs at least min times.
func MatchesAtLeast(pattern string, min int) Predicate {
	re := regexp.MustCompile(pattern)
	return func(source string) (bool, error) {
		return len(re.FindAllStringIndex(source, min)) >= min, nil
	}
}
