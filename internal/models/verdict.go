package models

import "fmt"

// VerdictStatus is the pass/fail outcome of a rule.
type VerdictStatus string

const (
	// VerdictStatusPass marks a rule whose full score was earned.
	VerdictStatusPass VerdictStatus = "Pass"
	// VerdictStatusFail marks a rule that earned nothing.
	VerdictStatusFail VerdictStatus = "Fail"
)

// Label returns the upper-case form written to the text reports.
func (s VerdictStatus) Label() string {
	if s == VerdictStatusPass {
		return "PASS"
	}
	return "FAIL"
}

// Category groups rules by the kind of behaviour they check.
type Category string

const (
	CategoryFunctional Category = "functional"
	CategoryBoundary   Category = "boundary"
	CategoryException  Category = "exception"
)

// Valid reports whether the category is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryFunctional, CategoryBoundary, CategoryException:
		return true
	default:
		return false
	}
}

// RuleVerdict is the outcome of one rule applied to one submission.
// Build it through NewPassVerdict or NewFailVerdict so that Status,
// EarnedScore and Feedback stay consistent.
type RuleVerdict struct {
	RuleName    string        `json:"rule_name"`
	Category    Category      `json:"category"`
	MaxScore    float64       `json:"max_score"`
	EarnedScore float64       `json:"earned_score"`
	Status      VerdictStatus `json:"status"`
	Mandatory   bool          `json:"mandatory"`
	Feedback    []string      `json:"feedback"`
}

// NewPassVerdict returns a verdict that earned the full score.
func NewPassVerdict(ruleName string, category Category, maxScore float64, mandatory bool) RuleVerdict {
	return RuleVerdict{
		RuleName:    ruleName,
		Category:    category,
		MaxScore:    maxScore,
		EarnedScore: maxScore,
		Status:      VerdictStatusPass,
		Mandatory:   mandatory,
		Feedback:    []string{},
	}
}

// NewFailVerdict returns a verdict that earned nothing. A generic remark is
// recorded when no feedback is supplied.
func NewFailVerdict(ruleName string, category Category, maxScore float64, mandatory bool, feedback ...string) RuleVerdict {
	remarks := make([]string, 0, len(feedback))
	for _, item := range feedback {
		if item != "" {
			remarks = append(remarks, item)
		}
	}
	if len(remarks) == 0 {
		remarks = append(remarks, fmt.Sprintf("%s did not pass", ruleName))
	}

	return RuleVerdict{
		RuleName:    ruleName,
		Category:    category,
		MaxScore:    maxScore,
		EarnedScore: 0,
		Status:      VerdictStatusFail,
		Mandatory:   mandatory,
		Feedback:    remarks,
	}
}

// Passed reports whether the verdict is a pass.
func (v RuleVerdict) Passed() bool {
	return v.Status == VerdictStatusPass
}

// Consistent reports whether status, score and feedback agree with each other.
func (v RuleVerdict) Consistent() bool {
	if v.MaxScore <= 0 {
		return false
	}
	switch v.Status {
	case VerdictStatusPass:
		return v.EarnedScore == v.MaxScore && len(v.Feedback) == 0
	case VerdictStatusFail:
		return v.EarnedScore == 0 && len(v.Feedback) > 0
	default:
		return false
	}
}
