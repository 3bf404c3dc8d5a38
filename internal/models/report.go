package models

// ReportEntry pairs a verdict with its case identifier.
type ReportEntry struct {
	CaseID  string      `json:"case_id"`
	Verdict RuleVerdict `json:"verdict"`
}

// GradingReport aggregates every verdict produced by one grading run.
// Entries keep the rule enumeration order; CustomData is forwarded verbatim.
type GradingReport struct {
	RunID      string        `json:"run_id"`
	Entries    []ReportEntry `json:"entries"`
	CustomData string        `json:"custom_data"`
}

// Results returns the verdicts keyed by case identifier.
func (r GradingReport) Results() map[string]RuleVerdict {
	results := make(map[string]RuleVerdict, len(r.Entries))
	for _, entry := range r.Entries {
		results[entry.CaseID] = entry.Verdict
	}
	return results
}

// Verdict looks up a verdict by case identifier.
func (r GradingReport) Verdict(caseID string) (RuleVerdict, bool) {
	for _, entry := range r.Entries {
		if entry.CaseID == caseID {
			return entry.Verdict, true
		}
	}
	return RuleVerdict{}, false
}

// Score returns the earned and maximum totals across all verdicts.
func (r GradingReport) Score() (earned, max float64) {
	for _, entry := range r.Entries {
		earned += entry.Verdict.EarnedScore
		max += entry.Verdict.MaxScore
	}
	return earned, max
}

// PassedCount returns how many verdicts passed.
func (r GradingReport) PassedCount() int {
	count := 0
	for _, entry := range r.Entries {
		if entry.Verdict.Passed() {
			count++
		}
	}
	return count
}

// MandatoryFailures lists the names of mandatory rules that failed.
func (r GradingReport) MandatoryFailures() []string {
	var names []string
	for _, entry := range r.Entries {
		if entry.Verdict.Mandatory && !entry.Verdict.Passed() {
			names = append(names, entry.Verdict.RuleName)
		}
	}
	return names
}
