package rules

import "github.com/noah-isme/gema-grader/internal/models"

const (
	RulePromiseCreation    = "PromiseCreation"
	RulePromiseChaining    = "PromiseChaining"
	RuleErrorHandling      = "ErrorHandling"
	RuleSequentialFetching = "SequentialFetching"
)

// DefaultCatalog returns the checklist for the promise-chaining fetch
// assignment, in reporting order.
func DefaultCatalog() []Rule {
	return []Rule{
		{
			Name:      RulePromiseCreation,
			Category:  models.CategoryFunctional,
			MaxScore:  1,
			Mandatory: true,
			Feedback:  "You must create a promise using the 'new Promise' constructor.",
			Predicate: Contains("new Promise"),
		},
		{
			Name:       RulePromiseChaining,
			CaseSuffix: "-promise-chaining",
			Category:   models.CategoryFunctional,
			MaxScore:   1,
			Mandatory:  true,
			Feedback:   "You must chain at least two promises using .then() for sequential operations.",
			Predicate:  MatchesAtLeast(`\.then`, 2),
		},
		{
			Name:       RuleErrorHandling,
			CaseSuffix: "-error-handling",
			Category:   models.CategoryFunctional,
			MaxScore:   1,
			Mandatory:  true,
			Feedback:   "You must use .catch() to handle any errors in your promise chain.",
			Predicate:  Contains(".catch("),
		},
		{
			Name:       RuleSequentialFetching,
			CaseSuffix: "-sequential-fetching",
			Category:   models.CategoryFunctional,
			MaxScore:   1,
			Mandatory:  true,
			Feedback:   "You must use fetch() to make asynchronous requests.",
			Predicate:  Contains("fetch("),
		},
	}
}
