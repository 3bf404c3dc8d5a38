// Package reporter renders grading verdicts to files, remote services and
// message brokers.
package reporter

import (
	"fmt"
	"os"

	"github.com/noah-isme/gema-grader/internal/models"
)

// TextReporter appends name=PASS|FAIL lines to one file per category.
type TextReporter struct {
	paths map[models.Category]string
}

// NewTextReporter builds a reporter writing each category to its own path.
func NewTextReporter(paths map[models.Category]string) *TextReporter {
	copied := make(map[models.Category]string, len(paths))
	for category, path := range paths {
		copied[category] = path
	}
	return &TextReporter{paths: copied}
}

// Line formats the text report line for a verdict.
func (r *TextReporter) Line(verdict models.RuleVerdict) string {
	return fmt.Sprintf("%s=%s\n", verdict.RuleName, verdict.Status.Label())
}

// Write appends the verdict line to the file of the verdict's category.
func (r *TextReporter) Write(verdict models.RuleVerdict) error {
	path, ok := r.paths[verdict.Category]
	if !ok {
		return fmt.Errorf("no text output configured for category %q", verdict.Category)
	}
	return appendFile(path, []byte(r.Line(verdict)))
}

func appendFile(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return fmt.Errorf("append %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
