package reporter

import (
	"encoding/xml"
	"fmt"

	"github.com/noah-isme/gema-grader/internal/models"
)

type xmlCase struct {
	XMLName      xml.Name `xml:"case"`
	TestCaseType string   `xml:"test-case-type"`
	Name         string   `xml:"name"`
	Status       string   `xml:"status"`
}

// XMLReporter appends one <case> fragment per verdict to a report file.
// The file has no enclosing root; each run starts from a reset file.
type XMLReporter struct {
	path string
}

// NewXMLReporter builds a reporter appending to path.
func NewXMLReporter(path string) *XMLReporter {
	return &XMLReporter{path: path}
}

// Render returns the <case> fragment for a verdict.
func (r *XMLReporter) Render(verdict models.RuleVerdict) ([]byte, error) {
	fragment, err := xml.Marshal(xmlCase{
		TestCaseType: string(verdict.Status),
		Name:         verdict.RuleName,
		Status:       string(verdict.Status),
	})
	if err != nil {
		return nil, fmt.Errorf("render xml case %s: %w", verdict.RuleName, err)
	}
	return fragment, nil
}

// Append renders the verdict and appends it to the report file.
func (r *XMLReporter) Append(verdict models.RuleVerdict) error {
	fragment, err := r.Render(verdict)
	if err != nil {
		return err
	}
	return appendFile(r.path, append(fragment, '\n'))
}
