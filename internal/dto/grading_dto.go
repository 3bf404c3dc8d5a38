package dto

import (
	"strings"

	"github.com/noah-isme/gema-grader/internal/models"
)

// RemoteCaseResult is the wire form of one verdict expected by the scoring endpoint.
type RemoteCaseResult struct {
	MethodName   string  `json:"methodName"`
	MethodType   string  `json:"methodType"`
	ActualScore  float64 `json:"actualScore"`
	EarnedScore  float64 `json:"earnedScore"`
	Status       string  `json:"status"`
	IsMandatory  bool    `json:"isMandatory"`
	ErrorMessage string  `json:"errorMessage"`
}

// RemoteEnvelope carries a single verdict and the custom data blob.
type RemoteEnvelope struct {
	TestCaseResults map[string]RemoteCaseResult `json:"testCaseResults"`
	CustomData      string                      `json:"customData"`
}

// NewRemoteCaseResult converts a verdict into its wire form.
func NewRemoteCaseResult(verdict models.RuleVerdict) RemoteCaseResult {
	return RemoteCaseResult{
		MethodName:   verdict.RuleName,
		MethodType:   string(verdict.Category),
		ActualScore:  verdict.MaxScore,
		EarnedScore:  verdict.EarnedScore,
		Status:       string(verdict.Status),
		IsMandatory:  verdict.Mandatory,
		ErrorMessage: strings.Join(verdict.Feedback, ", "),
	}
}

// NewRemoteEnvelope wraps one report entry for submission.
func NewRemoteEnvelope(entry models.ReportEntry, customData string) RemoteEnvelope {
	return RemoteEnvelope{
		TestCaseResults: map[string]RemoteCaseResult{
			entry.CaseID: NewRemoteCaseResult(entry.Verdict),
		},
		CustomData: customData,
	}
}

// CaseID returns the single case identifier carried by the envelope.
func (e RemoteEnvelope) CaseID() string {
	for id := range e.TestCaseResults {
		return id
	}
	return ""
}

// GradeRequest is the payload accepted by the grading API.
type GradeRequest struct {
	Source     string `json:"source" validate:"required,min=1"`
	CustomData string `json:"customData"`
}

// GradeCaseResponse describes one graded case.
type GradeCaseResponse struct {
	CaseID      string   `json:"caseId"`
	RuleName    string   `json:"ruleName"`
	Category    string   `json:"category"`
	Status      string   `json:"status"`
	MaxScore    float64  `json:"maxScore"`
	EarnedScore float64  `json:"earnedScore"`
	Mandatory   bool     `json:"mandatory"`
	Feedback    []string `json:"feedback"`
}

// GradeResponse describes the outcome of grading a source snippet.
type GradeResponse struct {
	RunID       string              `json:"runId"`
	SyntaxValid bool                `json:"syntaxValid"`
	SyntaxError string              `json:"syntaxError,omitempty"`
	Earned      float64             `json:"earned"`
	Max         float64             `json:"max"`
	Passed      int                 `json:"passed"`
	Cases       []GradeCaseResponse `json:"cases"`
}

// NewGradeResponse builds the API response from a report.
func NewGradeResponse(report models.GradingReport, syntaxErr error) GradeResponse {
	earned, max := report.Score()
	response := GradeResponse{
		RunID:       report.RunID,
		SyntaxValid: syntaxErr == nil,
		Earned:      earned,
		Max:         max,
		Passed:      report.PassedCount(),
		Cases:       make([]GradeCaseResponse, 0, len(report.Entries)),
	}
	if syntaxErr != nil {
		response.SyntaxError = syntaxErr.Error()
	}

	for _, entry := range report.Entries {
		response.Cases = append(response.Cases, GradeCaseResponse{
			CaseID:      entry.CaseID,
			RuleName:    entry.Verdict.RuleName,
			Category:    string(entry.Verdict.Category),
			Status:      string(entry.Verdict.Status),
			MaxScore:    entry.Verdict.MaxScore,
			EarnedScore: entry.Verdict.EarnedScore,
			Mandatory:   entry.Verdict.Mandatory,
			Feedback:    entry.Verdict.Feedback,
		})
	}

	return response
}
