package models

import (
	"time"

	"gorm.io/datatypes"
)

// GradingRun is the persisted summary of one grading run.
type GradingRun struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	RunID            string        `gorm:"size:64;uniqueIndex;not null" json:"run_id"`
	SubmissionPath   string        `gorm:"size:512" json:"submission_path"`
	EarnedScore      float64       `gorm:"not null" json:"earned_score"`
	MaxScore         float64       `gorm:"not null" json:"max_score"`
	PassedCases      int           `gorm:"not null" json:"passed_cases"`
	TotalCases       int           `gorm:"not null" json:"total_cases"`
	CustomDataLength int           `gorm:"default:0" json:"custom_data_length"`
	CreatedAt        time.Time     `json:"created_at"`
	Cases            []GradingCase `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"cases"`
}

// GradingCase is the persisted form of one verdict within a run.
type GradingCase struct {
	ID           uint                        `gorm:"primaryKey" json:"id"`
	GradingRunID uint                        `gorm:"index;not null" json:"grading_run_id"`
	CaseID       string                      `gorm:"size:128;not null" json:"case_id"`
	RuleName     string                      `gorm:"size:128;not null" json:"rule_name"`
	Category     string                      `gorm:"size:32;not null" json:"category"`
	Status       string                      `gorm:"size:16;not null" json:"status"`
	MaxScore     float64                     `gorm:"not null" json:"max_score"`
	EarnedScore  float64                     `gorm:"not null" json:"earned_score"`
	Mandatory    bool                        `json:"mandatory"`
	Feedback     datatypes.JSONSlice[string] `json:"feedback"`
	CreatedAt    time.Time                   `json:"created_at"`
}

// NewGradingCase converts a report entry into its persisted form.
func NewGradingCase(entry ReportEntry) GradingCase {
	return GradingCase{
		CaseID:      entry.CaseID,
		RuleName:    entry.Verdict.RuleName,
		Category:    string(entry.Verdict.Category),
		Status:      string(entry.Verdict.Status),
		MaxScore:    entry.Verdict.MaxScore,
		EarnedScore: entry.Verdict.EarnedScore,
		Mandatory:   entry.Verdict.Mandatory,
		Feedback:    datatypes.JSONSlice[string](entry.Verdict.Feedback),
	}
}
