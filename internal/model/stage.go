package model

import "time"

// StageStatus is the lifecycle state of a single pipeline stage.
type StageStatus string

const (
	StageStatusPending    StageStatus = "Pending"
	StageStatusInProgress StageStatus = "In Progress"
	StageStatusCompleted  StageStatus = "Completed"
	StageStatusError      StageStatus = "Error"
)

// Pipeline stage numbers
const (
	StageResumeAnalysis = 1
	StageAssessment     = 2
	StageInterview      = 3
)

var stageNames = map[int]string{
	StageResumeAnalysis: "Resume Analysis",
	StageAssessment:     "Assessment",
	StageInterview:      "Interview",
}

// StageName returns the display name for a stage number.
func StageName(step int) string {
	return stageNames[step]
}

// StageRecord is one entry of an application's stage ledger. The ledger
// holds exactly three records, one per pipeline stage, and is mutated
// only by the pipeline orchestrator.
type StageRecord struct {
	Step             int         `json:"step"`
	StepName         string      `json:"stepName"`
	StepStatus       StageStatus `json:"stepStatus"`
	Score            *float64    `json:"score,omitempty"`
	AssessmentSent   *bool       `json:"assessmentSent,omitempty"`
	AssessmentScore  *float64    `json:"assessmentScore,omitempty"`
	InterviewCreated *bool       `json:"interviewCreated,omitempty"`
	Error            *string     `json:"error,omitempty"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// StageUpdate carries the optional fields merged into a stage record on
// transition. Nil fields leave the record's current value untouched.
type StageUpdate struct {
	Score            *float64
	AssessmentSent   *bool
	AssessmentScore  *float64
	InterviewCreated *bool
	Error            *string
}

// NewStageLedger returns the initial three-record ledger, all Pending.
func NewStageLedger(now time.Time) []StageRecord {
	records := make([]StageRecord, 0, 3)
	for step := StageResumeAnalysis; step <= StageInterview; step++ {
		records = append(records, StageRecord{
			Step:       step,
			StepName:   StageName(step),
			StepStatus: StageStatusPending,
			UpdatedAt:  now,
		})
	}
	return records
}
