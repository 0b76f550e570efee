package model

import "time"

// Outcome は求人の採用結果（İlan Sonuç）を表す。求人と1対1。
type Outcome struct {
	ID                  string
	PostingID           string
	Completed           bool
	CompletedAt         *time.Time
	TotalApplications   int
	InterviewedCount    int
	HiredCount          int
	HiredApplicationIDs []string
	Description         string
	SuccessScore        *int
	InternalEvaluation  string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Advisory は保存を妨げない運用者向けの注意事項を表す。
type Advisory struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// 注意事項コード
const (
	AdvisoryHiredCountMismatch = "HIRED_COUNT_MISMATCH"
	AdvisoryCancelledClosed    = "CANCELLED_POSTING_CLOSED"
)
