package model

import "time"

// ApplicationStatus は応募の選考状態を表す。
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "beklemede"
	ApplicationReviewed  ApplicationStatus = "incelendi"
	ApplicationInterview ApplicationStatus = "musakat"
	ApplicationRejected  ApplicationStatus = "red"
	ApplicationAccepted  ApplicationStatus = "kabul"
	ApplicationCancelled ApplicationStatus = "iptal"
)

// IsValid は選考状態が定義済みの値かを判定する。
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationPending, ApplicationReviewed, ApplicationInterview,
		ApplicationRejected, ApplicationAccepted, ApplicationCancelled:
		return true
	}
	return false
}

// 評価スコアの許容範囲
const (
	ScoreMin = 1
	ScoreMax = 10
)

// Application は市民による求人への応募を表す。
// (PostingID, CitizenID)の組で一意。
type Application struct {
	ID           string
	ExternalID   string
	PostingID    string
	CitizenID    string
	ResumePath   string
	CoverLetter  string
	Status       ApplicationStatus
	Evaluation   string
	Score        *int
	IsRead       bool
	IsFavorite   bool
	AppliedAt    time.Time
	UpdatedAt    time.Time
	LastActionAt *time.Time
}

// StampStatusChange は更新前の行と比較し、状態が変化した場合のみ
// 最終処理日時を記録する。状態以外の変更では最終処理日時を変更しない。
func (a *Application) StampStatusChange(previous *Application, now time.Time) bool {
	if previous == nil {
		return false
	}
	if previous.Status == a.Status {
		a.LastActionAt = previous.LastActionAt
		return false
	}
	t := now
	a.LastActionAt = &t
	return true
}

// ApplicationFilter は応募一覧の絞り込み条件。
type ApplicationFilter struct {
	PostingID  string
	CitizenID  string
	Status     ApplicationStatus
	IsRead     *bool
	IsFavorite *bool
	Limit      uint64
	Offset     uint64
}

// Answer はスクリーニング質問への回答を表す。
// (ApplicationID, QuestionID)の組で一意。
type Answer struct {
	ID            string
	ApplicationID string
	QuestionID    string
	Answer        string
}
