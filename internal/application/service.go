// Package application は求人への応募と選考状態の管理を提供する。
package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/istihdam/internal/metrics"
	"github.com/hitoshi/istihdam/internal/model"
	"github.com/hitoshi/istihdam/internal/repository"
)

// yes/no形式の質問で受け付ける回答
const (
	AnswerYes = "evet"
	AnswerNo  = "hayir"
)

// AnswerInput はスクリーニング質問への回答の入力。
type AnswerInput struct {
	QuestionID string
	Answer     string
}

// SubmitInput は応募の入力。ResumePathの省略時は市民プロフィールの履歴書を使う。
type SubmitInput struct {
	ResumePath  string
	CoverLetter string
	Answers     []AnswerInput
}

// ReviewInput は企業・管理者による選考情報の更新入力。
type ReviewInput struct {
	Status     model.ApplicationStatus
	Evaluation string
	Score      *int
	IsRead     bool
	IsFavorite bool
}

// Service は応募のサービス層。
type Service struct {
	repo        repository.ApplicationRepository
	postingRepo repository.PostingRepository
	citizenRepo repository.CitizenRepository
	metrics     metrics.MetricsCollector
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.ApplicationRepository,
	postingRepo repository.PostingRepository,
	citizenRepo repository.CitizenRepository,
	m metrics.MetricsCollector,
) *Service {
	if m == nil {
		m = metrics.Nop{}
	}
	return &Service{
		repo:        repo,
		postingRepo: postingRepo,
		citizenRepo: citizenRepo,
		metrics:     m,
		now:         time.Now,
	}
}

// Submit は市民の応募を受け付ける。
// 求人が公開中かつ応募期間内であること、回答が同じ求人の質問を参照すること、
// 必須質問に回答があることを検証する。応募数の加算は応募の作成と同一トランザクションで行う。
func (s *Service) Submit(ctx context.Context, postingID, citizenID string, in SubmitInput) (*model.Application, error) {
	posting, err := s.postingRepo.FindByID(ctx, postingID)
	if err != nil {
		return nil, fmt.Errorf("求人の取得に失敗しました: %w", err)
	}
	if posting == nil {
		return nil, model.NewNotFoundError("求人", postingID)
	}
	now := s.now()
	if ok, reason := posting.AcceptsApplications(now); !ok {
		return nil, model.NewApplicationClosedError(reason)
	}

	citizen, err := s.citizenRepo.FindByID(ctx, citizenID)
	if err != nil {
		return nil, fmt.Errorf("市民プロフィールの取得に失敗しました: %w", err)
	}
	if citizen == nil {
		return nil, model.NewNotFoundError("市民", citizenID)
	}

	existing, err := s.repo.FindByPostingAndCitizen(ctx, postingID, citizenID)
	if err != nil {
		return nil, fmt.Errorf("応募の確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewUniqueViolationError("applications_posting_citizen_key")
	}

	questions, err := s.postingRepo.ListQuestions(ctx, postingID)
	if err != nil {
		return nil, fmt.Errorf("質問の取得に失敗しました: %w", err)
	}

	app := &model.Application{
		ID:          uuid.New().String(),
		ExternalID:  uuid.New().String(),
		PostingID:   postingID,
		CitizenID:   citizenID,
		ResumePath:  in.ResumePath,
		CoverLetter: strings.TrimSpace(in.CoverLetter),
		Status:      model.ApplicationPending,
		AppliedAt:   now,
		UpdatedAt:   now,
	}
	if app.ResumePath == "" {
		app.ResumePath = citizen.ResumePath
	}

	answers, err := buildAnswers(app.ID, questions, in.Answers)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, app, answers); err != nil {
		return nil, fmt.Errorf("応募の作成に失敗しました: %w", err)
	}

	s.metrics.RecordApplicationSubmitted()
	slog.Info("application submitted",
		slog.String("application_id", app.ID),
		slog.String("posting_id", postingID),
		slog.String("citizen_id", citizenID),
		slog.Int("answers", len(answers)),
	)
	return app, nil
}

// buildAnswers は回答を質問と照合し、保存用のAnswerに変換する。
func buildAnswers(applicationID string, questions []*model.ScreeningQuestion, inputs []AnswerInput) ([]*model.Answer, error) {
	byID := make(map[string]*model.ScreeningQuestion, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	answered := make(map[string]bool, len(inputs))
	answers := make([]*model.Answer, 0, len(inputs))
	for _, in := range inputs {
		q, ok := byID[in.QuestionID]
		if !ok {
			return nil, model.NewValidationError("answers", "求人に存在しない質問への回答です")
		}
		if answered[q.ID] {
			return nil, model.NewValidationError("answers", "同じ質問に複数の回答があります")
		}
		value := strings.TrimSpace(in.Answer)
		if value == "" {
			continue
		}
		if err := checkAnswer(q, value); err != nil {
			return nil, err
		}
		answered[q.ID] = true
		answers = append(answers, &model.Answer{
			ID:            uuid.New().String(),
			ApplicationID: applicationID,
			QuestionID:    q.ID,
			Answer:        value,
		})
	}

	for _, q := range questions {
		if q.Required && !answered[q.ID] {
			return nil, model.NewValidationError("answers", fmt.Sprintf("必須の質問に回答してください: %s", q.Question))
		}
	}
	return answers, nil
}

func checkAnswer(q *model.ScreeningQuestion, value string) error {
	switch q.Type {
	case model.QuestionYesNo:
		if value != AnswerYes && value != AnswerNo {
			return model.NewValidationError("answers", "evet または hayir で回答してください")
		}
	case model.QuestionMultipleChoice:
		for _, o := range q.Options {
			if o == value {
				return nil
			}
		}
		return model.NewValidationError("answers", "選択肢にない回答です")
	}
	return nil
}

// Review は選考状態・評価・スコア・既読・お気に入りを更新する。
// 更新前の行と比較し、状態が変わった場合のみ最終処理日時を記録する。
// 同時更新の検出は行わず、後から書き込んだ内容が残る。
func (s *Service) Review(ctx context.Context, id string, in ReviewInput) (*model.Application, error) {
	if !in.Status.IsValid() {
		return nil, model.NewValidationError("status", "選考状態が不正です")
	}
	if in.Score != nil && (*in.Score < model.ScoreMin || *in.Score > model.ScoreMax) {
		return nil, model.NewOutOfRangeError("score", model.ScoreMin, model.ScoreMax, *in.Score)
	}

	previous, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	updated := *previous
	updated.Status = in.Status
	updated.Evaluation = in.Evaluation
	updated.Score = in.Score
	updated.IsRead = in.IsRead
	updated.IsFavorite = in.IsFavorite
	updated.UpdatedAt = now
	changed := updated.StampStatusChange(previous, now)

	if err := s.repo.UpdateReview(ctx, &updated); err != nil {
		return nil, fmt.Errorf("応募の更新に失敗しました: %w", err)
	}

	if changed {
		s.metrics.RecordApplicationStatusChange(string(updated.Status))
		slog.Info("application status changed",
			slog.String("application_id", id),
			slog.String("from", string(previous.Status)),
			slog.String("to", string(updated.Status)),
		)
	}
	return &updated, nil
}

// Withdraw は市民自身が応募を取り下げる。他人の応募は見つからない扱い。
func (s *Service) Withdraw(ctx context.Context, id, citizenID string) (*model.Application, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.CitizenID != citizenID {
		return nil, model.NewNotFoundError("応募", id)
	}
	return s.Review(ctx, id, ReviewInput{
		Status:     model.ApplicationCancelled,
		Evaluation: app.Evaluation,
		Score:      app.Score,
		IsRead:     app.IsRead,
		IsFavorite: app.IsFavorite,
	})
}

// Get は応募を取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.Application, error) {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("応募の取得に失敗しました: %w", err)
	}
	if app == nil {
		return nil, model.NewNotFoundError("応募", id)
	}
	return app, nil
}

// Answers は応募の回答一覧を返す。
func (s *Service) Answers(ctx context.Context, id string) ([]*model.Answer, error) {
	answers, err := s.repo.ListAnswers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("回答の取得に失敗しました: %w", err)
	}
	return answers, nil
}

// List は絞り込み条件に合う応募を返す。
func (s *Service) List(ctx context.Context, filter model.ApplicationFilter) ([]*model.Application, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, model.NewValidationError("status", "選考状態が不正です")
	}
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("応募一覧の取得に失敗しました: %w", err)
	}
	return list, nil
}

// ListByCitizen は市民自身の応募一覧を返す。
func (s *Service) ListByCitizen(ctx context.Context, citizenID string, limit, offset uint64) ([]*model.Application, error) {
	return s.List(ctx, model.ApplicationFilter{CitizenID: citizenID, Limit: limit, Offset: offset})
}

// Delete は応募を削除する。求人の応募数は同一トランザクションで減算される。
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("応募の削除に失敗しました: %w", err)
	}
	slog.Info("application deleted", slog.String("application_id", id))
	return nil
}
