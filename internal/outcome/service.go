// Package outcome は求人の採用結果（İlan Sonuç）の保存と整合チェックを提供する。
package outcome

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/istihdam/internal/metrics"
	"github.com/hitoshi/istihdam/internal/model"
	"github.com/hitoshi/istihdam/internal/repository"
)

// Input は採用結果の保存入力。
type Input struct {
	PostingID           string
	Completed           bool
	InterviewedCount    int
	HiredCount          int
	HiredApplicationIDs []string
	Description         string
	SuccessScore        *int
	InternalEvaluation  string
}

// Result は保存後の採用結果と、保存を妨げない注意事項。
type Result struct {
	Outcome    *model.Outcome
	Advisories []model.Advisory
}

// Service は採用結果のサービス層。
// 完了時の求人終了はこのサービスが明示的に行う。
type Service struct {
	repo        repository.OutcomeRepository
	postingRepo repository.PostingRepository
	metrics     metrics.MetricsCollector
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.OutcomeRepository,
	postingRepo repository.PostingRepository,
	m metrics.MetricsCollector,
) *Service {
	if m == nil {
		m = metrics.Nop{}
	}
	return &Service{
		repo:        repo,
		postingRepo: postingRepo,
		metrics:     m,
		now:         time.Now,
	}
}

func validate(in Input) error {
	if in.PostingID == "" {
		return model.NewValidationError("posting_id", "求人は必須です")
	}
	if in.InterviewedCount < 0 {
		return model.NewValidationError("interviewed_count", "面接人数は0以上で指定してください")
	}
	if in.HiredCount < 0 {
		return model.NewValidationError("hired_count", "採用人数は0以上で指定してください")
	}
	if in.SuccessScore != nil && (*in.SuccessScore < model.ScoreMin || *in.SuccessScore > model.ScoreMax) {
		return model.NewOutOfRangeError("success_score", model.ScoreMin, model.ScoreMax, *in.SuccessScore)
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Save は採用結果を保存する。
//
// 完了済みで完了日時が未設定なら現在時刻を記録し、設定済みの完了日時は変更しない。
// 完了済みの場合は求人の状態を現在の状態に関わらず終了にする（取消済みの求人も含む）。
// 採用者数と採用応募の件数が一致しない場合も保存は行い、注意事項として返す。
// 応募総数は保存のたびに実際の応募件数から再計算する。
func (s *Service) Save(ctx context.Context, in Input) (*Result, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	posting, err := s.postingRepo.FindByID(ctx, in.PostingID)
	if err != nil {
		return nil, fmt.Errorf("求人の取得に失敗しました: %w", err)
	}
	if posting == nil {
		return nil, model.NewNotFoundError("求人", in.PostingID)
	}

	existing, err := s.repo.FindByPostingID(ctx, in.PostingID)
	if err != nil {
		return nil, fmt.Errorf("採用結果の取得に失敗しました: %w", err)
	}

	now := s.now()
	o := &model.Outcome{
		ID:        uuid.New().String(),
		PostingID: in.PostingID,
		CreatedAt: now,
	}
	if existing != nil {
		o.ID = existing.ID
		o.CreatedAt = existing.CreatedAt
		o.CompletedAt = existing.CompletedAt
	}
	o.Completed = in.Completed
	o.InterviewedCount = in.InterviewedCount
	o.HiredCount = in.HiredCount
	o.HiredApplicationIDs = dedupe(in.HiredApplicationIDs)
	o.Description = in.Description
	o.SuccessScore = in.SuccessScore
	o.InternalEvaluation = in.InternalEvaluation
	o.UpdatedAt = now

	if o.Completed && o.CompletedAt == nil {
		t := now
		o.CompletedAt = &t
	}

	var advisories []model.Advisory
	if len(o.HiredApplicationIDs) != o.HiredCount {
		advisories = append(advisories, model.Advisory{
			Code: model.AdvisoryHiredCountMismatch,
			Message: fmt.Sprintf("採用人数(%d)と採用応募の件数(%d)が一致しません",
				o.HiredCount, len(o.HiredApplicationIDs)),
		})
	}
	if o.Completed && posting.Status == model.PostingCancelled {
		advisories = append(advisories, model.Advisory{
			Code:    model.AdvisoryCancelledClosed,
			Message: "取消済みの求人を採用完了により終了状態に変更しました",
		})
	}

	if err := s.repo.Save(ctx, o, o.Completed); err != nil {
		return nil, fmt.Errorf("採用結果の保存に失敗しました: %w", err)
	}

	for _, a := range advisories {
		s.metrics.RecordOutcomeAdvisory(a.Code)
		slog.Warn("outcome advisory",
			slog.String("outcome_id", o.ID),
			slog.String("posting_id", o.PostingID),
			slog.String("code", a.Code),
			slog.String("message", a.Message),
		)
	}
	if o.Completed && posting.Status != model.PostingClosed {
		s.metrics.RecordPostingTransition(string(posting.Status), string(model.PostingClosed))
		slog.Info("posting closed by outcome completion",
			slog.String("posting_id", o.PostingID),
			slog.String("from", string(posting.Status)),
		)
	}

	return &Result{Outcome: o, Advisories: advisories}, nil
}

// Get は採用結果を取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.Outcome, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("採用結果の取得に失敗しました: %w", err)
	}
	if o == nil {
		return nil, model.NewNotFoundError("採用結果", id)
	}
	return o, nil
}

// GetByPosting は求人の採用結果を取得する。
func (s *Service) GetByPosting(ctx context.Context, postingID string) (*model.Outcome, error) {
	o, err := s.repo.FindByPostingID(ctx, postingID)
	if err != nil {
		return nil, fmt.Errorf("採用結果の取得に失敗しました: %w", err)
	}
	if o == nil {
		return nil, model.NewNotFoundError("採用結果", postingID)
	}
	return o, nil
}

// List は採用結果の一覧を返す。
func (s *Service) List(ctx context.Context, limit, offset uint64) ([]*model.Outcome, error) {
	list, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("採用結果一覧の取得に失敗しました: %w", err)
	}
	return list, nil
}

// Delete は採用結果を削除する。求人の状態は元に戻さない。
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("採用結果の削除に失敗しました: %w", err)
	}
	return nil
}
