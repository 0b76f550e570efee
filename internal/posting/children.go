package posting

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hitoshi/istihdam/internal/model"
)

// AddKeyword は求人に検索キーワードを追加する。同じキーワードの重複は一意制約違反となる。
func (s *Service) AddKeyword(ctx context.Context, postingID, keyword string) (*model.Keyword, error) {
	if _, err := s.Get(ctx, postingID); err != nil {
		return nil, err
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, model.NewValidationError("keyword", "キーワードは必須です")
	}

	k := &model.Keyword{ID: uuid.New().String(), PostingID: postingID, Keyword: keyword}
	if err := s.repo.CreateKeyword(ctx, k); err != nil {
		return nil, fmt.Errorf("キーワードの追加に失敗しました: %w", err)
	}
	return k, nil
}

// DeleteKeyword はキーワードを削除する。
func (s *Service) DeleteKeyword(ctx context.Context, postingID, id string) error {
	if err := s.repo.DeleteKeyword(ctx, postingID, id); err != nil {
		return fmt.Errorf("キーワードの削除に失敗しました: %w", err)
	}
	return nil
}

func validateLanguage(l *model.LanguageRequirement) error {
	l.Language = strings.TrimSpace(l.Language)
	if l.Language == "" {
		return model.NewValidationError("language", "言語は必須です")
	}
	if l.Level == "" {
		l.Level = model.LangIntermediate
	}
	if !l.Level.IsValid() {
		return model.NewValidationError("level", "語学レベルが不正です")
	}
	return nil
}

// AddLanguage は語学要件を追加する。同じ言語の重複は一意制約違反となる。
func (s *Service) AddLanguage(ctx context.Context, postingID string, l *model.LanguageRequirement) error {
	if _, err := s.Get(ctx, postingID); err != nil {
		return err
	}
	if err := validateLanguage(l); err != nil {
		return err
	}
	l.ID = uuid.New().String()
	l.PostingID = postingID
	if err := s.repo.CreateLanguage(ctx, l); err != nil {
		return fmt.Errorf("語学要件の追加に失敗しました: %w", err)
	}
	return nil
}

// UpdateLanguage は語学要件を更新する。
func (s *Service) UpdateLanguage(ctx context.Context, postingID string, l *model.LanguageRequirement) error {
	if err := validateLanguage(l); err != nil {
		return err
	}
	l.PostingID = postingID
	if err := s.repo.UpdateLanguage(ctx, l); err != nil {
		return fmt.Errorf("語学要件の更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteLanguage は語学要件を削除する。
func (s *Service) DeleteLanguage(ctx context.Context, postingID, id string) error {
	if err := s.repo.DeleteLanguage(ctx, postingID, id); err != nil {
		return fmt.Errorf("語学要件の削除に失敗しました: %w", err)
	}
	return nil
}

// validateQuestion は質問を検証する。選択式では2つ以上の選択肢を要求し、
// それ以外の形式では選択肢を破棄する。
func validateQuestion(q *model.ScreeningQuestion) error {
	q.Question = strings.TrimSpace(q.Question)
	if q.Question == "" {
		return model.NewValidationError("question", "質問文は必須です")
	}
	if q.Type == "" {
		q.Type = model.QuestionText
	}
	if !q.Type.IsValid() {
		return model.NewValidationError("type", "回答形式が不正です")
	}

	if q.Type != model.QuestionMultipleChoice {
		q.Options = nil
		return nil
	}
	options := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		if o = strings.TrimSpace(o); o != "" {
			options = append(options, o)
		}
	}
	if len(options) < 2 {
		return model.NewValidationError("options", "選択式の質問には2つ以上の選択肢が必要です")
	}
	q.Options = options
	return nil
}

// AddQuestion はスクリーニング質問を追加する。
func (s *Service) AddQuestion(ctx context.Context, postingID string, q *model.ScreeningQuestion) error {
	if _, err := s.Get(ctx, postingID); err != nil {
		return err
	}
	if err := validateQuestion(q); err != nil {
		return err
	}
	q.ID = uuid.New().String()
	q.PostingID = postingID
	if err := s.repo.CreateQuestion(ctx, q); err != nil {
		return fmt.Errorf("質問の追加に失敗しました: %w", err)
	}
	return nil
}

// UpdateQuestion はスクリーニング質問を更新する。
func (s *Service) UpdateQuestion(ctx context.Context, postingID string, q *model.ScreeningQuestion) error {
	if err := validateQuestion(q); err != nil {
		return err
	}
	q.PostingID = postingID
	if err := s.repo.UpdateQuestion(ctx, q); err != nil {
		return fmt.Errorf("質問の更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteQuestion はスクリーニング質問を削除する。
func (s *Service) DeleteQuestion(ctx context.Context, postingID, id string) error {
	if err := s.repo.DeleteQuestion(ctx, postingID, id); err != nil {
		return fmt.Errorf("質問の削除に失敗しました: %w", err)
	}
	return nil
}
