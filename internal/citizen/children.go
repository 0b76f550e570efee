package citizen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/istihdam/internal/model"
)

// clockLayout は稼働時間の時刻形式。
const clockLayout = "15:04"

func validatePeriod(field string, start time.Time, end *time.Time) error {
	if end != nil && end.Before(start) {
		return model.NewValidationError(field, "終了日は開始日以降で指定してください")
	}
	return nil
}

func validateEducation(e *model.Education) error {
	e.School = strings.TrimSpace(e.School)
	if e.School == "" {
		return model.NewValidationError("school", "学校名は必須です")
	}
	if !e.Degree.IsValid() {
		return model.NewValidationError("degree", "学位区分が不正です")
	}
	if e.Ongoing {
		e.EndDate = nil
	}
	return validatePeriod("end_date", e.StartDate, e.EndDate)
}

// AddEducation は学歴を追加する。
func (s *Service) AddEducation(ctx context.Context, citizenID string, e *model.Education) error {
	if _, err := s.Get(ctx, citizenID); err != nil {
		return err
	}
	if err := validateEducation(e); err != nil {
		return err
	}
	e.ID = uuid.New().String()
	e.CitizenID = citizenID
	e.CreatedAt = s.now()
	if err := s.repo.CreateEducation(ctx, e); err != nil {
		return fmt.Errorf("学歴の追加に失敗しました: %w", err)
	}
	return nil
}

// UpdateEducation は学歴を更新する。
func (s *Service) UpdateEducation(ctx context.Context, citizenID string, e *model.Education) error {
	if err := validateEducation(e); err != nil {
		return err
	}
	e.CitizenID = citizenID
	if err := s.repo.UpdateEducation(ctx, e); err != nil {
		return fmt.Errorf("学歴の更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteEducation は学歴を削除する。
func (s *Service) DeleteEducation(ctx context.Context, citizenID, id string) error {
	if err := s.repo.DeleteEducation(ctx, citizenID, id); err != nil {
		return fmt.Errorf("学歴の削除に失敗しました: %w", err)
	}
	return nil
}

func validateWorkExperience(w *model.WorkExperience) error {
	w.Company = strings.TrimSpace(w.Company)
	w.Position = strings.TrimSpace(w.Position)
	if w.Company == "" {
		return model.NewValidationError("company", "会社名は必須です")
	}
	if w.Position == "" {
		return model.NewValidationError("position", "役職は必須です")
	}
	if w.CurrentlyWorking {
		w.EndDate = nil
	}
	return validatePeriod("end_date", w.StartDate, w.EndDate)
}

// AddWorkExperience は職歴を追加する。
func (s *Service) AddWorkExperience(ctx context.Context, citizenID string, w *model.WorkExperience) error {
	if _, err := s.Get(ctx, citizenID); err != nil {
		return err
	}
	if err := validateWorkExperience(w); err != nil {
		return err
	}
	w.ID = uuid.New().String()
	w.CitizenID = citizenID
	w.CreatedAt = s.now()
	if err := s.repo.CreateWorkExperience(ctx, w); err != nil {
		return fmt.Errorf("職歴の追加に失敗しました: %w", err)
	}
	return nil
}

// UpdateWorkExperience は職歴を更新する。
func (s *Service) UpdateWorkExperience(ctx context.Context, citizenID string, w *model.WorkExperience) error {
	if err := validateWorkExperience(w); err != nil {
		return err
	}
	w.CitizenID = citizenID
	if err := s.repo.UpdateWorkExperience(ctx, w); err != nil {
		return fmt.Errorf("職歴の更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteWorkExperience は職歴を削除する。
func (s *Service) DeleteWorkExperience(ctx context.Context, citizenID, id string) error {
	if err := s.repo.DeleteWorkExperience(ctx, citizenID, id); err != nil {
		return fmt.Errorf("職歴の削除に失敗しました: %w", err)
	}
	return nil
}

func validateSkill(sk *model.Skill) error {
	sk.Name = strings.TrimSpace(sk.Name)
	if sk.Name == "" {
		return model.NewValidationError("name", "スキル名は必須です")
	}
	if sk.Level == "" {
		sk.Level = model.SkillGood
	}
	if !sk.Level.IsValid() {
		return model.NewValidationError("level", "習熟度が不正です")
	}
	return nil
}

// AddSkill はスキルを追加する。習熟度の省略時は「iyi」とする。
func (s *Service) AddSkill(ctx context.Context, citizenID string, sk *model.Skill) error {
	if _, err := s.Get(ctx, citizenID); err != nil {
		return err
	}
	if err := validateSkill(sk); err != nil {
		return err
	}
	sk.ID = uuid.New().String()
	sk.CitizenID = citizenID
	sk.CreatedAt = s.now()
	if err := s.repo.CreateSkill(ctx, sk); err != nil {
		return fmt.Errorf("スキルの追加に失敗しました: %w", err)
	}
	return nil
}

// UpdateSkill はスキルを更新する。
func (s *Service) UpdateSkill(ctx context.Context, citizenID string, sk *model.Skill) error {
	if err := validateSkill(sk); err != nil {
		return err
	}
	sk.CitizenID = citizenID
	if err := s.repo.UpdateSkill(ctx, sk); err != nil {
		return fmt.Errorf("スキルの更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteSkill はスキルを削除する。
func (s *Service) DeleteSkill(ctx context.Context, citizenID, id string) error {
	if err := s.repo.DeleteSkill(ctx, citizenID, id); err != nil {
		return fmt.Errorf("スキルの削除に失敗しました: %w", err)
	}
	return nil
}

func validateCertificate(c *model.Certificate) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return model.NewValidationError("name", "資格名は必須です")
	}
	if c.ExpiresAt != nil && c.ExpiresAt.Before(c.IssuedAt) {
		return model.NewValidationError("expires_at", "有効期限は取得日以降で指定してください")
	}
	return nil
}

// AddCertificate は資格を追加する。
func (s *Service) AddCertificate(ctx context.Context, citizenID string, c *model.Certificate) error {
	if _, err := s.Get(ctx, citizenID); err != nil {
		return err
	}
	if err := validateCertificate(c); err != nil {
		return err
	}
	c.ID = uuid.New().String()
	c.CitizenID = citizenID
	c.CreatedAt = s.now()
	if err := s.repo.CreateCertificate(ctx, c); err != nil {
		return fmt.Errorf("資格の追加に失敗しました: %w", err)
	}
	return nil
}

// UpdateCertificate は資格を更新する。
func (s *Service) UpdateCertificate(ctx context.Context, citizenID string, c *model.Certificate) error {
	if err := validateCertificate(c); err != nil {
		return err
	}
	c.CitizenID = citizenID
	if err := s.repo.UpdateCertificate(ctx, c); err != nil {
		return fmt.Errorf("資格の更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteCertificate は資格を削除する。
func (s *Service) DeleteCertificate(ctx context.Context, citizenID, id string) error {
	if err := s.repo.DeleteCertificate(ctx, citizenID, id); err != nil {
		return fmt.Errorf("資格の削除に失敗しました: %w", err)
	}
	return nil
}

func validateCraftSpecialty(cs *model.CraftSpecialty) error {
	if cs.OccupationID == "" {
		return model.NewValidationError("occupation_id", "職業は必須です")
	}
	if cs.YearsOfExperience < 0 {
		return model.NewValidationError("years_of_experience", "経験年数は0以上で指定してください")
	}
	return nil
}

// AddCraftSpecialty は職人の専門職業を追加する。同じ職業の重複は一意制約違反となる。
func (s *Service) AddCraftSpecialty(ctx context.Context, citizenID string, cs *model.CraftSpecialty) error {
	if _, err := s.Get(ctx, citizenID); err != nil {
		return err
	}
	if err := validateCraftSpecialty(cs); err != nil {
		return err
	}
	cs.ID = uuid.New().String()
	cs.CitizenID = citizenID
	cs.CreatedAt = s.now()
	if err := s.repo.CreateCraftSpecialty(ctx, cs); err != nil {
		return fmt.Errorf("専門職業の追加に失敗しました: %w", err)
	}
	return nil
}

// UpdateCraftSpecialty は専門職業を更新する。
func (s *Service) UpdateCraftSpecialty(ctx context.Context, citizenID string, cs *model.CraftSpecialty) error {
	if err := validateCraftSpecialty(cs); err != nil {
		return err
	}
	cs.CitizenID = citizenID
	if err := s.repo.UpdateCraftSpecialty(ctx, cs); err != nil {
		return fmt.Errorf("専門職業の更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteCraftSpecialty は専門職業を削除する。
func (s *Service) DeleteCraftSpecialty(ctx context.Context, citizenID, id string) error {
	if err := s.repo.DeleteCraftSpecialty(ctx, citizenID, id); err != nil {
		return fmt.Errorf("専門職業の削除に失敗しました: %w", err)
	}
	return nil
}

func validateWorkingHours(h *model.WorkingHours) error {
	if !h.Day.IsValid() {
		return model.NewValidationError("day", "曜日が不正です")
	}
	start, err := time.Parse(clockLayout, h.StartTime)
	if err != nil {
		return model.NewValidationError("start_time", "開始時刻はHH:MM形式で指定してください")
	}
	end, err := time.Parse(clockLayout, h.EndTime)
	if err != nil {
		return model.NewValidationError("end_time", "終了時刻はHH:MM形式で指定してください")
	}
	if !start.Before(end) {
		return model.NewValidationError("end_time", "終了時刻は開始時刻より後で指定してください")
	}
	h.StartTime = start.Format(clockLayout)
	h.EndTime = end.Format(clockLayout)
	return nil
}

// SetWorkingHours は曜日の稼働時間を設定する。同じ曜日の既存設定は上書きする。
func (s *Service) SetWorkingHours(ctx context.Context, citizenID string, h *model.WorkingHours) error {
	if _, err := s.Get(ctx, citizenID); err != nil {
		return err
	}
	if err := validateWorkingHours(h); err != nil {
		return err
	}
	h.ID = uuid.New().String()
	h.CitizenID = citizenID
	h.CreatedAt = s.now()
	if err := s.repo.UpsertWorkingHours(ctx, h); err != nil {
		return fmt.Errorf("稼働時間の設定に失敗しました: %w", err)
	}
	return nil
}

// DeleteWorkingHours は稼働時間を削除する。
func (s *Service) DeleteWorkingHours(ctx context.Context, citizenID, id string) error {
	if err := s.repo.DeleteWorkingHours(ctx, citizenID, id); err != nil {
		return fmt.Errorf("稼働時間の削除に失敗しました: %w", err)
	}
	return nil
}
