package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/istihdam/internal/model"
)

// 市民の子コレクション（学歴・職歴・スキル・資格・専門分野・稼働時間）。

// ListEducations は市民の学歴を開始日の新しい順で返す。
func (r *PostgresCitizenRepo) ListEducations(ctx context.Context, citizenID string) ([]*model.Education, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, citizen_id, school, department, degree, start_date, end_date, ongoing, created_at
		 FROM educations WHERE citizen_id = $1 ORDER BY start_date DESC`,
		citizenID)
	if err != nil {
		return nil, fmt.Errorf("failed to list educations: %w", mapPQError(err))
	}
	defer rows.Close()

	var list []*model.Education
	for rows.Next() {
		e := &model.Education{}
		var end sql.NullTime
		if err := rows.Scan(&e.ID, &e.CitizenID, &e.School, &e.Department, &e.Degree,
			&e.StartDate, &end, &e.Ongoing, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan education: %w", mapPQError(err))
		}
		e.EndDate = nullTimePtr(end)
		list = append(list, e)
	}
	return list, rows.Err()
}

// CreateEducation は学歴を作成する。
func (r *PostgresCitizenRepo) CreateEducation(ctx context.Context, e *model.Education) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO educations (id, citizen_id, school, department, degree, start_date, end_date, ongoing, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.CitizenID, e.School, e.Department, e.Degree,
		dateOnly(&e.StartDate), dateOnly(e.EndDate), e.Ongoing, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert education: %w", mapPQError(err))
	}
	return nil
}

// UpdateEducation は学歴を更新する。
func (r *PostgresCitizenRepo) UpdateEducation(ctx context.Context, e *model.Education) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE educations SET school = $3, department = $4, degree = $5, start_date = $6, end_date = $7, ongoing = $8
		 WHERE id = $1 AND citizen_id = $2`,
		e.ID, e.CitizenID, e.School, e.Department, e.Degree,
		dateOnly(&e.StartDate), dateOnly(e.EndDate), e.Ongoing,
	)
	if err != nil {
		return fmt.Errorf("failed to update education: %w", mapPQError(err))
	}
	return requireAffected(result, "学歴", e.ID)
}

// DeleteEducation は学歴を削除する。
func (r *PostgresCitizenRepo) DeleteEducation(ctx context.Context, citizenID, id string) error {
	return deleteChild(ctx, r.db, "educations", "学歴", citizenID, id)
}

// ListWorkExperiences は市民の職歴を開始日の新しい順で返す。
func (r *PostgresCitizenRepo) ListWorkExperiences(ctx context.Context, citizenID string) ([]*model.WorkExperience, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, citizen_id, company, position, description, start_date, end_date,
			currently_working, reference_name, reference_phone, created_at
		 FROM work_experiences WHERE citizen_id = $1 ORDER BY start_date DESC`,
		citizenID)
	if err != nil {
		return nil, fmt.Errorf("failed to list work experiences: %w", mapPQError(err))
	}
	defer rows.Close()

	var list []*model.WorkExperience
	for rows.Next() {
		w := &model.WorkExperience{}
		var end sql.NullTime
		if err := rows.Scan(&w.ID, &w.CitizenID, &w.Company, &w.Position, &w.Description,
			&w.StartDate, &end, &w.CurrentlyWorking, &w.ReferenceName, &w.ReferencePhone, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan work experience: %w", mapPQError(err))
		}
		w.EndDate = nullTimePtr(end)
		list = append(list, w)
	}
	return list, rows.Err()
}

// CreateWorkExperience は職歴を作成する。
func (r *PostgresCitizenRepo) CreateWorkExperience(ctx context.Context, w *model.WorkExperience) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO work_experiences (id, citizen_id, company, position, description, start_date, end_date,
			currently_working, reference_name, reference_phone, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		w.ID, w.CitizenID, w.Company, w.Position, w.Description,
		dateOnly(&w.StartDate), dateOnly(w.EndDate), w.CurrentlyWorking, w.ReferenceName, w.ReferencePhone, w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert work experience: %w", mapPQError(err))
	}
	return nil
}

// UpdateWorkExperience は職歴を更新する。
func (r *PostgresCitizenRepo) UpdateWorkExperience(ctx context.Context, w *model.WorkExperience) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE work_experiences SET company = $3, position = $4, description = $5, start_date = $6,
			end_date = $7, currently_working = $8, reference_name = $9, reference_phone = $10
		 WHERE id = $1 AND citizen_id = $2`,
		w.ID, w.CitizenID, w.Company, w.Position, w.Description,
		dateOnly(&w.StartDate), dateOnly(w.EndDate), w.CurrentlyWorking, w.ReferenceName, w.ReferencePhone,
	)
	if err != nil {
		return fmt.Errorf("failed to update work experience: %w", mapPQError(err))
	}
	return requireAffected(result, "職歴", w.ID)
}

// DeleteWorkExperience は職歴を削除する。
func (r *PostgresCitizenRepo) DeleteWorkExperience(ctx context.Context, citizenID, id string) error {
	return deleteChild(ctx, r.db, "work_experiences", "職歴", citizenID, id)
}

// ListSkills は市民のスキルを名前順で返す。
func (r *PostgresCitizenRepo) ListSkills(ctx context.Context, citizenID string) ([]*model.Skill, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, citizen_id, name, level, created_at FROM skills WHERE citizen_id = $1 ORDER BY name ASC`,
		citizenID)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", mapPQError(err))
	}
	defer rows.Close()

	var list []*model.Skill
	for rows.Next() {
		s := &model.Skill{}
		if err := rows.Scan(&s.ID, &s.CitizenID, &s.Name, &s.Level, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", mapPQError(err))
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// CreateSkill はスキルを作成する。
func (r *PostgresCitizenRepo) CreateSkill(ctx context.Context, s *model.Skill) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO skills (id, citizen_id, name, level, created_at) VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.CitizenID, s.Name, s.Level, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert skill: %w", mapPQError(err))
	}
	return nil
}

// UpdateSkill はスキルを更新する。
func (r *PostgresCitizenRepo) UpdateSkill(ctx context.Context, s *model.Skill) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE skills SET name = $3, level = $4 WHERE id = $1 AND citizen_id = $2`,
		s.ID, s.CitizenID, s.Name, s.Level,
	)
	if err != nil {
		return fmt.Errorf("failed to update skill: %w", mapPQError(err))
	}
	return requireAffected(result, "スキル", s.ID)
}

// DeleteSkill はスキルを削除する。
func (r *PostgresCitizenRepo) DeleteSkill(ctx context.Context, citizenID, id string) error {
	return deleteChild(ctx, r.db, "skills", "スキル", citizenID, id)
}

// ListCertificates は市民の資格を取得日の新しい順で返す。
func (r *PostgresCitizenRepo) ListCertificates(ctx context.Context, citizenID string) ([]*model.Certificate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, citizen_id, name, issuer, issued_at, expires_at, file_path, description, created_at
		 FROM certificates WHERE citizen_id = $1 ORDER BY issued_at DESC`,
		citizenID)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", mapPQError(err))
	}
	defer rows.Close()

	var list []*model.Certificate
	for rows.Next() {
		c := &model.Certificate{}
		var expires sql.NullTime
		if err := rows.Scan(&c.ID, &c.CitizenID, &c.Name, &c.Issuer, &c.IssuedAt, &expires,
			&c.FilePath, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan certificate: %w", mapPQError(err))
		}
		c.ExpiresAt = nullTimePtr(expires)
		list = append(list, c)
	}
	return list, rows.Err()
}

// CreateCertificate は資格を作成する。
func (r *PostgresCitizenRepo) CreateCertificate(ctx context.Context, c *model.Certificate) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO certificates (id, citizen_id, name, issuer, issued_at, expires_at, file_path, description, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.CitizenID, c.Name, c.Issuer, dateOnly(&c.IssuedAt), dateOnly(c.ExpiresAt),
		c.FilePath, c.Description, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert certificate: %w", mapPQError(err))
	}
	return nil
}

// UpdateCertificate は資格を更新する。
func (r *PostgresCitizenRepo) UpdateCertificate(ctx context.Context, c *model.Certificate) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE certificates SET name = $3, issuer = $4, issued_at = $5, expires_at = $6,
			file_path = $7, description = $8
		 WHERE id = $1 AND citizen_id = $2`,
		c.ID, c.CitizenID, c.Name, c.Issuer, dateOnly(&c.IssuedAt), dateOnly(c.ExpiresAt),
		c.FilePath, c.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to update certificate: %w", mapPQError(err))
	}
	return requireAffected(result, "資格", c.ID)
}

// DeleteCertificate は資格を削除する。
func (r *PostgresCitizenRepo) DeleteCertificate(ctx context.Context, citizenID, id string) error {
	return deleteChild(ctx, r.db, "certificates", "資格", citizenID, id)
}

// ListCraftSpecialties は市民の専門分野を経験年数の長い順で返す。
func (r *PostgresCitizenRepo) ListCraftSpecialties(ctx context.Context, citizenID string) ([]*model.CraftSpecialty, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, citizen_id, occupation_id, years_of_experience, description, price_info, created_at
		 FROM craft_specialties WHERE citizen_id = $1 ORDER BY years_of_experience DESC`,
		citizenID)
	if err != nil {
		return nil, fmt.Errorf("failed to list craft specialties: %w", mapPQError(err))
	}
	defer rows.Close()

	var list []*model.CraftSpecialty
	for rows.Next() {
		s := &model.CraftSpecialty{}
		if err := rows.Scan(&s.ID, &s.CitizenID, &s.OccupationID, &s.YearsOfExperience,
			&s.Description, &s.PriceInfo, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan craft specialty: %w", mapPQError(err))
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// CreateCraftSpecialty は専門分野を作成する。同じ職業の重複はUNIQUE_VIOLATIONになる。
func (r *PostgresCitizenRepo) CreateCraftSpecialty(ctx context.Context, s *model.CraftSpecialty) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO craft_specialties (id, citizen_id, occupation_id, years_of_experience, description, price_info, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.CitizenID, s.OccupationID, s.YearsOfExperience, s.Description, s.PriceInfo, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert craft specialty: %w", mapPQError(err))
	}
	return nil
}

// UpdateCraftSpecialty は専門分野を更新する。
func (r *PostgresCitizenRepo) UpdateCraftSpecialty(ctx context.Context, s *model.CraftSpecialty) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE craft_specialties SET occupation_id = $3, years_of_experience = $4, description = $5, price_info = $6
		 WHERE id = $1 AND citizen_id = $2`,
		s.ID, s.CitizenID, s.OccupationID, s.YearsOfExperience, s.Description, s.PriceInfo,
	)
	if err != nil {
		return fmt.Errorf("failed to update craft specialty: %w", mapPQError(err))
	}
	return requireAffected(result, "専門分野", s.ID)
}

// DeleteCraftSpecialty は専門分野を削除する。
func (r *PostgresCitizenRepo) DeleteCraftSpecialty(ctx context.Context, citizenID, id string) error {
	return deleteChild(ctx, r.db, "craft_specialties", "専門分野", citizenID, id)
}

// ListWorkingHours は市民の稼働時間を曜日順で返す。時刻は "HH:MM" 形式。
func (r *PostgresCitizenRepo) ListWorkingHours(ctx context.Context, citizenID string) ([]*model.WorkingHours, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, citizen_id, day, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), active, created_at
		 FROM working_hours WHERE citizen_id = $1
		 ORDER BY array_position(ARRAY['pazartesi','sali','carsamba','persembe','cuma','cumartesi','pazar']::varchar[], day)`,
		citizenID)
	if err != nil {
		return nil, fmt.Errorf("failed to list working hours: %w", mapPQError(err))
	}
	defer rows.Close()

	var list []*model.WorkingHours
	for rows.Next() {
		h := &model.WorkingHours{}
		if err := rows.Scan(&h.ID, &h.CitizenID, &h.Day, &h.StartTime, &h.EndTime, &h.Active, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan working hours: %w", mapPQError(err))
		}
		list = append(list, h)
	}
	return list, rows.Err()
}

// UpsertWorkingHours は(市民, 曜日)の組で稼働時間を作成または上書きする。
// 既存行を上書きした場合はその行のIDをhに反映する。
func (r *PostgresCitizenRepo) UpsertWorkingHours(ctx context.Context, h *model.WorkingHours) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO working_hours (id, citizen_id, day, start_time, end_time, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (citizen_id, day)
		 DO UPDATE SET start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time, active = EXCLUDED.active
		 RETURNING id, created_at`,
		h.ID, h.CitizenID, h.Day, h.StartTime, h.EndTime, h.Active, h.CreatedAt,
	).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert working hours: %w", mapPQError(err))
	}
	return nil
}

// DeleteWorkingHours は稼働時間を削除する。
func (r *PostgresCitizenRepo) DeleteWorkingHours(ctx context.Context, citizenID, id string) error {
	return deleteChild(ctx, r.db, "working_hours", "稼働時間", citizenID, id)
}
