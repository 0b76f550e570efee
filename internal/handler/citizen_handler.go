package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/istihdam/internal/citizen"
	"github.com/hitoshi/istihdam/internal/model"
)

// CitizenServiceInterface は市民ハンドラーが必要とするサービスインターフェース。
type CitizenServiceInterface interface {
	SaveOwn(ctx context.Context, accountID string, in citizen.ProfileInput) (*model.Citizen, error)
	Update(ctx context.Context, id string, in citizen.ProfileInput) (*model.Citizen, error)
	Get(ctx context.Context, id string) (*model.Citizen, error)
	GetByAccount(ctx context.Context, accountID string) (*model.Citizen, error)
	LoadProfile(ctx context.Context, c *model.Citizen) (*citizen.Profile, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q citizen.ListQuery) ([]*model.CitizenSummary, int, error)
	ListCraftsmen(ctx context.Context, occupationID, provinceID, query string, limit, offset uint64) ([]*model.CitizenSummary, int, error)

	AddEducation(ctx context.Context, citizenID string, e *model.Education) error
	UpdateEducation(ctx context.Context, citizenID string, e *model.Education) error
	DeleteEducation(ctx context.Context, citizenID, id string) error
	AddWorkExperience(ctx context.Context, citizenID string, x *model.WorkExperience) error
	UpdateWorkExperience(ctx context.Context, citizenID string, x *model.WorkExperience) error
	DeleteWorkExperience(ctx context.Context, citizenID, id string) error
	AddSkill(ctx context.Context, citizenID string, sk *model.Skill) error
	UpdateSkill(ctx context.Context, citizenID string, sk *model.Skill) error
	DeleteSkill(ctx context.Context, citizenID, id string) error
	AddCertificate(ctx context.Context, citizenID string, c *model.Certificate) error
	UpdateCertificate(ctx context.Context, citizenID string, c *model.Certificate) error
	DeleteCertificate(ctx context.Context, citizenID, id string) error
	AddCraftSpecialty(ctx context.Context, citizenID string, cs *model.CraftSpecialty) error
	UpdateCraftSpecialty(ctx context.Context, citizenID string, cs *model.CraftSpecialty) error
	DeleteCraftSpecialty(ctx context.Context, citizenID, id string) error
	SetWorkingHours(ctx context.Context, citizenID string, h *model.WorkingHours) error
	DeleteWorkingHours(ctx context.Context, citizenID, id string) error
}

// CitizenHandler は市民プロフィールのHTTPハンドラー。
//
// 子コレクションのハンドラーは /api/me/citizen 配下ではセッションのアカウントから、
// /api/admin/vatandaslar/{citizenID} 配下ではURLのIDから対象の市民を決める。
type CitizenHandler struct {
	service     CitizenServiceInterface
	maxPageSize int
}

// NewCitizenHandler はCitizenHandlerを生成する。
func NewCitizenHandler(service CitizenServiceInterface, maxPageSize int) *CitizenHandler {
	return &CitizenHandler{service: service, maxPageSize: maxPageSize}
}

type citizenProfileRequest struct {
	BirthDate            string  `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Gender               string  `json:"gender" validate:"omitempty,oneof=E K"`
	PhotoPath            string  `json:"photo_path" validate:"max=255"`
	Phone                string  `json:"phone" validate:"max=20"`
	ProvinceID           *string `json:"province_id"`
	DistrictID           *string `json:"district_id"`
	Address              string  `json:"address"`
	About                string  `json:"about"`
	ResumePath           string  `json:"resume_path" validate:"max=255"`
	IsCraftsman          bool    `json:"is_craftsman"`
	IsJobSeeker          bool    `json:"is_job_seeker"`
	CraftsmanTitle       string  `json:"craftsman_title" validate:"max=100"`
	CraftsmanDescription string  `json:"craftsman_description"`
	LinkedInURL          string  `json:"linkedin_url" validate:"max=200"`
	TwitterURL           string  `json:"twitter_url" validate:"max=200"`
	InstagramURL         string  `json:"instagram_url" validate:"max=200"`
	FacebookURL          string  `json:"facebook_url" validate:"max=200"`
	WebsiteURL           string  `json:"website_url" validate:"max=200"`
}

func (req citizenProfileRequest) input() (citizen.ProfileInput, error) {
	birth, err := parseDate("birth_date", req.BirthDate)
	if err != nil {
		return citizen.ProfileInput{}, err
	}
	return citizen.ProfileInput{
		BirthDate:            birth,
		Gender:               model.Gender(req.Gender),
		PhotoPath:            req.PhotoPath,
		Phone:                req.Phone,
		ProvinceID:           optionalString(model.StringValue(req.ProvinceID)),
		DistrictID:           optionalString(model.StringValue(req.DistrictID)),
		Address:              req.Address,
		About:                req.About,
		ResumePath:           req.ResumePath,
		IsCraftsman:          req.IsCraftsman,
		IsJobSeeker:          req.IsJobSeeker,
		CraftsmanTitle:       req.CraftsmanTitle,
		CraftsmanDescription: req.CraftsmanDescription,
		LinkedInURL:          req.LinkedInURL,
		TwitterURL:           req.TwitterURL,
		InstagramURL:         req.InstagramURL,
		FacebookURL:          req.FacebookURL,
		WebsiteURL:           req.WebsiteURL,
	}, nil
}

// GetOwn はログイン中の市民のプロフィールを子コレクション込みで返す。
// GET /api/me/citizen
func (h *CitizenHandler) GetOwn(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccountID(w, r)
	if !ok {
		return
	}
	c, err := h.service.GetByAccount(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	h.writeProfile(w, r, c)
}

// SaveOwn はログイン中の市民のプロフィールを作成または更新する。
// PUT /api/me/citizen
func (h *CitizenHandler) SaveOwn(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccountID(w, r)
	if !ok {
		return
	}
	var req citizenProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		handleServiceError(w, err)
		return
	}
	c, err := h.service.SaveOwn(r.Context(), accountID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCitizenResponse(c))
}

// List は管理画面向けに市民を絞り込んで返す。
// GET /api/admin/vatandaslar?age=26-35&gender=K&province_id=...&degree=lisans&has_certificate=true
func (h *CitizenHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := pageParams(r, h.maxPageSize)
	list, total, err := h.service.List(r.Context(), citizen.ListQuery{
		AgeBucket:      model.AgeBucket(q.Get("age")),
		Gender:         model.Gender(q.Get("gender")),
		ProvinceID:     q.Get("province_id"),
		Degree:         model.EducationDegree(q.Get("degree")),
		HasCertificate: boolParam(r, "has_certificate"),
		OccupationID:   q.Get("occupation_id"),
		IsCraftsman:    boolParam(r, "is_craftsman"),
		IsJobSeeker:    boolParam(r, "is_job_seeker"),
		Query:          q.Get("q"),
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[citizenSummaryResponse]{
		Items:  mapSlice(list, toCitizenSummaryResponse),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// ListCraftsmen は公開ページ向けに職人の一覧を返す。
// GET /api/ustalar?occupation_id=...&province_id=...&q=...
func (h *CitizenHandler) ListCraftsmen(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := pageParams(r, h.maxPageSize)
	list, total, err := h.service.ListCraftsmen(r.Context(), q.Get("occupation_id"), q.Get("province_id"), q.Get("q"), limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[citizenSummaryResponse]{
		Items:  mapSlice(list, toCitizenSummaryResponse),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// Get は市民プロフィールを子コレクション込みで返す。
// GET /api/admin/vatandaslar/{citizenID}
func (h *CitizenHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), chi.URLParam(r, "citizenID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	h.writeProfile(w, r, c)
}

// Update は市民プロフィールを更新する。
// PUT /api/admin/vatandaslar/{citizenID}
func (h *CitizenHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req citizenProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		handleServiceError(w, err)
		return
	}
	c, err := h.service.Update(r.Context(), chi.URLParam(r, "citizenID"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCitizenResponse(c))
}

// Delete は市民プロフィールを削除する。
// DELETE /api/admin/vatandaslar/{citizenID}
func (h *CitizenHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "citizenID")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CitizenHandler) writeProfile(w http.ResponseWriter, r *http.Request, c *model.Citizen) {
	p, err := h.service.LoadProfile(r.Context(), c)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

// targetCitizenID は子コレクション操作の対象となる市民IDを返す。
// 解決できない場合はエラーレスポンスを書き込んでfalseを返す。
func (h *CitizenHandler) targetCitizenID(w http.ResponseWriter, r *http.Request) (string, bool) {
	if id := chi.URLParam(r, "citizenID"); id != "" {
		return id, true
	}
	accountID, ok := requireAccountID(w, r)
	if !ok {
		return "", false
	}
	c, err := h.service.GetByAccount(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return "", false
	}
	return c.ID, true
}

// deleteChild は対象市民の子コレクションを削除する。
func (h *CitizenHandler) deleteChild(w http.ResponseWriter, r *http.Request, del func(ctx context.Context, citizenID, id string) error) {
	citizenID, ok := h.targetCitizenID(w, r)
	if !ok {
		return
	}
	if err := del(r.Context(), citizenID, chi.URLParam(r, "itemID")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- 学歴 ---

type educationRequest struct {
	School     string `json:"school" validate:"required,max=200"`
	Department string `json:"department" validate:"max=200"`
	Degree     string `json:"degree" validate:"required,oneof=ilkokul ortaokul lise onlisans lisans yukseklisans doktora"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Ongoing    bool   `json:"ongoing"`
}

func (req educationRequest) model(id string) (*model.Education, error) {
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}
	return &model.Education{
		ID:         id,
		School:     req.School,
		Department: req.Department,
		Degree:     model.EducationDegree(req.Degree),
		StartDate:  *start,
		EndDate:    end,
		Ongoing:    req.Ongoing,
	}, nil
}

// SaveEducation は学歴を追加（itemIDなし）または更新する。
// POST /api/me/citizen/educations, PUT /api/me/citizen/educations/{itemID}
func (h *CitizenHandler) SaveEducation(w http.ResponseWriter, r *http.Request) {
	citizenID, ok := h.targetCitizenID(w, r)
	if !ok {
		return
	}
	var req educationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	itemID := chi.URLParam(r, "itemID")
	e, err := req.model(itemID)
	if err == nil {
		if itemID == "" {
			err = h.service.AddEducation(r.Context(), citizenID, e)
		} else {
			err = h.service.UpdateEducation(r.Context(), citizenID, e)
		}
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, savedStatus(itemID), toEducationResponse(e))
}

// DeleteEducation は学歴を削除する。
// DELETE /api/me/citizen/educations/{itemID}
func (h *CitizenHandler) DeleteEducation(w http.ResponseWriter, r *http.Request) {
	h.deleteChild(w, r, h.service.DeleteEducation)
}

// --- 職歴 ---

type workExperienceRequest struct {
	Company          string `json:"company" validate:"required,max=200"`
	Position         string `json:"position" validate:"required,max=200"`
	Description      string `json:"description"`
	StartDate        string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate          string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	CurrentlyWorking bool   `json:"currently_working"`
	ReferenceName    string `json:"reference_name" validate:"max=100"`
	ReferencePhone   string `json:"reference_phone" validate:"max=20"`
}

func (req workExperienceRequest) model(id string) (*model.WorkExperience, error) {
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}
	return &model.WorkExperience{
		ID:               id,
		Company:          req.Company,
		Position:         req.Position,
		Description:      req.Description,
		StartDate:        *start,
		EndDate:          end,
		CurrentlyWorking: req.CurrentlyWorking,
		ReferenceName:    req.ReferenceName,
		ReferencePhone:   req.ReferencePhone,
	}, nil
}

// SaveWorkExperience は職歴を追加または更新する。
// POST /api/me/citizen/work-experiences, PUT /api/me/citizen/work-experiences/{itemID}
func (h *CitizenHandler) SaveWorkExperience(w http.ResponseWriter, r *http.Request) {
	citizenID, ok := h.targetCitizenID(w, r)
	if !ok {
		return
	}
	var req workExperienceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	itemID := chi.URLParam(r, "itemID")
	x, err := req.model(itemID)
	if err == nil {
		if itemID == "" {
			err = h.service.AddWorkExperience(r.Context(), citizenID, x)
		} else {
			err = h.service.UpdateWorkExperience(r.Context(), citizenID, x)
		}
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, savedStatus(itemID), toWorkExperienceResponse(x))
}

// DeleteWorkExperience は職歴を削除する。
// DELETE /api/me/citizen/work-experiences/{itemID}
func (h *CitizenHandler) DeleteWorkExperience(w http.ResponseWriter, r *http.Request) {
	h.deleteChild(w, r, h.service.DeleteWorkExperience)
}

// --- スキル ---

type skillRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Level string `json:"level" validate:"omitempty,oneof=baslangic orta iyi cokiyi uzman"`
}

// SaveSkill はスキルを追加または更新する。習熟度の省略時は「iyi」。
// POST /api/me/citizen/skills, PUT /api/me/citizen/skills/{itemID}
func (h *CitizenHandler) SaveSkill(w http.ResponseWriter, r *http.Request) {
	citizenID, ok := h.targetCitizenID(w, r)
	if !ok {
		return
	}
	var req skillRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	itemID := chi.URLParam(r, "itemID")
	sk := &model.Skill{ID: itemID, Name: req.Name, Level: model.SkillLevel(req.Level)}
	var err error
	if itemID == "" {
		err = h.service.AddSkill(r.Context(), citizenID, sk)
	} else {
		err = h.service.UpdateSkill(r.Context(), citizenID, sk)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, savedStatus(itemID), toSkillResponse(sk))
}

// DeleteSkill はスキルを削除する。
// DELETE /api/me/citizen/skills/{itemID}
func (h *CitizenHandler) DeleteSkill(w http.ResponseWriter, r *http.Request) {
	h.deleteChild(w, r, h.service.DeleteSkill)
}

// --- 資格 ---

type certificateRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Issuer      string `json:"issuer" validate:"max=200"`
	IssuedAt    string `json:"issued_at" validate:"required,datetime=2006-01-02"`
	ExpiresAt   string `json:"expires_at" validate:"omitempty,datetime=2006-01-02"`
	FilePath    string `json:"file_path" validate:"max=255"`
	Description string `json:"description"`
}

func (req certificateRequest) model(id string) (*model.Certificate, error) {
	issued, err := parseDate("issued_at", req.IssuedAt)
	if err != nil {
		return nil, err
	}
	expires, err := parseDate("expires_at", req.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &model.Certificate{
		ID:          id,
		Name:        req.Name,
		Issuer:      req.Issuer,
		IssuedAt:    *issued,
		ExpiresAt:   expires,
		FilePath:    req.FilePath,
		Description: req.Description,
	}, nil
}

// SaveCertificate は資格を追加または更新する。
// POST /api/me/citizen/certificates, PUT /api/me/citizen/certificates/{itemID}
func (h *CitizenHandler) SaveCertificate(w http.ResponseWriter, r *http.Request) {
	citizenID, ok := h.targetCitizenID(w, r)
	if !ok {
		return
	}
	var req certificateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	itemID := chi.URLParam(r, "itemID")
	c, err := req.model(itemID)
	if err == nil {
		if itemID == "" {
			err = h.service.AddCertificate(r.Context(), citizenID, c)
		} else {
			err = h.service.UpdateCertificate(r.Context(), citizenID, c)
		}
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, savedStatus(itemID), toCertificateResponse(c))
}

// DeleteCertificate は資格を削除する。
// DELETE /api/me/citizen/certificates/{itemID}
func (h *CitizenHandler) DeleteCertificate(w http.ResponseWriter, r *http.Request) {
	h.deleteChild(w, r, h.service.DeleteCertificate)
}

// --- 職人の専門 ---

type craftSpecialtyRequest struct {
	OccupationID      string `json:"occupation_id" validate:"required"`
	YearsOfExperience int    `json:"years_of_experience" validate:"min=0"`
	Description       string `json:"description"`
	PriceInfo         string `json:"price_info" validate:"max=200"`
}

// SaveCraftSpecialty は専門職業を追加または更新する。
// POST /api/me/citizen/craft-specialties, PUT /api/me/citizen/craft-specialties/{itemID}
func (h *CitizenHandler) SaveCraftSpecialty(w http.ResponseWriter, r *http.Request) {
	citizenID, ok := h.targetCitizenID(w, r)
	if !ok {
		return
	}
	var req craftSpecialtyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	itemID := chi.URLParam(r, "itemID")
	cs := &model.CraftSpecialty{
		ID:                itemID,
		OccupationID:      req.OccupationID,
		YearsOfExperience: req.YearsOfExperience,
		Description:       req.Description,
		PriceInfo:         req.PriceInfo,
	}
	var err error
	if itemID == "" {
		err = h.service.AddCraftSpecialty(r.Context(), citizenID, cs)
	} else {
		err = h.service.UpdateCraftSpecialty(r.Context(), citizenID, cs)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, savedStatus(itemID), toCraftSpecialtyResponse(cs))
}

// DeleteCraftSpecialty は専門職業を削除する。
// DELETE /api/me/citizen/craft-specialties/{itemID}
func (h *CitizenHandler) DeleteCraftSpecialty(w http.ResponseWriter, r *http.Request) {
	h.deleteChild(w, r, h.service.DeleteCraftSpecialty)
}

// --- 稼働時間 ---

type workingHoursRequest struct {
	Day       string `json:"day" validate:"required,oneof=pazartesi sali carsamba persembe cuma cumartesi pazar"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
	Active    *bool  `json:"active"`
}

// SetWorkingHours は曜日の稼働時間を設定する。同じ曜日の設定は上書きされる。
// PUT /api/me/citizen/working-hours
func (h *CitizenHandler) SetWorkingHours(w http.ResponseWriter, r *http.Request) {
	citizenID, ok := h.targetCitizenID(w, r)
	if !ok {
		return
	}
	var req workingHoursRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	wh := &model.WorkingHours{
		Day:       model.Weekday(req.Day),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Active:    req.Active == nil || *req.Active,
	}
	if err := h.service.SetWorkingHours(r.Context(), citizenID, wh); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkingHoursResponse(wh))
}

// DeleteWorkingHours は稼働時間を削除する。
// DELETE /api/me/citizen/working-hours/{itemID}
func (h *CitizenHandler) DeleteWorkingHours(w http.ResponseWriter, r *http.Request) {
	h.deleteChild(w, r, h.service.DeleteWorkingHours)
}

// savedStatus は追加なら201、更新なら200を返す。
func savedStatus(itemID string) int {
	if itemID == "" {
		return http.StatusCreated
	}
	return http.StatusOK
}
