package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/istihdam/internal/middleware"
	"github.com/hitoshi/istihdam/internal/model"
	"github.com/hitoshi/istihdam/internal/posting"
)

// PostingServiceInterface は求人ハンドラーが必要とするサービスインターフェース。
type PostingServiceInterface interface {
	Create(ctx context.Context, in posting.Input) (*model.Posting, error)
	Update(ctx context.Context, id string, in posting.Input) (*model.Posting, error)
	Transition(ctx context.Context, id string, to model.PostingStatus) (*model.Posting, error)
	Get(ctx context.Context, id string) (*model.Posting, error)
	GetPublicBySlug(ctx context.Context, value string) (*model.Posting, error)
	LoadDetail(ctx context.Context, p *model.Posting) (*posting.Detail, error)
	List(ctx context.Context, filter model.PostingFilter) ([]*model.Posting, int, error)
	ListPublic(ctx context.Context, filter model.PostingFilter) ([]*model.Posting, int, error)
	Delete(ctx context.Context, id string) error
	RSS(ctx context.Context, baseURL string, limit uint64) (string, error)

	AddKeyword(ctx context.Context, postingID, keyword string) (*model.Keyword, error)
	DeleteKeyword(ctx context.Context, postingID, id string) error
	AddLanguage(ctx context.Context, postingID string, l *model.LanguageRequirement) error
	UpdateLanguage(ctx context.Context, postingID string, l *model.LanguageRequirement) error
	DeleteLanguage(ctx context.Context, postingID, id string) error
	AddQuestion(ctx context.Context, postingID string, q *model.ScreeningQuestion) error
	UpdateQuestion(ctx context.Context, postingID string, q *model.ScreeningQuestion) error
	DeleteQuestion(ctx context.Context, postingID, id string) error
}

// PostingHandlerConfig は求人ハンドラーの設定。
type PostingHandlerConfig struct {
	BaseURL     string // RSSのリンク生成に使う公開URL
	MaxPageSize int
}

// PostingHandler は求人のHTTPハンドラー。
type PostingHandler struct {
	service PostingServiceInterface
	config  PostingHandlerConfig
}

// NewPostingHandler はPostingHandlerを生成する。
func NewPostingHandler(service PostingServiceInterface, config PostingHandlerConfig) *PostingHandler {
	return &PostingHandler{service: service, config: config}
}

type postingRequest struct {
	Title                   string  `json:"title" validate:"required,max=200"`
	Slug                    *string `json:"slug" validate:"omitempty,max=250"`
	CompanyID               string  `json:"company_id" validate:"required"`
	Position                string  `json:"position" validate:"required,max=100"`
	Description             string  `json:"description"`
	SectorID                *string `json:"sector_id"`
	Department              string  `json:"department" validate:"max=100"`
	WorkModel               string  `json:"work_model" validate:"omitempty,oneof=tam_zamanli yari_zamanli proje_bazli stajyer gunluk donusumlu"`
	Workplace               string  `json:"workplace" validate:"omitempty,oneof=ofiste uzaktan hibrit"`
	ProvinceID              *string `json:"province_id"`
	DistrictID              *string `json:"district_id"`
	Address                 string  `json:"address"`
	RequiredQualifications  string  `json:"required_qualifications"`
	PreferredQualifications string  `json:"preferred_qualifications"`
	EducationLevel          string  `json:"education_level"`
	ExperienceLevel         string  `json:"experience_level"`
	SalaryInfo              string  `json:"salary_info" validate:"max=100"`
	SalaryHidden            *bool   `json:"salary_hidden"`
	Benefits                string  `json:"benefits"`
	ApplicationStart        string  `json:"application_start" validate:"omitempty,datetime=2006-01-02"`
	ApplicationEnd          string  `json:"application_end" validate:"omitempty,datetime=2006-01-02"`
	ExpectedApplications    int     `json:"expected_applications" validate:"min=0"`
	Headcount               int     `json:"headcount" validate:"min=0"`
	Status                  string  `json:"status" validate:"omitempty,oneof=taslak yayinda durduruldu sonlandi iptal"`
	Featured                bool    `json:"featured"`
}

func (req postingRequest) input() (posting.Input, error) {
	start, err := parseDate("application_start", req.ApplicationStart)
	if err != nil {
		return posting.Input{}, err
	}
	end, err := parseDate("application_end", req.ApplicationEnd)
	if err != nil {
		return posting.Input{}, err
	}
	return posting.Input{
		Title:                   req.Title,
		Slug:                    req.Slug,
		CompanyID:               req.CompanyID,
		Position:                req.Position,
		Description:             req.Description,
		SectorID:                optionalString(model.StringValue(req.SectorID)),
		Department:              req.Department,
		WorkModel:               model.WorkModel(req.WorkModel),
		Workplace:               model.Workplace(req.Workplace),
		ProvinceID:              optionalString(model.StringValue(req.ProvinceID)),
		DistrictID:              optionalString(model.StringValue(req.DistrictID)),
		Address:                 req.Address,
		RequiredQualifications:  req.RequiredQualifications,
		PreferredQualifications: req.PreferredQualifications,
		EducationLevel:          model.EducationRequirement(req.EducationLevel),
		ExperienceLevel:         model.ExperienceLevel(req.ExperienceLevel),
		SalaryInfo:              req.SalaryInfo,
		SalaryHidden:            req.SalaryHidden,
		Benefits:                req.Benefits,
		ApplicationStart:        start,
		ApplicationEnd:          end,
		ExpectedApplications:    req.ExpectedApplications,
		Headcount:               req.Headcount,
		Status:                  model.PostingStatus(req.Status),
		Featured:                req.Featured,
	}, nil
}

func (h *PostingHandler) filter(r *http.Request) model.PostingFilter {
	q := r.URL.Query()
	limit, offset := pageParams(r, h.config.MaxPageSize)
	return model.PostingFilter{
		Status:     model.PostingStatus(q.Get("status")),
		CompanyID:  q.Get("company_id"),
		SectorID:   q.Get("sector_id"),
		ProvinceID: q.Get("province_id"),
		DistrictID: q.Get("district_id"),
		WorkModel:  model.WorkModel(q.Get("work_model")),
		Workplace:  model.Workplace(q.Get("workplace")),
		Featured:   boolParam(r, "featured"),
		Query:      q.Get("q"),
		Limit:      limit,
		Offset:     offset,
	}
}

// ListPublic は公開中の求人を公開日時の新しい順に返す。
// GET /api/ilanlar?sector_id=...&province_id=...&work_model=...&featured=true&q=...
func (h *PostingHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	filter := h.filter(r)
	list, total, err := h.service.ListPublic(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[postingResponse]{
		Items:  mapSlice(list, toPublicPostingResponse),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// GetPublic はslugで公開中の求人を子コレクション込みで返す。閲覧数が加算される。
// GET /api/ilanlar/{slug}
func (h *PostingHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPublicBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	d, err := h.service.LoadDetail(r.Context(), p)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostingDetailResponse(d, true))
}

// RSS は公開中の最新求人のRSSフィードを返す。
// GET /ilanlar/rss
func (h *PostingHandler) RSS(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.RSS(r.Context(), h.config.BaseURL, 0)
	if err != nil {
		slog.Error("failed to build rss", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

// List は全状態の求人一覧を返す。
// GET /api/admin/ilanlar?status=taslak
func (h *PostingHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := h.filter(r)
	if filter.Status != "" && !filter.Status.IsValid() {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("status", "求人の状態が不正です"))
		return
	}
	list, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[postingResponse]{
		Items:  mapSlice(list, toAdminPostingResponse),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// Get は求人を子コレクション込みで返す。
// GET /api/admin/ilanlar/{id}
func (h *PostingHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	d, err := h.service.LoadDetail(r.Context(), p)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostingDetailResponse(d, false))
}

// Create は求人を作成する。
// POST /api/admin/ilanlar
func (h *PostingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req postingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		handleServiceError(w, err)
		return
	}
	p, err := h.service.Create(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAdminPostingResponse(p))
}

// Update は求人を更新する。状態は遷移規則を経由せずに書き換えられる。
// PUT /api/admin/ilanlar/{id}
func (h *PostingHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req postingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		handleServiceError(w, err)
		return
	}
	p, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAdminPostingResponse(p))
}

type transitionRequest struct {
	Status string `json:"status" validate:"required,oneof=taslak yayinda durduruldu sonlandi iptal"`
}

// Transition は状態遷移規則に従って求人の状態を変更する。
// POST /api/admin/ilanlar/{id}/status
func (h *PostingHandler) Transition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p, err := h.service.Transition(r.Context(), chi.URLParam(r, "id"), model.PostingStatus(req.Status))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAdminPostingResponse(p))
}

// Delete は求人を削除する。
// DELETE /api/admin/ilanlar/{id}
func (h *PostingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- 子コレクション ---

type keywordRequest struct {
	Keyword string `json:"keyword" validate:"required,max=100"`
}

// AddKeyword はキーワードを追加する。
// POST /api/admin/ilanlar/{id}/keywords
func (h *PostingHandler) AddKeyword(w http.ResponseWriter, r *http.Request) {
	var req keywordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	k, err := h.service.AddKeyword(r.Context(), chi.URLParam(r, "id"), req.Keyword)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toKeywordResponse(k))
}

// DeleteKeyword はキーワードを削除する。
// DELETE /api/admin/ilanlar/{id}/keywords/{itemID}
func (h *PostingHandler) DeleteKeyword(w http.ResponseWriter, r *http.Request) {
	h.deleteChild(w, r, h.service.DeleteKeyword)
}

type languageRequest struct {
	Language string `json:"language" validate:"required,max=50"`
	Level    string `json:"level" validate:"omitempty,oneof=baslangic orta iyi cok_iyi ileri anadil"`
	Required bool   `json:"required"`
}

// SaveLanguage は語学要件を追加（itemIDなし）または更新する。語学レベルの省略時は「orta」。
// POST /api/admin/ilanlar/{id}/languages, PUT /api/admin/ilanlar/{id}/languages/{itemID}
func (h *PostingHandler) SaveLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	postingID, itemID := chi.URLParam(r, "id"), chi.URLParam(r, "itemID")
	l := &model.LanguageRequirement{ID: itemID, Language: req.Language, Level: model.LanguageLevel(req.Level), Required: req.Required}
	var err error
	if itemID == "" {
		err = h.service.AddLanguage(r.Context(), postingID, l)
	} else {
		err = h.service.UpdateLanguage(r.Context(), postingID, l)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, savedStatus(itemID), toLanguageResponse(l))
}

// DeleteLanguage は語学要件を削除する。
// DELETE /api/admin/ilanlar/{id}/languages/{itemID}
func (h *PostingHandler) DeleteLanguage(w http.ResponseWriter, r *http.Request) {
	h.deleteChild(w, r, h.service.DeleteLanguage)
}

type questionRequest struct {
	Question  string   `json:"question" validate:"required"`
	Type      string   `json:"type" validate:"omitempty,oneof=metin coktan_secmeli evet_hayir"`
	Options   []string `json:"options"`
	Required  bool     `json:"required"`
	SortOrder int      `json:"sort_order" validate:"min=0"`
}

// SaveQuestion はスクリーニング質問を追加または更新する。
// POST /api/admin/ilanlar/{id}/questions, PUT /api/admin/ilanlar/{id}/questions/{itemID}
func (h *PostingHandler) SaveQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	postingID, itemID := chi.URLParam(r, "id"), chi.URLParam(r, "itemID")
	q := &model.ScreeningQuestion{
		ID:        itemID,
		Question:  req.Question,
		Type:      model.QuestionType(req.Type),
		Options:   req.Options,
		Required:  req.Required,
		SortOrder: req.SortOrder,
	}
	var err error
	if itemID == "" {
		err = h.service.AddQuestion(r.Context(), postingID, q)
	} else {
		err = h.service.UpdateQuestion(r.Context(), postingID, q)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, savedStatus(itemID), toQuestionResponse(q))
}

// DeleteQuestion はスクリーニング質問を削除する。
// DELETE /api/admin/ilanlar/{id}/questions/{itemID}
func (h *PostingHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	h.deleteChild(w, r, h.service.DeleteQuestion)
}

func (h *PostingHandler) deleteChild(w http.ResponseWriter, r *http.Request, del func(ctx context.Context, postingID, id string) error) {
	if err := del(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemID")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
