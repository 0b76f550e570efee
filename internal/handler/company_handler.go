package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/istihdam/internal/company"
	"github.com/hitoshi/istihdam/internal/model"
)

// CompanyServiceInterface は企業ハンドラーが必要とするサービスインターフェース。
type CompanyServiceInterface interface {
	Create(ctx context.Context, in company.Input) (*model.Company, error)
	Update(ctx context.Context, id string, in company.Input) (*model.Company, error)
	Get(ctx context.Context, id string) (*model.Company, error)
	GetPublicBySlug(ctx context.Context, value string) (*model.Company, error)
	List(ctx context.Context, filter model.CompanyFilter) ([]*model.Company, int, error)
	ListPublic(ctx context.Context, filter model.CompanyFilter) ([]*model.Company, int, error)
	Delete(ctx context.Context, id string) error
	ImportLogo(ctx context.Context, id string) (*model.Company, error)
}

// CompanyHandler は企業のHTTPハンドラー。
type CompanyHandler struct {
	service     CompanyServiceInterface
	maxPageSize int
}

// NewCompanyHandler はCompanyHandlerを生成する。
func NewCompanyHandler(service CompanyServiceInterface, maxPageSize int) *CompanyHandler {
	return &CompanyHandler{service: service, maxPageSize: maxPageSize}
}

type companyRequest struct {
	OwnerID       *string  `json:"owner_id"`
	Name          string   `json:"name" validate:"required,max=200"`
	Slug          *string  `json:"slug" validate:"omitempty,max=250"`
	Description   string   `json:"description"`
	Email         string   `json:"email" validate:"omitempty,email,max=254"`
	Phone         string   `json:"phone" validate:"max=20"`
	Fax           string   `json:"fax" validate:"max=20"`
	Website       string   `json:"website" validate:"max=200"`
	ProvinceID    *string  `json:"province_id"`
	DistrictID    *string  `json:"district_id"`
	Address       string   `json:"address"`
	PostalCode    string   `json:"postal_code" validate:"max=10"`
	SectorIDs     []string `json:"sector_ids"`
	FoundedYear   *int     `json:"founded_year" validate:"omitempty,min=1800,max=2100"`
	EmployeeCount *int     `json:"employee_count" validate:"omitempty,min=0"`
	TaxOffice     string   `json:"tax_office" validate:"max=100"`
	TaxNumber     string   `json:"tax_number" validate:"max=20"`
	LinkedInURL   string   `json:"linkedin_url" validate:"max=200"`
	TwitterURL    string   `json:"twitter_url" validate:"max=200"`
	InstagramURL  string   `json:"instagram_url" validate:"max=200"`
	FacebookURL   string   `json:"facebook_url" validate:"max=200"`
	Active        *bool    `json:"active"`
}

// input はリクエストをサービスの入力に変換する。activeの省略時は公開とする。
func (req companyRequest) input() company.Input {
	return company.Input{
		OwnerID:       optionalString(model.StringValue(req.OwnerID)),
		Name:          req.Name,
		Slug:          req.Slug,
		Description:   req.Description,
		Email:         req.Email,
		Phone:         req.Phone,
		Fax:           req.Fax,
		Website:       req.Website,
		ProvinceID:    optionalString(model.StringValue(req.ProvinceID)),
		DistrictID:    optionalString(model.StringValue(req.DistrictID)),
		Address:       req.Address,
		PostalCode:    req.PostalCode,
		SectorIDs:     req.SectorIDs,
		FoundedYear:   req.FoundedYear,
		EmployeeCount: req.EmployeeCount,
		TaxOffice:     req.TaxOffice,
		TaxNumber:     req.TaxNumber,
		LinkedInURL:   req.LinkedInURL,
		TwitterURL:    req.TwitterURL,
		InstagramURL:  req.InstagramURL,
		FacebookURL:   req.FacebookURL,
		Active:        req.Active == nil || *req.Active,
	}
}

func (h *CompanyHandler) filter(r *http.Request) model.CompanyFilter {
	q := r.URL.Query()
	limit, offset := pageParams(r, h.maxPageSize)
	return model.CompanyFilter{
		ProvinceID: q.Get("province_id"),
		DistrictID: q.Get("district_id"),
		SectorID:   q.Get("sector_id"),
		Query:      q.Get("q"),
		Limit:      limit,
		Offset:     offset,
	}
}

func writeCompanyList(w http.ResponseWriter, list []*model.Company, total int, filter model.CompanyFilter) {
	writeJSON(w, http.StatusOK, listResponse[companyResponse]{
		Items:  mapSlice(list, toCompanyResponse),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// ListPublic は公開中の企業を新しい順に返す。
// GET /api/firmalar?province_id=...&district_id=...&sector_id=...&q=...
func (h *CompanyHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	filter := h.filter(r)
	list, total, err := h.service.ListPublic(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeCompanyList(w, list, total, filter)
}

// GetPublic はslugで公開中の企業を返す。
// GET /api/firmalar/{slug}
func (h *CompanyHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetPublicBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCompanyResponse(c))
}

// List は非公開を含む企業一覧を返す。
// GET /api/admin/firmalar
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := h.filter(r)
	list, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeCompanyList(w, list, total, filter)
}

// Get は企業を返す。
// GET /api/admin/firmalar/{id}
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCompanyResponse(c))
}

// Create は企業を作成する。
// POST /api/admin/firmalar
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	c, err := h.service.Create(r.Context(), req.input())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCompanyResponse(c))
}

// Update は企業を更新する。
// PUT /api/admin/firmalar/{id}
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	c, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCompanyResponse(c))
}

// Delete は企業を削除する。
// DELETE /api/admin/firmalar/{id}
func (h *CompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportLogo は企業のWebサイトからロゴを取り込む。
// POST /api/admin/firmalar/{id}/logo
func (h *CompanyHandler) ImportLogo(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.ImportLogo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCompanyResponse(c))
}
