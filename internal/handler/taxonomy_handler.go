package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/istihdam/internal/model"
	"github.com/hitoshi/istihdam/internal/taxonomy"
)

// TaxonomyServiceInterface は業種・職業ハンドラーが必要とするサービスインターフェース。
type TaxonomyServiceInterface interface {
	CreateSector(ctx context.Context, in taxonomy.TermInput) (*model.Sector, error)
	GetSectorBySlug(ctx context.Context, value string) (*model.Sector, error)
	ListSectors(ctx context.Context) ([]*model.Sector, error)
	UpdateSector(ctx context.Context, id string, in taxonomy.TermInput) (*model.Sector, error)
	DeleteSector(ctx context.Context, id string) error
	CreateOccupation(ctx context.Context, in taxonomy.TermInput) (*model.Occupation, error)
	GetOccupationBySlug(ctx context.Context, value string) (*model.Occupation, error)
	ListOccupations(ctx context.Context) ([]*model.Occupation, error)
	UpdateOccupation(ctx context.Context, id string, in taxonomy.TermInput) (*model.Occupation, error)
	DeleteOccupation(ctx context.Context, id string) error
}

// TaxonomyHandler は業種・職業のHTTPハンドラー。
type TaxonomyHandler struct {
	service TaxonomyServiceInterface
}

// NewTaxonomyHandler はTaxonomyHandlerを生成する。
func NewTaxonomyHandler(service TaxonomyServiceInterface) *TaxonomyHandler {
	return &TaxonomyHandler{service: service}
}

type termRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description string  `json:"description"`
	Slug        *string `json:"slug" validate:"omitempty,max=150"`
}

func (req termRequest) input() taxonomy.TermInput {
	return taxonomy.TermInput{Name: req.Name, Description: req.Description, Slug: req.Slug}
}

// ListSectors は業種の一覧を返す。
// GET /api/sektorler
func (h *TaxonomyHandler) ListSectors(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListSectors(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toSectorResponse))
}

// GetSector はslugで業種を取得する。
// GET /api/sektorler/{slug}
func (h *TaxonomyHandler) GetSector(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.GetSectorBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSectorResponse(s))
}

// CreateSector は業種を作成する。
// POST /api/admin/sektorler
func (h *TaxonomyHandler) CreateSector(w http.ResponseWriter, r *http.Request) {
	var req termRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	s, err := h.service.CreateSector(r.Context(), req.input())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSectorResponse(s))
}

// UpdateSector は業種を更新する。
// PUT /api/admin/sektorler/{id}
func (h *TaxonomyHandler) UpdateSector(w http.ResponseWriter, r *http.Request) {
	var req termRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	s, err := h.service.UpdateSector(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSectorResponse(s))
}

// DeleteSector は業種を削除する。
// DELETE /api/admin/sektorler/{id}
func (h *TaxonomyHandler) DeleteSector(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSector(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListOccupations は職業の一覧を返す。
// GET /api/meslekler
func (h *TaxonomyHandler) ListOccupations(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListOccupations(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toOccupationResponse))
}

// GetOccupation はslugで職業を取得する。
// GET /api/meslekler/{slug}
func (h *TaxonomyHandler) GetOccupation(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOccupationBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOccupationResponse(o))
}

// CreateOccupation は職業を作成する。
// POST /api/admin/meslekler
func (h *TaxonomyHandler) CreateOccupation(w http.ResponseWriter, r *http.Request) {
	var req termRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	o, err := h.service.CreateOccupation(r.Context(), req.input())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOccupationResponse(o))
}

// UpdateOccupation は職業を更新する。
// PUT /api/admin/meslekler/{id}
func (h *TaxonomyHandler) UpdateOccupation(w http.ResponseWriter, r *http.Request) {
	var req termRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	o, err := h.service.UpdateOccupation(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOccupationResponse(o))
}

// DeleteOccupation は職業を削除する。
// DELETE /api/admin/meslekler/{id}
func (h *TaxonomyHandler) DeleteOccupation(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteOccupation(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
