package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/istihdam/internal/model"
	"github.com/hitoshi/istihdam/internal/slug"
)

// GeographyServiceInterface は地理ハンドラーが必要とするサービスインターフェース。
type GeographyServiceInterface interface {
	CreateProvince(ctx context.Context, name string, explicitSlug *string) (*model.Province, error)
	CreateDistrict(ctx context.Context, provinceID, name string, explicitSlug *string) (*model.District, error)
	CreateNeighborhood(ctx context.Context, districtID, name string, explicitSlug *string) (*model.Neighborhood, error)
	GetProvinceBySlug(ctx context.Context, provinceSlug string) (*model.Province, error)
	ListProvinces(ctx context.Context) ([]*model.Province, error)
	ListDistricts(ctx context.Context, provinceID string) ([]*model.District, error)
	ListNeighborhoods(ctx context.Context, districtID string) ([]*model.Neighborhood, error)
	RenameProvince(ctx context.Context, id, name string) (*model.Province, error)
	RenameDistrict(ctx context.Context, id, name string) (*model.District, error)
	RenameNeighborhood(ctx context.Context, id, name string) (*model.Neighborhood, error)
	SetProvinceSlug(ctx context.Context, id, value string) (*model.Province, error)
	SetDistrictSlug(ctx context.Context, id, value string) (*model.District, error)
	SetNeighborhoodSlug(ctx context.Context, id, value string) (*model.Neighborhood, error)
	DeleteProvince(ctx context.Context, id string) error
	DeleteDistrict(ctx context.Context, id string) error
	DeleteNeighborhood(ctx context.Context, id string) error
}

// GeographyHandler は県・郡・地区のHTTPハンドラー。
type GeographyHandler struct {
	service GeographyServiceInterface
}

// NewGeographyHandler はGeographyHandlerを生成する。
func NewGeographyHandler(service GeographyServiceInterface) *GeographyHandler {
	return &GeographyHandler{service: service}
}

// placeRequest は県・郡・地区の作成・更新リクエスト。
// ParentIDは郡の作成では県ID、地区の作成では郡IDを表す。
type placeRequest struct {
	ParentID string  `json:"parent_id"`
	Name     string  `json:"name" validate:"required,max=100"`
	Slug     *string `json:"slug" validate:"omitempty,max=150"`
}

// explicitSlug は明示指定されたslugを正規化する。正規化後に空ならnil。
func explicitSlug(value *string) *string {
	return slug.Explicit(value)
}

// ListProvinces は県の一覧を返す。
// GET /api/iller
func (h *GeographyHandler) ListProvinces(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListProvinces(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toProvinceResponse))
}

// GetProvince はslugで県を取得する。
// GET /api/iller/{slug}
func (h *GeographyHandler) GetProvince(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProvinceBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProvinceResponse(p))
}

// ListDistricts は県の郡一覧を返す。
// GET /api/iller/{slug}/ilceler
func (h *GeographyHandler) ListDistricts(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProvinceBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	list, err := h.service.ListDistricts(r.Context(), p.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toDistrictResponse))
}

// ListNeighborhoods は郡の地区一覧を返す。
// GET /api/ilceler/{id}/mahalleler
func (h *GeographyHandler) ListNeighborhoods(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListNeighborhoods(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toNeighborhoodResponse))
}

// CreateProvince は県を作成する。
// POST /api/admin/iller
func (h *GeographyHandler) CreateProvince(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p, err := h.service.CreateProvince(r.Context(), req.Name, explicitSlug(req.Slug))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProvinceResponse(p))
}

// CreateDistrict は郡を作成する。
// POST /api/admin/ilceler
func (h *GeographyHandler) CreateDistrict(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.ParentID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("parent_id", "県は必須です"))
		return
	}
	d, err := h.service.CreateDistrict(r.Context(), req.ParentID, req.Name, explicitSlug(req.Slug))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDistrictResponse(d))
}

// CreateNeighborhood は地区を作成する。
// POST /api/admin/mahalleler
func (h *GeographyHandler) CreateNeighborhood(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.ParentID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("parent_id", "郡は必須です"))
		return
	}
	n, err := h.service.CreateNeighborhood(r.Context(), req.ParentID, req.Name, explicitSlug(req.Slug))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toNeighborhoodResponse(n))
}

// UpdateProvince は県の名前を変更する。slugは指定された場合のみ書き込む。
// PUT /api/admin/iller/{id}
func (h *GeographyHandler) UpdateProvince(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	p, err := h.service.RenameProvince(r.Context(), id, req.Name)
	if err == nil && req.Slug != nil {
		p, err = h.service.SetProvinceSlug(r.Context(), id, *req.Slug)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProvinceResponse(p))
}

// UpdateDistrict は郡の名前を変更する。
// PUT /api/admin/ilceler/{id}
func (h *GeographyHandler) UpdateDistrict(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	d, err := h.service.RenameDistrict(r.Context(), id, req.Name)
	if err == nil && req.Slug != nil {
		d, err = h.service.SetDistrictSlug(r.Context(), id, *req.Slug)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDistrictResponse(d))
}

// UpdateNeighborhood は地区の名前を変更する。
// PUT /api/admin/mahalleler/{id}
func (h *GeographyHandler) UpdateNeighborhood(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	n, err := h.service.RenameNeighborhood(r.Context(), id, req.Name)
	if err == nil && req.Slug != nil {
		n, err = h.service.SetNeighborhoodSlug(r.Context(), id, *req.Slug)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNeighborhoodResponse(n))
}

// DeleteProvince は県を削除する。
// DELETE /api/admin/iller/{id}
func (h *GeographyHandler) DeleteProvince(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProvince(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteDistrict は郡を削除する。
// DELETE /api/admin/ilceler/{id}
func (h *GeographyHandler) DeleteDistrict(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteDistrict(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteNeighborhood は地区を削除する。
// DELETE /api/admin/mahalleler/{id}
func (h *GeographyHandler) DeleteNeighborhood(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteNeighborhood(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
