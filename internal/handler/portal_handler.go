package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/istihdam/internal/portal"
)

// PortalServiceInterface はポータルハンドラーが必要とするサービスインターフェース。
type PortalServiceInterface interface {
	Home(ctx context.Context, featuredLimit uint64) (*portal.Home, error)
	Page(key string) (*portal.Page, error)
}

// PortalHandler はトップページと案内ページのHTTPハンドラー。
type PortalHandler struct {
	service PortalServiceInterface
}

// NewPortalHandler はPortalHandlerを生成する。
func NewPortalHandler(service PortalServiceInterface) *PortalHandler {
	return &PortalHandler{service: service}
}

type homeResponse struct {
	CompanyCount     int               `json:"company_count"`
	CraftsmanCount   int               `json:"craftsman_count"`
	PostingCount     int               `json:"posting_count"`
	FeaturedPostings []postingResponse `json:"featured_postings"`
}

type pageResponse struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Home はトップページの集計を返す。
// GET /api/home
func (h *PortalHandler) Home(w http.ResponseWriter, r *http.Request) {
	home, err := h.service.Home(r.Context(), portal.DefaultFeaturedLimit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, homeResponse{
		CompanyCount:     home.CompanyCount,
		CraftsmanCount:   home.CraftsmanCount,
		PostingCount:     home.PostingCount,
		FeaturedPostings: mapSlice(home.FeaturedPostings, toPublicPostingResponse),
	})
}

// Page は静的な案内ページを返す。
// GET /api/pages/{key}
func (h *PortalHandler) Page(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Page(chi.URLParam(r, "key"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse{Key: p.Key, Title: p.Title, Body: p.Body})
}
