package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/istihdam/internal/model"
	"github.com/hitoshi/istihdam/internal/outcome"
)

// OutcomeServiceInterface は採用結果ハンドラーが必要とするサービスインターフェース。
type OutcomeServiceInterface interface {
	Save(ctx context.Context, in outcome.Input) (*outcome.Result, error)
	Get(ctx context.Context, id string) (*model.Outcome, error)
	GetByPosting(ctx context.Context, postingID string) (*model.Outcome, error)
	List(ctx context.Context, limit, offset uint64) ([]*model.Outcome, error)
	Delete(ctx context.Context, id string) error
}

// OutcomeHandler は採用結果のHTTPハンドラー。
type OutcomeHandler struct {
	service     OutcomeServiceInterface
	maxPageSize int
}

// NewOutcomeHandler はOutcomeHandlerを生成する。
func NewOutcomeHandler(service OutcomeServiceInterface, maxPageSize int) *OutcomeHandler {
	return &OutcomeHandler{service: service, maxPageSize: maxPageSize}
}

type outcomeRequest struct {
	Completed           bool     `json:"completed"`
	InterviewedCount    int      `json:"interviewed_count"`
	HiredCount          int      `json:"hired_count"`
	HiredApplicationIDs []string `json:"hired_application_ids"`
	Description         string   `json:"description"`
	SuccessScore        *int     `json:"success_score"`
	InternalEvaluation  string   `json:"internal_evaluation"`
}

// Save は求人の採用結果を保存する。
// 保存を妨げない不整合はwarningsとして返す。
// PUT /api/admin/ilanlar/{id}/sonuc
func (h *OutcomeHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req outcomeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	res, err := h.service.Save(r.Context(), outcome.Input{
		PostingID:           chi.URLParam(r, "id"),
		Completed:           req.Completed,
		InterviewedCount:    req.InterviewedCount,
		HiredCount:          req.HiredCount,
		HiredApplicationIDs: req.HiredApplicationIDs,
		Description:         req.Description,
		SuccessScore:        req.SuccessScore,
		InternalEvaluation:  req.InternalEvaluation,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	warnings := res.Advisories
	if warnings == nil {
		warnings = []model.Advisory{}
	}
	writeJSON(w, http.StatusOK, outcomeSaveResponse{
		Outcome:  toOutcomeResponse(res.Outcome),
		Warnings: warnings,
	})
}

// GetByPosting は求人の採用結果を返す。
// GET /api/admin/ilanlar/{id}/sonuc
func (h *OutcomeHandler) GetByPosting(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetByPosting(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOutcomeResponse(o))
}

// List は採用結果の一覧を返す。
// GET /api/admin/sonuclar
func (h *OutcomeHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r, h.maxPageSize)
	list, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[outcomeResponse]{
		Items:  mapSlice(list, toOutcomeResponse),
		Total:  len(list),
		Limit:  limit,
		Offset: offset,
	})
}

// Get は採用結果を返す。
// GET /api/admin/sonuclar/{id}
func (h *OutcomeHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOutcomeResponse(o))
}

// Delete は採用結果を削除する。求人の状態は元に戻らない。
// DELETE /api/admin/sonuclar/{id}
func (h *OutcomeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
