package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/istihdam/internal/application"
	"github.com/hitoshi/istihdam/internal/model"
)

// ApplicationServiceInterface は応募ハンドラーが必要とするサービスインターフェース。
type ApplicationServiceInterface interface {
	Submit(ctx context.Context, postingID, citizenID string, in application.SubmitInput) (*model.Application, error)
	Review(ctx context.Context, id string, in application.ReviewInput) (*model.Application, error)
	Withdraw(ctx context.Context, id, citizenID string) (*model.Application, error)
	Get(ctx context.Context, id string) (*model.Application, error)
	Answers(ctx context.Context, id string) ([]*model.Answer, error)
	List(ctx context.Context, filter model.ApplicationFilter) ([]*model.Application, error)
	ListByCitizen(ctx context.Context, citizenID string, limit, offset uint64) ([]*model.Application, error)
	Delete(ctx context.Context, id string) error
}

// PostingResolver はslugから応募先の求人を解決する。
type PostingResolver interface {
	GetBySlug(ctx context.Context, value string) (*model.Posting, error)
}

// CitizenResolver はログイン中のアカウントの市民プロフィールを解決する。
type CitizenResolver interface {
	GetByAccount(ctx context.Context, accountID string) (*model.Citizen, error)
}

// ApplicationHandler は応募のHTTPハンドラー。
type ApplicationHandler struct {
	service     ApplicationServiceInterface
	postings    PostingResolver
	citizens    CitizenResolver
	maxPageSize int
}

// NewApplicationHandler はApplicationHandlerを生成する。
func NewApplicationHandler(
	service ApplicationServiceInterface,
	postings PostingResolver,
	citizens CitizenResolver,
	maxPageSize int,
) *ApplicationHandler {
	return &ApplicationHandler{
		service:     service,
		postings:    postings,
		citizens:    citizens,
		maxPageSize: maxPageSize,
	}
}

type answerRequest struct {
	QuestionID string `json:"question_id" validate:"required"`
	Answer     string `json:"answer"`
}

type submitRequest struct {
	ResumePath  string          `json:"resume_path" validate:"max=255"`
	CoverLetter string          `json:"cover_letter"`
	Answers     []answerRequest `json:"answers" validate:"dive"`
}

type reviewRequest struct {
	Status     string `json:"status" validate:"required,oneof=beklemede incelendi musakat red kabul iptal"`
	Evaluation string `json:"evaluation"`
	Score      *int   `json:"score"`
	IsRead     bool   `json:"is_read"`
	IsFavorite bool   `json:"is_favorite"`
}

type applicationDetailResponse struct {
	applicationResponse
	Answers []answerResponse `json:"answers"`
}

// ownCitizenID はログイン中のアカウントの市民IDを返す。
// 解決できない場合はエラーレスポンスを書き込んでfalseを返す。
func (h *ApplicationHandler) ownCitizenID(w http.ResponseWriter, r *http.Request) (string, bool) {
	accountID, ok := requireAccountID(w, r)
	if !ok {
		return "", false
	}
	c, err := h.citizens.GetByAccount(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return "", false
	}
	return c.ID, true
}

// Submit はログイン中の市民として求人に応募する。
// POST /api/ilanlar/{slug}/basvuru
func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	citizenID, ok := h.ownCitizenID(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	p, err := h.postings.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	answers := make([]application.AnswerInput, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, application.AnswerInput{QuestionID: a.QuestionID, Answer: a.Answer})
	}
	app, err := h.service.Submit(r.Context(), p.ID, citizenID, application.SubmitInput{
		ResumePath:  req.ResumePath,
		CoverLetter: req.CoverLetter,
		Answers:     answers,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOwnApplicationResponse(app))
}

// ListOwn はログイン中の市民の応募一覧を返す。
// GET /api/me/basvurular
func (h *ApplicationHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	citizenID, ok := h.ownCitizenID(w, r)
	if !ok {
		return
	}
	limit, offset := pageParams(r, h.maxPageSize)
	list, err := h.service.ListByCitizen(r.Context(), citizenID, limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[applicationResponse]{
		Items:  mapSlice(list, toOwnApplicationResponse),
		Total:  len(list),
		Limit:  limit,
		Offset: offset,
	})
}

// Withdraw はログイン中の市民が自分の応募を取り下げる。
// POST /api/me/basvurular/{id}/withdraw
func (h *ApplicationHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	citizenID, ok := h.ownCitizenID(w, r)
	if !ok {
		return
	}
	app, err := h.service.Withdraw(r.Context(), chi.URLParam(r, "id"), citizenID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOwnApplicationResponse(app))
}

// List は応募を絞り込んで返す。
// GET /api/admin/basvurular?posting_id=...&status=beklemede&is_read=false&is_favorite=true
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := pageParams(r, h.maxPageSize)
	list, err := h.service.List(r.Context(), model.ApplicationFilter{
		PostingID:  q.Get("posting_id"),
		CitizenID:  q.Get("citizen_id"),
		Status:     model.ApplicationStatus(q.Get("status")),
		IsRead:     boolParam(r, "is_read"),
		IsFavorite: boolParam(r, "is_favorite"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[applicationResponse]{
		Items:  mapSlice(list, toReviewerApplicationResponse),
		Total:  len(list),
		Limit:  limit,
		Offset: offset,
	})
}

// Get は応募を回答込みで返す。
// GET /api/admin/basvurular/{id}
func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	app, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	answers, err := h.service.Answers(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, applicationDetailResponse{
		applicationResponse: toReviewerApplicationResponse(app),
		Answers:             mapSlice(answers, toAnswerResponse),
	})
}

// Review は選考状態・評価・スコア・既読・お気に入りを更新する。
// PUT /api/admin/basvurular/{id}
func (h *ApplicationHandler) Review(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	app, err := h.service.Review(r.Context(), chi.URLParam(r, "id"), application.ReviewInput{
		Status:     model.ApplicationStatus(req.Status),
		Evaluation: req.Evaluation,
		Score:      req.Score,
		IsRead:     req.IsRead,
		IsFavorite: req.IsFavorite,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewerApplicationResponse(app))
}

// Delete は応募を削除する。
// DELETE /api/admin/basvurular/{id}
func (h *ApplicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
