package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/istihdam/internal/model"
	"github.com/hitoshi/istihdam/internal/posting"
)

type mockPostingService struct {
	PostingServiceInterface

	createFn          func(ctx context.Context, in posting.Input) (*model.Posting, error)
	transitionFn      func(ctx context.Context, id string, to model.PostingStatus) (*model.Posting, error)
	getFn             func(ctx context.Context, id string) (*model.Posting, error)
	getBySlugFn       func(ctx context.Context, value string) (*model.Posting, error)
	getPublicBySlugFn func(ctx context.Context, value string) (*model.Posting, error)
	loadDetailFn      func(ctx context.Context, p *model.Posting) (*posting.Detail, error)
	listFn            func(ctx context.Context, filter model.PostingFilter) ([]*model.Posting, int, error)
	listPublicFn      func(ctx context.Context, filter model.PostingFilter) ([]*model.Posting, int, error)
	rssFn             func(ctx context.Context, baseURL string, limit uint64) (string, error)
	addQuestionFn     func(ctx context.Context, postingID string, q *model.ScreeningQuestion) error
	deleteKeywordFn   func(ctx context.Context, postingID, id string) error
}

func (m *mockPostingService) Create(ctx context.Context, in posting.Input) (*model.Posting, error) {
	return m.createFn(ctx, in)
}

func (m *mockPostingService) Transition(ctx context.Context, id string, to model.PostingStatus) (*model.Posting, error) {
	return m.transitionFn(ctx, id, to)
}

func (m *mockPostingService) Get(ctx context.Context, id string) (*model.Posting, error) {
	return m.getFn(ctx, id)
}

func (m *mockPostingService) GetBySlug(ctx context.Context, value string) (*model.Posting, error) {
	return m.getBySlugFn(ctx, value)
}

func (m *mockPostingService) GetPublicBySlug(ctx context.Context, value string) (*model.Posting, error) {
	return m.getPublicBySlugFn(ctx, value)
}

func (m *mockPostingService) LoadDetail(ctx context.Context, p *model.Posting) (*posting.Detail, error) {
	if m.loadDetailFn != nil {
		return m.loadDetailFn(ctx, p)
	}
	return &posting.Detail{Posting: p}, nil
}

func (m *mockPostingService) List(ctx context.Context, filter model.PostingFilter) ([]*model.Posting, int, error) {
	return m.listFn(ctx, filter)
}

func (m *mockPostingService) ListPublic(ctx context.Context, filter model.PostingFilter) ([]*model.Posting, int, error) {
	return m.listPublicFn(ctx, filter)
}

func (m *mockPostingService) RSS(ctx context.Context, baseURL string, limit uint64) (string, error) {
	return m.rssFn(ctx, baseURL, limit)
}

func (m *mockPostingService) AddQuestion(ctx context.Context, postingID string, q *model.ScreeningQuestion) error {
	return m.addQuestionFn(ctx, postingID, q)
}

func (m *mockPostingService) DeleteKeyword(ctx context.Context, postingID, id string) error {
	return m.deleteKeywordFn(ctx, postingID, id)
}

var _ PostingHandlerService = (*mockPostingService)(nil)

func hiddenSalaryPosting() *model.Posting {
	return &model.Posting{
		ID:           "ilan-1",
		Title:        "Kaynakçı",
		Slug:         model.StringPtr("ankara-kaynakci"),
		Status:       model.PostingPublished,
		SalaryInfo:   "35.000 TL",
		SalaryHidden: true,
	}
}

// --- テスト ---

func TestPostingHandler_GetPublic_HidesSalary(t *testing.T) {
	svc := &mockPostingService{
		getPublicBySlugFn: func(ctx context.Context, value string) (*model.Posting, error) {
			if value != "ankara-kaynakci" {
				t.Errorf("slug = %s", value)
			}
			return hiddenSalaryPosting(), nil
		},
		loadDetailFn: func(ctx context.Context, p *model.Posting) (*posting.Detail, error) {
			return &posting.Detail{
				Posting:  p,
				Keywords: []*model.Keyword{{ID: "k-1", Keyword: "kaynak"}},
			}, nil
		},
	}
	h := NewPostingHandler(svc, PostingHandlerConfig{MaxPageSize: 100})
	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/ilanlar/ankara-kaynakci", nil), "slug", "ankara-kaynakci")
	w := httptest.NewRecorder()

	h.GetPublic(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp postingDetailResponse
	decodeBody(t, w, &resp)
	if resp.SalaryInfo != "" || !resp.SalaryHidden {
		t.Errorf("salary leaked: %q", resp.SalaryInfo)
	}
	if len(resp.Keywords) != 1 || resp.Questions == nil {
		t.Errorf("detail = %+v", resp)
	}
}

func TestPostingHandler_Get_AdminSeesSalary(t *testing.T) {
	svc := &mockPostingService{
		getFn: func(ctx context.Context, id string) (*model.Posting, error) { return hiddenSalaryPosting(), nil },
	}
	h := NewPostingHandler(svc, PostingHandlerConfig{})
	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/admin/ilanlar/ilan-1", nil), "id", "ilan-1")
	w := httptest.NewRecorder()

	h.Get(w, req)

	var resp postingDetailResponse
	decodeBody(t, w, &resp)
	if resp.SalaryInfo != "35.000 TL" {
		t.Errorf("salary = %q", resp.SalaryInfo)
	}
}

func TestPostingHandler_GetPublic_NotPublished(t *testing.T) {
	svc := &mockPostingService{
		getPublicBySlugFn: func(ctx context.Context, value string) (*model.Posting, error) {
			return nil, model.NewNotFoundError("求人", value)
		},
	}
	h := NewPostingHandler(svc, PostingHandlerConfig{})
	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/ilanlar/taslak-ilan", nil), "slug", "taslak-ilan")
	w := httptest.NewRecorder()

	h.GetPublic(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestPostingHandler_ListPublic_Filters(t *testing.T) {
	var got model.PostingFilter
	svc := &mockPostingService{
		listPublicFn: func(ctx context.Context, filter model.PostingFilter) ([]*model.Posting, int, error) {
			got = filter
			return []*model.Posting{hiddenSalaryPosting()}, 1, nil
		},
	}
	h := NewPostingHandler(svc, PostingHandlerConfig{MaxPageSize: 100})
	req := httptest.NewRequest(http.MethodGet, "/api/ilanlar?work_model=tam_zamanli&featured=true&q=kaynak&limit=10", nil)
	w := httptest.NewRecorder()

	h.ListPublic(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got.WorkModel != model.WorkModel("tam_zamanli") || got.Featured == nil || !*got.Featured || got.Query != "kaynak" || got.Limit != 10 {
		t.Errorf("filter = %+v", got)
	}
	var resp listResponse[postingResponse]
	decodeBody(t, w, &resp)
	if len(resp.Items) != 1 || resp.Items[0].SalaryInfo != "" {
		t.Errorf("items = %+v", resp.Items)
	}
}

func TestPostingHandler_List_InvalidStatus(t *testing.T) {
	h := NewPostingHandler(&mockPostingService{}, PostingHandlerConfig{})
	req := httptest.NewRequest(http.MethodGet, "/api/admin/ilanlar?status=published", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestPostingHandler_Create(t *testing.T) {
	var got posting.Input
	svc := &mockPostingService{
		createFn: func(ctx context.Context, in posting.Input) (*model.Posting, error) {
			got = in
			return &model.Posting{ID: "ilan-2", Title: in.Title, Status: model.PostingDraft}, nil
		},
	}
	h := NewPostingHandler(svc, PostingHandlerConfig{})
	body := `{"title":"Aşçı","company_id":"firma-1","position":"Aşçı","application_end":"2026-12-31","salary_hidden":false}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/ilanlar", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got.ApplicationEnd == nil || formatDate(got.ApplicationEnd) != "2026-12-31" {
		t.Errorf("application end = %v", got.ApplicationEnd)
	}
	if got.SalaryHidden == nil || *got.SalaryHidden {
		t.Errorf("salary hidden = %v", got.SalaryHidden)
	}
}

func TestPostingHandler_Create_MissingCompany(t *testing.T) {
	h := NewPostingHandler(&mockPostingService{}, PostingHandlerConfig{})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/ilanlar", strings.NewReader(`{"title":"Aşçı","position":"Aşçı"}`))
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if e := decodeError(t, w); e.Field != "company_id" {
		t.Errorf("field = %s", e.Field)
	}
}

func TestPostingHandler_Transition(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
	}{
		{"publish", `{"status":"yayinda"}`, nil, http.StatusOK},
		{"illegal transition", `{"status":"taslak"}`, model.NewInvalidTransitionError("sonlandi", "taslak"), http.StatusConflict},
		{"unknown status", `{"status":"archived"}`, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPostingService{
				transitionFn: func(ctx context.Context, id string, to model.PostingStatus) (*model.Posting, error) {
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &model.Posting{ID: id, Status: to}, nil
				},
			}
			h := NewPostingHandler(svc, PostingHandlerConfig{})
			req := httptest.NewRequest(http.MethodPost, "/api/admin/ilanlar/ilan-1/status", strings.NewReader(tt.body))
			req = withURLParams(req, "id", "ilan-1")
			w := httptest.NewRecorder()

			h.Transition(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestPostingHandler_SaveQuestion_OptionsNeverNull(t *testing.T) {
	svc := &mockPostingService{
		addQuestionFn: func(ctx context.Context, postingID string, q *model.ScreeningQuestion) error {
			if postingID != "ilan-1" {
				t.Errorf("posting = %s", postingID)
			}
			q.ID = "q-1"
			return nil
		},
	}
	h := NewPostingHandler(svc, PostingHandlerConfig{})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/ilanlar/ilan-1/questions",
		strings.NewReader(`{"question":"Ehliyetiniz var mı?","type":"evet_hayir","required":true}`))
	req = withURLParams(req, "id", "ilan-1")
	w := httptest.NewRecorder()

	h.SaveQuestion(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"options":[]`) {
		t.Errorf("options must be an empty array: %s", w.Body.String())
	}
}

func TestPostingHandler_DeleteKeyword(t *testing.T) {
	var gotPosting, gotID string
	svc := &mockPostingService{
		deleteKeywordFn: func(ctx context.Context, postingID, id string) error {
			gotPosting, gotID = postingID, id
			return nil
		},
	}
	h := NewPostingHandler(svc, PostingHandlerConfig{})
	req := withURLParams(httptest.NewRequest(http.MethodDelete, "/api/admin/ilanlar/ilan-1/keywords/k-1", nil),
		"id", "ilan-1", "itemID", "k-1")
	w := httptest.NewRecorder()

	h.DeleteKeyword(w, req)

	if w.Code != http.StatusNoContent || gotPosting != "ilan-1" || gotID != "k-1" {
		t.Errorf("status = %d, args = %s/%s", w.Code, gotPosting, gotID)
	}
}

func TestPostingHandler_RSS(t *testing.T) {
	svc := &mockPostingService{
		rssFn: func(ctx context.Context, baseURL string, limit uint64) (string, error) {
			if baseURL != "https://istihdam.example" {
				t.Errorf("baseURL = %s", baseURL)
			}
			return `<?xml version="1.0"?><rss version="2.0"></rss>`, nil
		},
	}
	h := NewPostingHandler(svc, PostingHandlerConfig{BaseURL: "https://istihdam.example"})
	w := httptest.NewRecorder()

	h.RSS(w, httptest.NewRequest(http.MethodGet, "/ilanlar/rss", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/rss+xml") {
		t.Errorf("content type = %s", ct)
	}
	if !strings.Contains(w.Body.String(), "<rss") {
		t.Errorf("body = %s", w.Body.String())
	}
}
