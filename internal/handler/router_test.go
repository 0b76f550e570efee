package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/istihdam/internal/account"
	"github.com/hitoshi/istihdam/internal/application"
	"github.com/hitoshi/istihdam/internal/middleware"
	"github.com/hitoshi/istihdam/internal/model"
)

// --- ルーター用スタブ ---

type stubSessionFinder struct {
	sessions map[string]*model.Session
}

func (s *stubSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return s.sessions[id], nil
}

type stubAccountFinder struct {
	accounts map[string]*model.Account
}

func (s *stubAccountFinder) FindByID(ctx context.Context, id string) (*model.Account, error) {
	return s.accounts[id], nil
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type routerFixture struct {
	router   http.Handler
	limiter  *middleware.RateLimiter
	citizens *mockCitizenService
	postings *mockPostingService
	apps     *mockApplicationService
}

const (
	staffSession   = "sess-staff"
	citizenSession = "sess-citizen"
)

// newRouterFixture はスタッフと市民のセッションを持つテスト用ルーターを構築する。
func newRouterFixture(t *testing.T, mutate func(*RouterDeps)) *routerFixture {
	t.Helper()
	expires := time.Now().Add(time.Hour)
	sessions := &stubSessionFinder{sessions: map[string]*model.Session{
		staffSession:   {ID: staffSession, AccountID: "acc-staff", ExpiresAt: expires},
		citizenSession: {ID: citizenSession, AccountID: "acc-1", ExpiresAt: expires},
	}}
	accounts := &stubAccountFinder{accounts: map[string]*model.Account{
		"acc-staff": {ID: "acc-staff", IsStaff: true, IsActive: true},
		"acc-1":     {ID: "acc-1", AccountType: model.AccountTypeCitizen, IsActive: true},
	}}

	f := &routerFixture{
		limiter:  middleware.NewRateLimiter(middleware.NewRateLimiterConfig(1000, 2)),
		citizens: &mockCitizenService{getByAccountFn: ownCitizenLookup},
		postings: &mockPostingService{},
		apps:     &mockApplicationService{},
	}
	t.Cleanup(f.limiter.Stop)

	deps := &RouterDeps{
		HealthChecker: pingFunc(func(ctx context.Context) error { return nil }),
		SessionFinder: sessions,
		AccountFinder: accounts,
		RateLimiter:   f.limiter,
		CSRFConfig:    middleware.CSRFConfig{},
		MaxPageSize:   100,
		AuthService: &mockAuthService{
			loginFn: func(ctx context.Context, username, password string) (*model.Session, *model.Account, error) {
				return nil, nil, model.NewInvalidCredentialsError()
			},
			registerFn: func(ctx context.Context, in account.RegisterInput) (*model.Account, error) {
				return &model.Account{ID: "acc-new", Username: in.Username}, nil
			},
		},
		AuthConfig:         AuthHandlerConfig{SessionMaxAge: 3600},
		GeographyService:   &mockGeographyService{},
		TaxonomyService:    &mockTaxonomyService{},
		CitizenService:     f.citizens,
		CompanyService:     &mockCompanyService{},
		PostingService:     f.postings,
		ApplicationService: f.apps,
		OutcomeService:     &mockOutcomeService{},
		PortalService:      &stubPortalService{},
	}
	if mutate != nil {
		mutate(deps)
	}
	f.router = NewRouter(deps)
	return f
}

func (f *routerFixture) do(method, path, body, session string, csrf bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if session != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: session})
	}
	if csrf {
		req.AddCookie(&http.Cookie{Name: "csrftoken", Value: "test-token"})
		req.Header.Set("X-CSRF-Token", "test-token")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// --- テスト ---

func TestNewRouter_Health(t *testing.T) {
	f := newRouterFixture(t, nil)
	if w := f.do(http.MethodGet, "/health", "", "", false); w.Code != http.StatusOK {
		t.Errorf("healthy status = %d", w.Code)
	}

	f = newRouterFixture(t, func(d *RouterDeps) {
		d.HealthChecker = pingFunc(func(ctx context.Context) error { return errors.New("connection refused") })
	})
	if w := f.do(http.MethodGet, "/health", "", "", false); w.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy status = %d", w.Code)
	}
}

func TestNewRouter_Metrics(t *testing.T) {
	f := newRouterFixture(t, func(d *RouterDeps) {
		d.MetricsHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("istihdam_http_responses_total 1\n"))
		})
	})
	w := f.do(http.MethodGet, "/metrics", "", "", false)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "istihdam_") {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestNewRouter_CSRFTokenEndpoint(t *testing.T) {
	f := newRouterFixture(t, nil)
	w := f.do(http.MethodGet, "/api/csrf-token", "", "", false)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	decodeBody(t, w, &body)
	if body["token"] == "" {
		t.Error("empty token")
	}
}

func TestNewRouter_SecurityHeaders(t *testing.T) {
	f := newRouterFixture(t, nil)
	w := f.do(http.MethodGet, "/health", "", "", false)
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("headers = %v", w.Header())
	}
}

func TestNewRouter_PublicRoutes(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.postings.listPublicFn = func(ctx context.Context, filter model.PostingFilter) ([]*model.Posting, int, error) {
		return nil, 0, nil
	}

	if w := f.do(http.MethodGet, "/api/ilanlar", "", "", false); w.Code != http.StatusOK {
		t.Errorf("GET /api/ilanlar status = %d", w.Code)
	}
	if w := f.do(http.MethodGet, "/api/pages/contact", "", "", false); w.Code != http.StatusOK {
		t.Errorf("GET /api/pages/contact status = %d", w.Code)
	}
}

func TestNewRouter_POSTRequiresCSRF(t *testing.T) {
	f := newRouterFixture(t, nil)
	body := `{"username":"ayse","password":"x","password_confirm":"x"}`

	if w := f.do(http.MethodPost, "/auth/register", body, "", false); w.Code != http.StatusForbidden {
		t.Errorf("without CSRF status = %d, want %d", w.Code, http.StatusForbidden)
	}
	if w := f.do(http.MethodPost, "/auth/register", body, "", true); w.Code != http.StatusCreated {
		t.Errorf("with CSRF status = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestNewRouter_AuthRateLimit(t *testing.T) {
	f := newRouterFixture(t, nil)
	body := `{"username":"ayse","password":"yanlis"}`

	for i := 0; i < 2; i++ {
		if w := f.do(http.MethodPost, "/auth/login", body, "", true); w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d", i+1, w.Code)
		}
	}
	if w := f.do(http.MethodPost, "/auth/login", body, "", true); w.Code != http.StatusTooManyRequests {
		t.Errorf("third attempt status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
}

func TestNewRouter_MeRoutesRequireSession(t *testing.T) {
	f := newRouterFixture(t, nil)
	for _, path := range []string{"/api/me/citizen", "/api/me/basvurular", "/auth/me"} {
		if w := f.do(http.MethodGet, path, "", "", false); w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want %d", path, w.Code, http.StatusUnauthorized)
		}
	}
}

func TestNewRouter_AdminRequiresStaff(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.apps.listFn = func(ctx context.Context, filter model.ApplicationFilter) ([]*model.Application, error) {
		return nil, nil
	}

	if w := f.do(http.MethodGet, "/api/admin/basvurular", "", "", false); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d", w.Code)
	}
	if w := f.do(http.MethodGet, "/api/admin/basvurular", "", citizenSession, false); w.Code != http.StatusForbidden {
		t.Errorf("citizen status = %d", w.Code)
	}
	if w := f.do(http.MethodGet, "/api/admin/basvurular", "", staffSession, false); w.Code != http.StatusOK {
		t.Errorf("staff status = %d", w.Code)
	}
}

func TestNewRouter_ApplyResolvesSlugWithoutViewCount(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.postings.getBySlugFn = func(ctx context.Context, value string) (*model.Posting, error) {
		return &model.Posting{ID: "ilan-1", Status: model.PostingPublished}, nil
	}
	f.postings.getPublicBySlugFn = func(ctx context.Context, value string) (*model.Posting, error) {
		t.Error("applying must not count as a view")
		return nil, nil
	}
	f.apps.submitFn = func(ctx context.Context, postingID, citizenID string, in application.SubmitInput) (*model.Application, error) {
		return &model.Application{ID: "app-1", PostingID: postingID, CitizenID: citizenID, Status: model.ApplicationPending}, nil
	}

	w := f.do(http.MethodPost, "/api/ilanlar/ankara-kaynakci/basvuru", `{}`, citizenSession, true)
	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestNewRouter_CitizenChildRoutes(t *testing.T) {
	f := newRouterFixture(t, nil)
	var calls []string
	f.citizens.addSkillFn = func(ctx context.Context, citizenID string, sk *model.Skill) error {
		calls = append(calls, "add:"+citizenID)
		return nil
	}
	f.citizens.updateSkillFn = func(ctx context.Context, citizenID string, sk *model.Skill) error {
		calls = append(calls, "update:"+citizenID+":"+sk.ID)
		return nil
	}

	if w := f.do(http.MethodPost, "/api/me/citizen/skills", `{"name":"Tesisat"}`, citizenSession, true); w.Code != http.StatusCreated {
		t.Errorf("own add status = %d", w.Code)
	}
	if w := f.do(http.MethodPut, "/api/admin/vatandaslar/cit-9/skills/sk-3", `{"name":"Tesisat"}`, staffSession, true); w.Code != http.StatusOK {
		t.Errorf("admin update status = %d", w.Code)
	}

	want := []string{"add:cit-1", "update:cit-9:sk-3"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestNewRouter_UnknownRoute(t *testing.T) {
	f := newRouterFixture(t, nil)
	w := f.do(http.MethodGet, "/api/bilinmeyen", "", "", false)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if body := decodeError(t, w); body.Code != model.ErrCodeNotFound {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeNotFound)
	}
}
