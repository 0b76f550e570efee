package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/istihdam/internal/middleware"
)

// HealthChecker はDB疎通確認のインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	SessionFinder     middleware.SessionFinder
	AccountFinder     middleware.AccountFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	Logger            *slog.Logger
	StatusRecorder    middleware.StatusRecorder
	MetricsHandler    http.Handler
	MaxPageSize       int

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ドメイン
	GeographyService   GeographyServiceInterface
	TaxonomyService    TaxonomyServiceInterface
	CitizenService     CitizenServiceInterface
	CompanyService     CompanyServiceInterface
	PostingService     PostingHandlerService
	PostingConfig      PostingHandlerConfig
	ApplicationService ApplicationServiceInterface
	OutcomeService     OutcomeServiceInterface
	PortalService      PortalServiceInterface
}

// PostingHandlerService は求人ハンドラーと応募先の解決の両方に使う求人サービス。
type PostingHandlerService interface {
	PostingServiceInterface
	PostingResolver
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → OptionalSession → Logging → RateLimit(General) → CSRF
//
// /auth/login と /auth/register には認証専用のレート制限を追加し、
// /api/admin 配下はセッション必須かつスタッフのみとする。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.NotFound(middleware.RouteNotFoundHandler)
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler)

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.CSRFConfig.CookieSecure))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewOptionalSessionMiddleware(deps.SessionFinder))
	r.Use(middleware.NewLoggingMiddleware(logger, deps.StatusRecorder))

	// --- 監視用（レート制限・CSRFの対象外） ---
	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	geoHandler := NewGeographyHandler(deps.GeographyService)
	taxHandler := NewTaxonomyHandler(deps.TaxonomyService)
	citizenHandler := NewCitizenHandler(deps.CitizenService, deps.MaxPageSize)
	companyHandler := NewCompanyHandler(deps.CompanyService, deps.MaxPageSize)
	postingConfig := deps.PostingConfig
	if postingConfig.MaxPageSize == 0 {
		postingConfig.MaxPageSize = deps.MaxPageSize
	}
	postingHandler := NewPostingHandler(deps.PostingService, postingConfig)
	appHandler := NewApplicationHandler(deps.ApplicationService, deps.PostingService, deps.CitizenService, deps.MaxPageSize)
	outcomeHandler := NewOutcomeHandler(deps.OutcomeService, deps.MaxPageSize)
	portalHandler := NewPortalHandler(deps.PortalService)

	requireSession := middleware.NewSessionMiddleware(deps.SessionFinder)

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

		// --- 認証 ---
		r.Route("/auth", func(r chi.Router) {
			r.With(deps.RateLimiter.AuthMiddleware()).Post("/register", authHandler.Register)
			r.With(deps.RateLimiter.AuthMiddleware()).Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.With(requireSession).Get("/me", authHandler.Me)
		})

		// --- 公開ページ ---
		r.Get("/ilanlar/rss", postingHandler.RSS)
		r.Route("/api", func(r chi.Router) {
			r.Get("/home", portalHandler.Home)
			r.Get("/pages/{key}", portalHandler.Page)

			r.Get("/iller", geoHandler.ListProvinces)
			r.Get("/iller/{slug}", geoHandler.GetProvince)
			r.Get("/iller/{slug}/ilceler", geoHandler.ListDistricts)
			r.Get("/ilceler/{id}/mahalleler", geoHandler.ListNeighborhoods)

			r.Get("/sektorler", taxHandler.ListSectors)
			r.Get("/sektorler/{slug}", taxHandler.GetSector)
			r.Get("/meslekler", taxHandler.ListOccupations)
			r.Get("/meslekler/{slug}", taxHandler.GetOccupation)

			r.Get("/firmalar", companyHandler.ListPublic)
			r.Get("/firmalar/{slug}", companyHandler.GetPublic)
			r.Get("/ustalar", citizenHandler.ListCraftsmen)
			r.Get("/ilanlar", postingHandler.ListPublic)
			r.Get("/ilanlar/{slug}", postingHandler.GetPublic)
			r.With(requireSession).Post("/ilanlar/{slug}/basvuru", appHandler.Submit)

			// --- ログイン中のアカウント自身 ---
			r.Route("/me", func(r chi.Router) {
				r.Use(requireSession)

				r.Put("/account", authHandler.UpdateAccount)
				r.Delete("/account", authHandler.DeleteAccount)

				r.Route("/citizen", func(r chi.Router) {
					r.Get("/", citizenHandler.GetOwn)
					r.Put("/", citizenHandler.SaveOwn)
					mountCitizenChildren(r, citizenHandler)
				})

				r.Get("/basvurular", appHandler.ListOwn)
				r.Post("/basvurular/{id}/withdraw", appHandler.Withdraw)
			})

			// --- 管理 ---
			r.Route("/admin", func(r chi.Router) {
				r.Use(requireSession)
				r.Use(middleware.NewRequireStaffMiddleware(deps.AccountFinder))

				mountPlaces(r, "/iller", geoHandler.CreateProvince, geoHandler.UpdateProvince, geoHandler.DeleteProvince)
				mountPlaces(r, "/ilceler", geoHandler.CreateDistrict, geoHandler.UpdateDistrict, geoHandler.DeleteDistrict)
				mountPlaces(r, "/mahalleler", geoHandler.CreateNeighborhood, geoHandler.UpdateNeighborhood, geoHandler.DeleteNeighborhood)
				mountPlaces(r, "/sektorler", taxHandler.CreateSector, taxHandler.UpdateSector, taxHandler.DeleteSector)
				mountPlaces(r, "/meslekler", taxHandler.CreateOccupation, taxHandler.UpdateOccupation, taxHandler.DeleteOccupation)

				r.Route("/vatandaslar", func(r chi.Router) {
					r.Get("/", citizenHandler.List)
					r.Route("/{citizenID}", func(r chi.Router) {
						r.Get("/", citizenHandler.Get)
						r.Put("/", citizenHandler.Update)
						r.Delete("/", citizenHandler.Delete)
						mountCitizenChildren(r, citizenHandler)
					})
				})

				r.Route("/firmalar", func(r chi.Router) {
					r.Get("/", companyHandler.List)
					r.Post("/", companyHandler.Create)
					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", companyHandler.Get)
						r.Put("/", companyHandler.Update)
						r.Delete("/", companyHandler.Delete)
						r.Post("/logo", companyHandler.ImportLogo)
					})
				})

				r.Route("/ilanlar", func(r chi.Router) {
					r.Get("/", postingHandler.List)
					r.Post("/", postingHandler.Create)
					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", postingHandler.Get)
						r.Put("/", postingHandler.Update)
						r.Delete("/", postingHandler.Delete)
						r.Post("/status", postingHandler.Transition)

						r.Post("/keywords", postingHandler.AddKeyword)
						r.Delete("/keywords/{itemID}", postingHandler.DeleteKeyword)
						r.Post("/languages", postingHandler.SaveLanguage)
						r.Put("/languages/{itemID}", postingHandler.SaveLanguage)
						r.Delete("/languages/{itemID}", postingHandler.DeleteLanguage)
						r.Post("/questions", postingHandler.SaveQuestion)
						r.Put("/questions/{itemID}", postingHandler.SaveQuestion)
						r.Delete("/questions/{itemID}", postingHandler.DeleteQuestion)

						r.Get("/sonuc", outcomeHandler.GetByPosting)
						r.Put("/sonuc", outcomeHandler.Save)
					})
				})

				r.Route("/basvurular", func(r chi.Router) {
					r.Get("/", appHandler.List)
					r.Get("/{id}", appHandler.Get)
					r.Put("/{id}", appHandler.Review)
					r.Delete("/{id}", appHandler.Delete)
				})

				r.Route("/sonuclar", func(r chi.Router) {
					r.Get("/", outcomeHandler.List)
					r.Get("/{id}", outcomeHandler.Get)
					r.Delete("/{id}", outcomeHandler.Delete)
				})
			})
		})
	})

	return r
}

// mountPlaces は作成・更新・削除のみを持つ管理ルートを登録する。
func mountPlaces(r chi.Router, pattern string, create, update, del http.HandlerFunc) {
	r.Post(pattern, create)
	r.Put(pattern+"/{id}", update)
	r.Delete(pattern+"/{id}", del)
}

// mountCitizenChildren は市民の子コレクションのルートを登録する。
func mountCitizenChildren(r chi.Router, h *CitizenHandler) {
	r.Post("/educations", h.SaveEducation)
	r.Put("/educations/{itemID}", h.SaveEducation)
	r.Delete("/educations/{itemID}", h.DeleteEducation)

	r.Post("/work-experiences", h.SaveWorkExperience)
	r.Put("/work-experiences/{itemID}", h.SaveWorkExperience)
	r.Delete("/work-experiences/{itemID}", h.DeleteWorkExperience)

	r.Post("/skills", h.SaveSkill)
	r.Put("/skills/{itemID}", h.SaveSkill)
	r.Delete("/skills/{itemID}", h.DeleteSkill)

	r.Post("/certificates", h.SaveCertificate)
	r.Put("/certificates/{itemID}", h.SaveCertificate)
	r.Delete("/certificates/{itemID}", h.DeleteCertificate)

	r.Post("/craft-specialties", h.SaveCraftSpecialty)
	r.Put("/craft-specialties/{itemID}", h.SaveCraftSpecialty)
	r.Delete("/craft-specialties/{itemID}", h.DeleteCraftSpecialty)

	r.Put("/working-hours", h.SetWorkingHours)
	r.Delete("/working-hours/{itemID}", h.DeleteWorkingHours)
}

// healthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
// GET /health
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := checker.PingContext(ctx); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
