package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/istihdam/internal/account"
	"github.com/hitoshi/istihdam/internal/application"
	"github.com/hitoshi/istihdam/internal/citizen"
	"github.com/hitoshi/istihdam/internal/company"
	"github.com/hitoshi/istihdam/internal/config"
	"github.com/hitoshi/istihdam/internal/database"
	"github.com/hitoshi/istihdam/internal/geography"
	"github.com/hitoshi/istihdam/internal/handler"
	"github.com/hitoshi/istihdam/internal/logger"
	"github.com/hitoshi/istihdam/internal/media"
	"github.com/hitoshi/istihdam/internal/metrics"
	"github.com/hitoshi/istihdam/internal/middleware"
	"github.com/hitoshi/istihdam/internal/outcome"
	"github.com/hitoshi/istihdam/internal/portal"
	"github.com/hitoshi/istihdam/internal/posting"
	"github.com/hitoshi/istihdam/internal/repository"
	"github.com/hitoshi/istihdam/internal/security"
	"github.com/hitoshi/istihdam/internal/taxonomy"
	"github.com/hitoshi/istihdam/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込み前にログを使えるようにする
	logger.SetupDefault(w, os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg, migrateAction(args))
	case CommandCreateAdmin:
		username, password := adminCredentials(args, cfg.AdminUsername, cfg.AdminPassword)
		return runCreateAdmin(cfg, username, password)
	default:
		return runServe(cfg)
	}
}

// connect はDB接続を開き、疎通するまで再試行する。
func connect(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := database.WaitForConnection(ctx, db, uint64(max(cfg.DBConnectRetries, 0))); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)
	return db, nil
}

// newRegistry はGo・プロセスの標準メトリクスを登録したレジストリを返す。
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. リポジトリの初期化
	accountRepo := repository.NewPostgresAccountRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	geoRepo := repository.NewPostgresGeographyRepo(db)
	taxonomyRepo := repository.NewPostgresTaxonomyRepo(db)
	citizenRepo := repository.NewPostgresCitizenRepo(db)
	companyRepo := repository.NewPostgresCompanyRepo(db)
	postingRepo := repository.NewPostgresPostingRepo(db)
	applicationRepo := repository.NewPostgresApplicationRepo(db)
	outcomeRepo := repository.NewPostgresOutcomeRepo(db)

	// 3. メトリクス・セキュリティ・メディアの初期化
	reg := newRegistry()
	collector := metrics.NewCollector(reg)

	sanitizer := security.NewRichTextSanitizer()
	urlGuard := security.NewURLGuard()
	logoFetcher := media.NewLogoFetcher(urlGuard, media.LogoFetcherConfig{
		Timeout: cfg.LogoFetchTimeout,
		MaxSize: cfg.LogoMaxSize,
	})
	storage := media.NewStorage(cfg.MediaRoot)

	// 4. ドメインサービスの初期化
	accountService := account.NewService(accountRepo, sessionRepo, account.ServiceConfig{
		SessionMaxAge: cfg.SessionMaxAge,
	})
	geoService := geography.NewService(geoRepo)
	taxonomyService := taxonomy.NewService(taxonomyRepo)
	citizenService := citizen.NewService(citizenRepo, accountRepo, geoRepo, urlGuard)
	companyService := company.NewService(
		companyRepo, geoRepo, accountRepo,
		sanitizer, urlGuard, logoFetcher, storage, collector,
	)
	postingService := posting.NewService(postingRepo, companyRepo, sanitizer, collector)
	applicationService := application.NewService(applicationRepo, postingRepo, citizenRepo, collector)
	outcomeService := outcome.NewService(outcomeRepo, postingRepo, collector)
	portalService := portal.NewService(companyRepo, citizenRepo, postingRepo)

	// 5. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitAuth),
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		HealthChecker:     db,
		SessionFinder:     sessionRepo,
		AccountFinder:     accountRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		Logger:         slog.Default(),
		StatusRecorder: collector,
		MetricsHandler: metrics.Handler(reg),
		MaxPageSize:    cfg.PageSizeMax,

		AuthService: accountService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		GeographyService: geoService,
		TaxonomyService:  taxonomyService,
		CitizenService:   citizenService,
		CompanyService:   companyService,
		PostingService:   postingService,
		PostingConfig: handler.PostingHandlerConfig{
			BaseURL:     cfg.BaseURL,
			MaxPageSize: cfg.PageSizeMax,
		},
		ApplicationService: applicationService,
		OutcomeService:     outcomeService,
		PortalService:      portalService,
	}

	router := handler.NewRouter(deps)

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return serveUntilSignal(server, "API server")
}

// serveUntilSignal はサーバーを起動し、SIGINTまたはSIGTERMでグレースフルシャットダウンする。
func serveUntilSignal(server *http.Server, name string) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		slog.Info(name+" starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("%s listen error: %w", name, err)
	case <-stop:
	}
	slog.Info("shutting down " + name + "...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("%s shutdown failed: %w", name, err)
	}

	slog.Info(name + " stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 期限切れセッションの定期削除を行い、/metricsを公開する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	db, err := connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	reg := newRegistry()
	collector := metrics.NewCollector(reg)

	sessionRepo := repository.NewPostgresSessionRepo(db)
	job := cleanup.NewCleanupJob(sessionRepo, collector, slog.Default())
	scheduler := cleanup.NewScheduler(job, cfg.SessionCleanupSchedule)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start cleanup scheduler: %w", err)
	}
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      metrics.SetupMetricsRoute(reg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return serveUntilSignal(server, "worker")
}

// runMigrate はデータベースマイグレーションを実行する。
// actionは"up"（未適用をすべて適用）、"down"（1段階戻す）、"version"（現在の版を表示）。
func runMigrate(cfg *config.Config, action string) error {
	slog.Info("running database migrations",
		slog.String("action", action),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	switch action {
	case "up":
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	case "down":
		if err := database.RollbackMigration(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration rollback failed: %w", err)
		}
	case "version":
		version, dirty, err := database.MigrationVersion(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to read migration version: %w", err)
		}
		slog.Info("current migration version",
			slog.Uint64("version", uint64(version)),
			slog.Bool("dirty", dirty),
		)
		return nil
	default:
		return fmt.Errorf("unknown migrate action %q (want up, down or version)", action)
	}

	slog.Info("database migrations completed successfully", slog.String("action", action))
	return nil
}

// runCreateAdmin はスタッフ権限を持つ管理者アカウントを作成する。
func runCreateAdmin(cfg *config.Config, username, password string) error {
	if username == "" || password == "" {
		return errors.New("create-admin requires a username and password (args or ADMIN_USERNAME/ADMIN_PASSWORD)")
	}

	db, err := connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := account.NewService(
		repository.NewPostgresAccountRepo(db),
		repository.NewPostgresSessionRepo(db),
		account.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	acc, err := svc.CreateAdmin(ctx, username, password)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	slog.Info("admin account created",
		slog.String("account_id", acc.ID),
		slog.String("username", acc.Username),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
