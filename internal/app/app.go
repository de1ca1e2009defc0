package app

import (
	"context"
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

	"github.com/hitoshi/aquire/internal/authgate"
	"github.com/hitoshi/aquire/internal/config"
	"github.com/hitoshi/aquire/internal/database"
	"github.com/hitoshi/aquire/internal/handler"
	"github.com/hitoshi/aquire/internal/logger"
	"github.com/hitoshi/aquire/internal/login"
	"github.com/hitoshi/aquire/internal/metrics"
	"github.com/hitoshi/aquire/internal/middleware"
	"github.com/hitoshi/aquire/internal/platform"
	"github.com/hitoshi/aquire/internal/repository"
	"github.com/hitoshi/aquire/internal/security"
	"github.com/hitoshi/aquire/internal/shell"
	"github.com/hitoshi/aquire/internal/view"
	"github.com/hitoshi/aquire/internal/worker/cleanup"
)

// errDatabaseRequired はDATABASE_URLが必要なサブコマンドで未設定の場合に返す。
var errDatabaseRequired = errors.New("DATABASE_URL is required for this command")

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. LOG_LEVELを反映する
	logger.SetupDefaultWithLevel(w, logger.ParseLevel(cfg.LogLevel))

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
		slog.Bool("database", cfg.UsesDatabase()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandWorker:
		return runWorker(ctx, cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// backend はサーバーとワーカーが共有するストレージ構成。
type backend struct {
	storage repository.AppStorage
	catalog repository.ProductCatalog
	health  handler.HealthChecker
	close   func() error
}

// openBackend はDATABASE_URLが設定されていればPostgreSQLに接続し、
// 未設定ならインメモリのストレージとサンプルカタログを使う。
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if !cfg.UsesDatabase() {
		slog.Warn("DATABASE_URL is not set, using in-memory storage and the sample catalog")
		return &backend{
			storage: repository.NewMemoryAppStorage(),
			catalog: repository.NewSeedProductCatalog(),
			close:   func() error { return nil },
		}, nil
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	return &backend{
		storage: repository.NewPostgresAppStorageRepo(db),
		catalog: repository.NewPostgresProductRepo(db),
		health:  db,
		close:   db.Close,
	}, nil
}

// server はHTTPハンドラーと停止処理の組。
type server struct {
	handler http.Handler
	stop    func()
}

// newServer は全依存関係をワイヤリングしてルーターを構築する。
func newServer(cfg *config.Config, b *backend, log *slog.Logger) (*server, error) {
	// 1. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// 2. シェル
	resolver, err := platform.NewResolver(cfg.ShellPlatform)
	if err != nil {
		return nil, fmt.Errorf("failed to create platform resolver: %w", err)
	}

	registryCfg := shell.DefaultRegistryConfig()
	registryCfg.IdleTimeout = cfg.RootIdleTimeout
	registryCfg.TransitionDuration = cfg.TransitionDuration
	registry := shell.NewRegistry(registryCfg, collector, log)

	// 3. 表示
	sanitizer := security.NewContentSanitizer()
	renderer, err := view.New(sanitizer)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	authenticator := login.NewAuthenticator(cfg.LoginAccounts)
	if authenticator.OpenMode() {
		slog.Warn("LOGIN_ACCOUNTS is empty, any well-formed email and password is accepted")
	}

	// 4. ハンドラー
	shellHandler := handler.NewShellHandler(handler.ShellHandlerDeps{
		Gate:          authgate.New(b.storage),
		Storage:       b.storage,
		Catalog:       b.catalog,
		Registry:      registry,
		Resolver:      resolver,
		Authenticator: authenticator,
		Renderer:      renderer,
		Logins:        collector,
		BrowseLimit:   cfg.BrowseLimit,
		Logger:        log,
	})

	// 5. ルーター
	// configのRateLimit*はreq/min単位
	rateLimiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfigPerMinute(cfg.RateLimitGeneral, cfg.RateLimitLogin),
	)

	router := handler.NewRouter(&handler.RouterDeps{
		Logger: log,
		DeviceConfig: middleware.DeviceConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
			MaxAge:       cfg.DeviceCookieMaxAge,
		},
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		HTTPMetrics:       collector,

		Shell:          shellHandler,
		API:            handler.NewAPIHandler(shellHandler, sanitizer),
		HealthChecker:  b.health,
		MetricsHandler: metrics.Handler(reg),
	})

	return &server{handler: router, stop: rateLimiter.Stop}, nil
}

// runServe はAPIサーバーモードで起動する。
// ctxがキャンセルされる（SIGINT/SIGTERM）とグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	srv, err := newServer(cfg, b, slog.Default())
	if err != nil {
		return err
	}
	defer srv.stop()

	// インメモリ構成ではworkerプロセスが同じストレージを参照できないため、
	// クリーンアップジョブをサーバー内で実行する
	if !cfg.UsesDatabase() {
		job := cleanup.NewCleanupJob(b.storage, slog.Default())
		job.RetentionDays = cfg.StorageRetentionDays
		go job.RunEvery(ctx, cfg.CleanupInterval)
	}

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      srv.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 保持期間を超えたデバイス保存値の削除をCLEANUP_INTERVALごとに実行する。
// ctxがキャンセルされるまでブロックする。
func runWorker(ctx context.Context, cfg *config.Config) error {
	if !cfg.UsesDatabase() {
		return errDatabaseRequired
	}

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	job := cleanup.NewCleanupJob(b.storage, slog.Default())
	job.RetentionDays = cfg.StorageRetentionDays

	slog.Info("worker starting",
		slog.Duration("cleanup_interval", cfg.CleanupInterval),
		slog.Int("retention_days", cfg.StorageRetentionDays),
	)

	job.RunEvery(ctx, cfg.CleanupInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if !cfg.UsesDatabase() {
		return errDatabaseRequired
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := database.SchemaVersion(cfg.DatabaseURL)
	if err != nil {
		return err
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("schema_version", uint64(version)),
		slog.Bool("dirty", dirty),
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
