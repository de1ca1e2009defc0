package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/aquire/internal/middleware"
	"github.com/hitoshi/aquire/internal/view"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	DeviceConfig      middleware.DeviceConfig
	CSRFConfig        middleware.CSRFConfig
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	HTTPMetrics       middleware.HTTPMetricsRecorder

	// ハンドラー
	Shell          *ShellHandler
	API            *APIHandler
	HealthChecker  HealthChecker
	MetricsHandler http.Handler
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders → Device → CSRF → RateLimit(General)
//
// /health、/metrics、/static/* はDevice以降のチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())

	// --- デバイス不要のルート ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(view.Static())))

	// --- デバイスCookieが必要なルート ---
	// ミドルウェアスタック: Device → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewDeviceMiddleware(deps.DeviceConfig))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ルートゲート
		r.Get("/", deps.Shell.Index)
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", deps.Shell.Login)
		r.Post("/logout", deps.Shell.Logout)

		// ナビゲーション（空のセクションは未選択の報告）
		r.Post("/sections/", deps.Shell.SelectSection)
		r.Post("/sections/{section}", deps.Shell.SelectSection)

		// プレビュー
		r.Post("/preview", deps.Shell.Present)
		r.Post("/preview/dismiss", deps.Shell.Dismiss)

		r.Post("/debug/toggle", deps.Shell.ToggleDebug)

		// JSON API
		r.Route("/api", func(r chi.Router) {
			if deps.CORSAllowedOrigin != "" {
				r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
			}
			r.Get("/shell", deps.API.GetShell)
			r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))
		})
	})

	return r
}
