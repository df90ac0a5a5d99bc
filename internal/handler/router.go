package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/personcache/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Store  PersonStore
	Logger *slog.Logger

	// Events は変更通知のWebSocketハンドラー。nilの場合はルートを登録しない。
	Events http.Handler
	// Metrics は/metricsで公開するハンドラー。nilの場合はルートを登録しない。
	Metrics http.Handler
	// HTTPMetrics はレスポンスのステータスコードの記録先。nilの場合は記録しない。
	HTTPMetrics middleware.HTTPStatusRecorder

	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → HTTPMetrics → Recovery → SecurityHeaders → CORS → RateLimit(/api のみ)
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewHTTPMetricsMiddleware(deps.HTTPMetrics))
	}
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	// OPTIONSプリフライトはルーティング前に応答する必要があるため最上位に置く
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	// --- 運用エンドポイント ---
	r.Get("/health", Health)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	personHandler := NewPersonHandler(deps.Store, logger)

	// --- API ---
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		r.Route("/api/people", func(r chi.Router) {
			r.Get("/", personHandler.List)
			r.Post("/refresh", personHandler.Refresh)
			if deps.Events != nil {
				r.Method(http.MethodGet, "/events", deps.Events)
			}

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", personHandler.Get)
				r.Patch("/", personHandler.Update)
				r.Delete("/", personHandler.Delete)
			})
		})
	})

	return r
}
