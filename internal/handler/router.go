package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/contactman/internal/metrics"
	"github.com/hitoshi/contactman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 連絡先
	ContactService ContactServiceInterface

	// 認証
	AuthService    AuthServiceInterface
	SessionDeleter SessionDeleter

	// 運用
	HealthChecker    HealthChecker
	MetricsCollector metrics.MetricsCollector
	MetricsGatherer  prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Metrics → Session → RateLimit
//
// /health と /metrics はミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.MetricsCollector != nil {
		r.Use(metrics.NewHTTPMiddleware(deps.MetricsCollector))
	}

	contactHandler := NewContactHandler(deps.ContactService)
	authHandler := NewAuthHandler(deps.AuthService, deps.SessionDeleter)

	// --- 認証不要のルート ---

	healthHandler := NewHealthHandler(deps.HealthChecker)
	r.Get("/health", healthHandler.Health)

	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))

		// セッション管理
		r.Route("/auth", func(r chi.Router) {
			r.Get("/me", authHandler.Me)
			r.Post("/logout", authHandler.Logout)
		})

		// 連絡先管理（全エンドポイントにユーザー×エンドポイント単位のレート制限を適用）
		r.Route("/contacts", func(r chi.Router) {
			r.Use(deps.RateLimiter.Middleware())

			r.Get("/", contactHandler.ListContacts)
			r.Post("/", contactHandler.CreateContact)

			r.Get("/search/{value}", contactHandler.SearchContacts)
			r.Get("/birthday/next-week", contactHandler.BirthdayNextWeek)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", contactHandler.GetContact)
				r.Put("/", contactHandler.UpdateContact)
				r.Delete("/", contactHandler.DeleteContact)
			})
		})
	})

	return r
}
