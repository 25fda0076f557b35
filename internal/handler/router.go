package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/hoshokan/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Metrics           middleware.HTTPStatusRecorder // nilの場合は記録しない

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 製品・保証
	ProductService  ProductServiceInterface
	WarrantyService WarrantyServiceInterface
	WarrantyConfig  WarrantyHandlerConfig

	// 集計
	StatsService StatsServiceInterface

	// 管理者
	AdminService AdminServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Logging → Recovery → Session → RateLimit(General)
//
// 認証ルート（/auth/register, /auth/login, /auth/logout）とヘルスチェックは
// セッションミドルウェアの外に配置する。管理者ルートはRequireAdminを追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効くミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewRecoveryMiddleware())

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	productHandler := NewProductHandler(deps.ProductService)
	warrantyHandler := NewWarrantyHandler(deps.WarrantyService, deps.WarrantyConfig)
	statsHandler := NewStatsHandler(deps.StatsService)
	adminHandler := NewAdminHandler(deps.AdminService, deps.StatsService)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		// /auth/me のみセッションが必要
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewSessionMiddleware(deps.SessionFinder, deps.UserFinder))
			r.Get("/me", authHandler.Me)
		})
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder, deps.UserFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 製品管理
		r.Route("/api/products", func(r chi.Router) {
			r.Get("/", productHandler.ListProducts)
			r.Post("/", productHandler.CreateProduct)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", productHandler.GetProduct)
				r.Put("/", productHandler.UpdateProduct)
				r.Delete("/", productHandler.DeleteProduct)
				r.Get("/service-info", productHandler.ListProductServiceInfos)
			})
		})

		// 保証管理
		r.Route("/api/warranties", func(r chi.Router) {
			r.Get("/", warrantyHandler.ListWarranties)
			r.Post("/", warrantyHandler.CreateWarranty)

			// 集計（/{id}より先にマッチさせる）
			r.Get("/stats/overview", statsHandler.Overview)
			r.Get("/expiring", statsHandler.ExpiringSoon)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", warrantyHandler.GetWarranty)
				r.Put("/", warrantyHandler.UpdateWarranty)
				r.Delete("/", warrantyHandler.DeleteWarranty)

				// 書類アップロードはアップロード専用レート制限を追加
				r.With(deps.RateLimiter.UploadMiddleware()).Post("/documents", warrantyHandler.UploadDocument)
				r.Delete("/documents/{docID}", warrantyHandler.DeleteDocument)
			})
		})

		// 管理者ルート
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(middleware.NewRequireAdminMiddleware())

			r.Get("/dashboard/stats", adminHandler.Dashboard)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", adminHandler.ListUsers)
				r.Put("/{id}/role", adminHandler.ChangeUserRole)
				r.Delete("/{id}", adminHandler.DeleteUser)
			})

			r.Get("/warranties/expiring", adminHandler.ExpiringSoonAll)

			r.Route("/service-info", func(r chi.Router) {
				r.Get("/", adminHandler.ListServiceInfos)
				r.Post("/", adminHandler.CreateServiceInfo)
				r.Put("/{id}", adminHandler.UpdateServiceInfo)
				r.Delete("/{id}", adminHandler.DeleteServiceInfo)
			})

			r.Get("/audit-logs", adminHandler.ListAuditLogs)
		})
	})

	return r
}
