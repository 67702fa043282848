package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/cliptube/internal/metrics"
	"github.com/hitoshi/cliptube/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	Logger            *slog.Logger

	// メトリクス
	Metrics         metrics.MetricsCollector
	MetricsGatherer prometheus.Gatherer

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ドメインサービス
	VideoService        VideoServiceInterface
	ChannelService      ChannelServiceInterface
	PlaylistService     PlaylistServiceInterface
	LikeService         LikeServiceInterface
	SubscriptionService SubscriptionServiceInterface
	CommentService      CommentServiceInterface
	UserService         UserServiceInterface

	// アップロード制約
	UploadMaxSize int64
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → CORS → Session → CSRF → RateLimit(General)
//
// 読み取り系エンドポイントはOptionalSessionMiddlewareで匿名アクセスを許可し、
// 状態変更系エンドポイントはSessionMiddleware + CSRF + レート制限を必須とする。
// 認証ルート（/auth/*）、/health、/metrics はミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Metrics != nil {
		r.Use(newHTTPStatusMiddleware(deps.Metrics))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	videoHandler := NewVideoHandler(deps.VideoService, deps.Metrics, deps.UploadMaxSize)
	channelHandler := NewChannelHandler(deps.ChannelService, deps.Metrics)
	playlistHandler := NewPlaylistHandler(deps.PlaylistService)
	likeHandler := NewLikeHandler(deps.LikeService, deps.Metrics)
	subHandler := NewSubscriptionHandler(deps.SubscriptionService, deps.Metrics)
	commentHandler := NewCommentHandler(deps.CommentService)
	userHandler := NewUserHandler(deps.UserService, deps.Metrics)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler)

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// 認証ルート（OAuthフロー）
	r.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.Login)
		r.Get("/google/callback", authHandler.Callback)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// CSRFトークン取得
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// --- 読み取り系ルート（匿名アクセス可能） ---
	// ミドルウェアスタック: OptionalSession
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewOptionalSessionMiddleware(deps.SessionFinder))

		r.Get("/api/videos", videoHandler.ListFeed)
		r.Get("/api/videos/{id}", videoHandler.GetDetail)
		r.Get("/api/videos/{id}/comments", commentHandler.List)

		r.Get("/api/channels/{id}", channelHandler.GetProfile)
		r.Get("/api/channels/{id}/subscribers", channelHandler.ListSubscribers)
		r.Get("/api/channels/{id}/subscriptions", channelHandler.ListSubscribedTo)
		r.Get("/api/channels/{id}/stats", channelHandler.Stats)

		r.Get("/api/playlists/{id}", playlistHandler.Detail)
	})

	// --- 状態変更系・本人限定ルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 動画ライフサイクル（アップロードは専用レート制限を追加）
		r.With(deps.RateLimiter.UploadMiddleware()).Post("/api/videos", videoHandler.Upload)
		r.Patch("/api/videos/{id}", videoHandler.Update)
		r.Delete("/api/videos/{id}", videoHandler.Delete)
		r.Post("/api/videos/{id}/publish", videoHandler.TogglePublish)

		// コメント
		r.Post("/api/videos/{id}/comments", commentHandler.Add)
		r.Patch("/api/comments/{id}", commentHandler.Update)
		r.Delete("/api/comments/{id}", commentHandler.Delete)

		// いいね
		r.Post("/api/likes", likeHandler.Toggle)
		r.Get("/api/likes/videos", likeHandler.ListLikedVideos)

		// 購読
		r.Post("/api/subscriptions/{channelID}/toggle", subHandler.Toggle)
		r.Get("/api/subscriptions/{channelID}", subHandler.Status)

		// プレイリスト
		r.Post("/api/playlists", playlistHandler.Create)
		r.Get("/api/playlists", playlistHandler.List)
		r.Patch("/api/playlists/{id}", playlistHandler.Update)
		r.Delete("/api/playlists/{id}", playlistHandler.Delete)
		r.Put("/api/playlists/{id}/videos/{videoID}", playlistHandler.AddVideo)
		r.Delete("/api/playlists/{id}/videos/{videoID}", playlistHandler.RemoveVideo)

		// ユーザー
		r.Get("/api/users/me", userHandler.GetMe)
		r.Patch("/api/users/me", userHandler.UpdateProfile)
		r.Get("/api/users/me/history", userHandler.GetWatchHistory)
		r.Delete("/api/users/me", userHandler.Withdraw)
	})

	return r
}

// healthHandler はヘルスチェックエンドポイント。
// GET /health
func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusRecorder はレスポンスのステータスコードを記録するResponseWriterラッパー。
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// newHTTPStatusMiddleware はレスポンスのステータスコードをメトリクスに記録するミドルウェアを返す。
func newHTTPStatusMiddleware(collector metrics.MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			collector.RecordHTTPStatus(rec.status)
		})
	}
}
