package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/cliptube/internal/metrics"
	"github.com/hitoshi/cliptube/internal/middleware"
	"github.com/hitoshi/cliptube/internal/model"
)

// ChannelServiceInterface はチャンネルハンドラーが必要とするサービスインターフェース。
type ChannelServiceInterface interface {
	// GetProfile はハンドル名（大文字小文字を区別しない）でチャンネルプロフィールを返す。
	GetProfile(ctx context.Context, handle, viewerID string) (*model.ChannelProfile, error)
	// ListSubscribers はチャンネルの購読者一覧を返す。
	ListSubscribers(ctx context.Context, channelID, viewerID string, page, limit int) ([]model.ChannelSummary, error)
	// ListSubscribedTo はユーザーが購読しているチャンネル一覧を返す。
	ListSubscribedTo(ctx context.Context, subscriberID, viewerID string, page, limit int) ([]model.ChannelSummary, error)
	// Stats はチャンネルダッシュボードの集計値を返す。
	Stats(ctx context.Context, channelID string) (*model.ChannelStats, error)
}

// ChannelHandler はチャンネルのHTTPハンドラー。
// URLパラメータはプロフィール取得ではハンドル名を、
// それ以外のエンドポイントではチャンネルIDを受け取る。
type ChannelHandler struct {
	service   ChannelServiceInterface
	collector metrics.MetricsCollector
}

// NewChannelHandler はChannelHandlerを生成する。collectorはnilでもよい。
func NewChannelHandler(service ChannelServiceInterface, collector metrics.MetricsCollector) *ChannelHandler {
	return &ChannelHandler{
		service:   service,
		collector: collector,
	}
}

// channelProfileResponse はチャンネルプロフィールのレスポンス。
type channelProfileResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Handle            string    `json:"handle"`
	AvatarURL         string    `json:"avatar_url"`
	CoverURL          string    `json:"cover_url"`
	SubscriberCount   int       `json:"subscriber_count"`
	SubscribedToCount int       `json:"subscribed_to_count"`
	IsSubscribed      bool      `json:"is_subscribed"`
	CreatedAt         time.Time `json:"created_at"`
}

// channelSummaryResponse は購読者・購読チャンネル一覧の1件のレスポンス。
type channelSummaryResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Handle          string    `json:"handle"`
	AvatarURL       string    `json:"avatar_url"`
	SubscriberCount int       `json:"subscriber_count"`
	IsSubscribed    bool      `json:"is_subscribed"`
	SubscribedAt    time.Time `json:"subscribed_at"`
}

// channelListResponse はチャンネル一覧のレスポンス。
type channelListResponse struct {
	Channels []channelSummaryResponse `json:"channels"`
}

// channelStatsResponse はチャンネル統計のレスポンス。
type channelStatsResponse struct {
	TotalVideos      int   `json:"total_videos"`
	TotalViews       int64 `json:"total_views"`
	TotalSubscribers int   `json:"total_subscribers"`
	TotalLikes       int   `json:"total_likes"`
}

func toChannelListResponse(channels []model.ChannelSummary) channelListResponse {
	results := make([]channelSummaryResponse, len(channels))
	for i, c := range channels {
		results[i] = channelSummaryResponse{
			ID:              c.ID,
			Name:            c.Name,
			Handle:          c.Handle,
			AvatarURL:       c.AvatarURL,
			SubscriberCount: c.SubscriberCount,
			IsSubscribed:    c.IsSubscribed,
			SubscribedAt:    c.SubscribedAt,
		}
	}
	return channelListResponse{Channels: results}
}

// GetProfile はハンドル名でチャンネルプロフィールを取得する。
// GET /api/channels/:handle
// 匿名アクセス可能。
func (h *ChannelHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "id")
	viewerID := middleware.ViewerIDFromContext(r.Context())

	start := time.Now()
	profile, err := h.service.GetProfile(r.Context(), handle, viewerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if h.collector != nil {
		h.collector.RecordQueryLatency("channel_profile", time.Since(start))
	}

	writeJSON(w, http.StatusOK, channelProfileResponse{
		ID:                profile.ID,
		Name:              profile.Name,
		Handle:            profile.Handle,
		AvatarURL:         profile.AvatarURL,
		CoverURL:          profile.CoverURL,
		SubscriberCount:   profile.SubscriberCount,
		SubscribedToCount: profile.SubscribedToCount,
		IsSubscribed:      profile.IsSubscribed,
		CreatedAt:         profile.CreatedAt,
	})
}

// ListSubscribers はチャンネルの購読者一覧を取得する。
// GET /api/channels/:id/subscribers
// 匿名アクセス可能。
func (h *ChannelHandler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "id")
	viewerID := middleware.ViewerIDFromContext(r.Context())
	page, limit := parsePagination(r)

	channels, err := h.service.ListSubscribers(r.Context(), channelID, viewerID, page, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toChannelListResponse(channels))
}

// ListSubscribedTo はユーザーが購読しているチャンネル一覧を取得する。
// GET /api/channels/:id/subscriptions
// 匿名アクセス可能。
func (h *ChannelHandler) ListSubscribedTo(w http.ResponseWriter, r *http.Request) {
	subscriberID := chi.URLParam(r, "id")
	viewerID := middleware.ViewerIDFromContext(r.Context())
	page, limit := parsePagination(r)

	channels, err := h.service.ListSubscribedTo(r.Context(), subscriberID, viewerID, page, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toChannelListResponse(channels))
}

// Stats はチャンネルの集計値を取得する。
// GET /api/channels/:id/stats
// 匿名アクセス可能。
func (h *ChannelHandler) Stats(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "id")

	stats, err := h.service.Stats(r.Context(), channelID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, channelStatsResponse{
		TotalVideos:      stats.TotalVideos,
		TotalViews:       stats.TotalViews,
		TotalSubscribers: stats.TotalSubscribers,
		TotalLikes:       stats.TotalLikes,
	})
}
