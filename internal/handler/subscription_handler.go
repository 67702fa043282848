package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/cliptube/internal/metrics"
	"github.com/hitoshi/cliptube/internal/middleware"
	"github.com/hitoshi/cliptube/internal/subscription"
)

// SubscriptionServiceInterface は購読ハンドラーが必要とするサービスインターフェース。
type SubscriptionServiceInterface interface {
	// Toggle は視聴者とチャンネル間の購読エッジを反転する。
	Toggle(ctx context.Context, viewerID, channelID string) (*subscription.ToggleResult, error)
	// IsSubscribed は購読エッジの存在を返す。
	IsSubscribed(ctx context.Context, viewerID, channelID string) (bool, error)
}

// SubscriptionHandler は購読のHTTPハンドラー。
type SubscriptionHandler struct {
	service   SubscriptionServiceInterface
	collector metrics.MetricsCollector
}

// NewSubscriptionHandler はSubscriptionHandlerを生成する。collectorはnilでもよい。
func NewSubscriptionHandler(service SubscriptionServiceInterface, collector metrics.MetricsCollector) *SubscriptionHandler {
	return &SubscriptionHandler{
		service:   service,
		collector: collector,
	}
}

// toggleSubscriptionResponse は購読トグルのレスポンス。
type toggleSubscriptionResponse struct {
	Subscribed      bool `json:"subscribed"`
	SubscriberCount int  `json:"subscriber_count"`
}

// subscriptionStatusResponse は購読状態のレスポンス。
type subscriptionStatusResponse struct {
	Subscribed bool `json:"subscribed"`
}

// Toggle は購読エッジを反転する。エッジが無ければ張り、有れば外す。
// POST /api/subscriptions/:channelID/toggle
func (h *SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	channelID := chi.URLParam(r, "channelID")

	result, err := h.service.Toggle(r.Context(), userID, channelID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if h.collector != nil {
		h.collector.RecordToggle("subscription", result.Subscribed)
	}

	writeJSON(w, http.StatusOK, toggleSubscriptionResponse{
		Subscribed:      result.Subscribed,
		SubscriberCount: result.SubscriberCount,
	})
}

// Status は視聴者のチャンネル購読状態を取得する。
// GET /api/subscriptions/:channelID
func (h *SubscriptionHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	channelID := chi.URLParam(r, "channelID")

	subscribed, err := h.service.IsSubscribed(r.Context(), userID, channelID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, subscriptionStatusResponse{Subscribed: subscribed})
}
