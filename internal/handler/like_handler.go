package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/cliptube/internal/like"
	"github.com/hitoshi/cliptube/internal/metrics"
	"github.com/hitoshi/cliptube/internal/middleware"
	"github.com/hitoshi/cliptube/internal/model"
)

// LikeServiceInterface はいいねハンドラーが必要とするサービスインターフェース。
type LikeServiceInterface interface {
	// Toggle は視聴者と対象間のいいねエッジを反転する。
	Toggle(ctx context.Context, viewerID string, kind model.LikeTargetKind, targetID string) (*like.ToggleResult, error)
	// ListLikedVideos はいいね済み動画の一覧をいいねした順（新しい順）で返す。
	ListLikedVideos(ctx context.Context, viewerID string, page, limit int) ([]model.VideoWithOwner, error)
}

// LikeHandler はいいねのHTTPハンドラー。
type LikeHandler struct {
	service   LikeServiceInterface
	collector metrics.MetricsCollector
}

// NewLikeHandler はLikeHandlerを生成する。collectorはnilでもよい。
func NewLikeHandler(service LikeServiceInterface, collector metrics.MetricsCollector) *LikeHandler {
	return &LikeHandler{
		service:   service,
		collector: collector,
	}
}

// toggleLikeRequest はいいねトグルリクエストのボディ。
type toggleLikeRequest struct {
	TargetKind string `json:"target_kind"` // video | comment
	TargetID   string `json:"target_id"`
}

// toggleLikeResponse はいいねトグルのレスポンス。
type toggleLikeResponse struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

// Toggle はいいねエッジを反転する。エッジが無ければ張り、有れば外す。
// POST /api/likes
func (h *LikeHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req toggleLikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	result, err := h.service.Toggle(r.Context(), userID, model.LikeTargetKind(req.TargetKind), req.TargetID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if h.collector != nil {
		h.collector.RecordToggle(req.TargetKind+"_like", result.Liked)
	}

	writeJSON(w, http.StatusOK, toggleLikeResponse{
		Liked:      result.Liked,
		LikesCount: result.LikesCount,
	})
}

// ListLikedVideos はいいね済み動画の一覧を取得する。
// GET /api/likes/videos
func (h *LikeHandler) ListLikedVideos(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	page, limit := parsePagination(r)

	videos, err := h.service.ListLikedVideos(r.Context(), userID, page, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toVideoListResponse(videos))
}
