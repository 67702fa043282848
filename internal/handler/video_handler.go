package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/cliptube/internal/metrics"
	"github.com/hitoshi/cliptube/internal/middleware"
	"github.com/hitoshi/cliptube/internal/model"
	"github.com/hitoshi/cliptube/internal/video"
)

// VideoServiceInterface は動画ハンドラーが必要とするサービスインターフェース。
type VideoServiceInterface interface {
	// ListFeed は公開動画のフィード一覧を返す。
	ListFeed(ctx context.Context, params video.FeedParams) ([]model.VideoWithOwner, error)
	// GetDetail は動画詳細を返す。副作用として視聴回数を増やし視聴履歴を更新する。
	GetDetail(ctx context.Context, videoID, viewerID string) (*model.VideoDetail, error)
	// Publish は動画をアップロードして公開する。
	Publish(ctx context.Context, ownerID string, input video.PublishInput) (*model.Video, error)
	// Update はタイトル・説明・サムネイルを更新する。所有者のみ。
	Update(ctx context.Context, viewerID, videoID string, input video.UpdateInput) (*model.Video, error)
	// Delete は動画を削除する。所有者のみ。
	Delete(ctx context.Context, viewerID, videoID string) error
	// TogglePublish は公開状態を反転し、操作後の公開状態を返す。所有者のみ。
	TogglePublish(ctx context.Context, viewerID, videoID string) (bool, error)
}

// VideoHandler は動画のHTTPハンドラー。
type VideoHandler struct {
	service       VideoServiceInterface
	collector     metrics.MetricsCollector
	uploadMaxSize int64
}

// NewVideoHandler はVideoHandlerを生成する。collectorはnilでもよい。
func NewVideoHandler(service VideoServiceInterface, collector metrics.MetricsCollector, uploadMaxSize int64) *VideoHandler {
	return &VideoHandler{
		service:       service,
		collector:     collector,
		uploadMaxSize: uploadMaxSize,
	}
}

// videoDetailResponse は動画詳細のレスポンス。
type videoDetailResponse struct {
	videoWithOwnerResponse
	OwnerSubscriberCount int  `json:"owner_subscriber_count"`
	IsSubscribedToOwner  bool `json:"is_subscribed_to_owner"`
	LikesCount           int  `json:"likes_count"`
	IsLiked              bool `json:"is_liked"`
}

// updateVideoRequest は動画更新リクエストのボディ。
type updateVideoRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// togglePublishResponse は公開状態トグルのレスポンス。
type togglePublishResponse struct {
	IsPublished bool `json:"is_published"`
}

// ListFeed は公開動画のフィード一覧を取得する。
// GET /api/videos?page=1&limit=20&q=xxx&sort=views&direction=desc&channel_id=yyy
// 匿名アクセス可能。
func (h *VideoHandler) ListFeed(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)
	q := r.URL.Query()

	params := video.FeedParams{
		Page:          page,
		Limit:         limit,
		Query:         q.Get("q"),
		SortField:     q.Get("sort"),
		SortDirection: model.SortDirection(q.Get("direction")),
		OwnerFilter:   q.Get("channel_id"),
	}

	start := time.Now()
	videos, err := h.service.ListFeed(r.Context(), params)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if h.collector != nil {
		h.collector.RecordQueryLatency("video_feed", time.Since(start))
	}

	writeJSON(w, http.StatusOK, toVideoListResponse(videos))
}

// GetDetail は動画詳細を取得する。
// GET /api/videos/:id
// 匿名アクセス可能。視聴者相対フィールドは匿名ではすべてfalseになる。
func (h *VideoHandler) GetDetail(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")
	viewerID := middleware.ViewerIDFromContext(r.Context())

	start := time.Now()
	detail, err := h.service.GetDetail(r.Context(), videoID, viewerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if h.collector != nil {
		h.collector.RecordQueryLatency("video_detail", time.Since(start))
		h.collector.RecordViewIncrement(videoID)
	}

	writeJSON(w, http.StatusOK, videoDetailResponse{
		videoWithOwnerResponse: videoWithOwnerResponse{
			videoResponse: toVideoResponse(detail.Video),
			Owner:         toOwnerResponse(detail.Owner),
		},
		OwnerSubscriberCount: detail.OwnerSubscriberCount,
		IsSubscribedToOwner:  detail.IsSubscribedToOwner,
		LikesCount:           detail.LikesCount,
		IsLiked:              detail.IsLiked,
	})
}

// Upload は動画をmultipart/form-dataでアップロードして公開する。
// POST /api/videos
// フォームフィールド: title, description, video（必須）, thumbnail（任意）
func (h *VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "マルチパートフォームの解析に失敗しました。",
			Category: "validation",
			Action:   "アップロードサイズと形式を確認してください。",
		})
		return
	}

	videoFile, videoHeader, err := r.FormFile("video")
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "動画ファイルが指定されていません。",
			Category: "validation",
			Action:   "videoフィールドに動画ファイルを指定してください。",
		})
		return
	}
	defer videoFile.Close()

	input := video.PublishInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		VideoFile:   videoFile,
		VideoName:   videoHeader.Filename,
	}

	if thumbFile, thumbHeader, thumbErr := r.FormFile("thumbnail"); thumbErr == nil {
		defer thumbFile.Close()
		input.ThumbnailFile = thumbFile
		input.ThumbnailName = thumbHeader.Filename
	}

	published, err := h.service.Publish(r.Context(), userID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if h.collector != nil {
		h.collector.RecordMediaUpload("video")
		if input.ThumbnailFile != nil {
			h.collector.RecordMediaUpload("thumbnail")
		}
	}

	writeJSON(w, http.StatusCreated, toVideoResponse(*published))
}

// Update はタイトル・説明・サムネイルを更新する。
// PATCH /api/videos/:id
func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	videoID := chi.URLParam(r, "id")

	var req updateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	updated, err := h.service.Update(r.Context(), userID, videoID, video.UpdateInput{
		Title:        req.Title,
		Description:  req.Description,
		ThumbnailURL: req.ThumbnailURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toVideoResponse(*updated))
}

// Delete は動画を削除する。
// DELETE /api/videos/:id
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	videoID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), userID, videoID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TogglePublish は動画の公開状態を反転する。
// POST /api/videos/:id/publish
func (h *VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	videoID := chi.URLParam(r, "id")

	isPublished, err := h.service.TogglePublish(r.Context(), userID, videoID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, togglePublishResponse{IsPublished: isPublished})
}
