package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/cliptube/internal/middleware"
	"github.com/hitoshi/cliptube/internal/model"
)

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
type CommentServiceInterface interface {
	// Add は動画へコメントを追加する。本文は保存前にサニタイズされる。
	Add(ctx context.Context, viewerID, videoID, content string) (*model.Comment, error)
	// List はコメント一覧を新しい順で返す。いいね数と視聴者相対フラグ付き。
	List(ctx context.Context, videoID, viewerID string, page, limit int) ([]model.CommentWithMeta, error)
	// Update はコメント本文を更新する。所有者のみ。
	Update(ctx context.Context, viewerID, commentID, content string) (*model.Comment, error)
	// Delete はコメントを削除する。所有者のみ。
	Delete(ctx context.Context, viewerID, commentID string) error
}

// CommentHandler はコメントのHTTPハンドラー。
type CommentHandler struct {
	service CommentServiceInterface
}

// NewCommentHandler はCommentHandlerを生成する。
func NewCommentHandler(service CommentServiceInterface) *CommentHandler {
	return &CommentHandler{service: service}
}

// commentRequest はコメント追加・更新リクエストのボディ。
type commentRequest struct {
	Content string `json:"content"`
}

// commentResponse はコメントのレスポンス。
type commentResponse struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"video_id"`
	OwnerID   string    `json:"owner_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// commentWithMetaResponse はコメント一覧の1件のレスポンス。
type commentWithMetaResponse struct {
	commentResponse
	Owner      ownerResponse `json:"owner"`
	LikesCount int           `json:"likes_count"`
	IsLiked    bool          `json:"is_liked"`
}

// commentListResponse はコメント一覧のレスポンス。
type commentListResponse struct {
	Comments []commentWithMetaResponse `json:"comments"`
}

func toCommentResponse(c model.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		VideoID:   c.VideoID,
		OwnerID:   c.OwnerID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// Add は動画へコメントを追加する。
// POST /api/videos/:id/comments
func (h *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	videoID := chi.URLParam(r, "id")

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	created, err := h.service.Add(r.Context(), userID, videoID, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCommentResponse(*created))
}

// List は動画のコメント一覧を取得する。
// GET /api/videos/:id/comments
// 匿名アクセス可能。匿名ではis_likedは常にfalseになる。
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")
	viewerID := middleware.ViewerIDFromContext(r.Context())
	page, limit := parsePagination(r)

	comments, err := h.service.List(r.Context(), videoID, viewerID, page, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]commentWithMetaResponse, len(comments))
	for i, c := range comments {
		results[i] = commentWithMetaResponse{
			commentResponse: toCommentResponse(c.Comment),
			Owner:           toOwnerResponse(c.Owner),
			LikesCount:      c.LikesCount,
			IsLiked:         c.IsLiked,
		}
	}
	writeJSON(w, http.StatusOK, commentListResponse{Comments: results})
}

// Update はコメント本文を更新する。
// PATCH /api/comments/:id
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	commentID := chi.URLParam(r, "id")

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	updated, err := h.service.Update(r.Context(), userID, commentID, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCommentResponse(*updated))
}

// Delete はコメントを削除する。
// DELETE /api/comments/:id
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	commentID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), userID, commentID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
