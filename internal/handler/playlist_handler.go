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

// PlaylistServiceInterface はプレイリストハンドラーが必要とするサービスインターフェース。
type PlaylistServiceInterface interface {
	// Create はプレイリストを作成する。
	Create(ctx context.Context, ownerID, name, description string) (*model.Playlist, error)
	// Update は名前と説明を更新する。所有者のみ。
	Update(ctx context.Context, viewerID, playlistID, name, description string) (*model.Playlist, error)
	// Delete はプレイリストを削除する。所有者のみ。
	Delete(ctx context.Context, viewerID, playlistID string) error
	// AddVideo は動画を追加する。既に含まれている場合はfalseを返す（冪等）。
	AddVideo(ctx context.Context, viewerID, playlistID, videoID string) (bool, error)
	// RemoveVideo は動画を除外する。含まれていない場合はfalseを返す（冪等）。
	RemoveVideo(ctx context.Context, viewerID, playlistID, videoID string) (bool, error)
	// List は所有者のプレイリスト一覧を集計値付きで返す。
	List(ctx context.Context, ownerID string, page, limit int) ([]model.PlaylistSummary, error)
	// Detail はプレイリスト詳細（収録動画は追加順）を返す。
	Detail(ctx context.Context, playlistID string) (*model.PlaylistDetail, error)
}

// PlaylistHandler はプレイリストのHTTPハンドラー。
type PlaylistHandler struct {
	service PlaylistServiceInterface
}

// NewPlaylistHandler はPlaylistHandlerを生成する。
func NewPlaylistHandler(service PlaylistServiceInterface) *PlaylistHandler {
	return &PlaylistHandler{service: service}
}

// playlistRequest はプレイリスト作成・更新リクエストのボディ。
type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// playlistResponse はプレイリストのレスポンス。
type playlistResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// playlistSummaryResponse はプレイリスト一覧の1件のレスポンス。
type playlistSummaryResponse struct {
	playlistResponse
	TotalVideos int   `json:"total_videos"`
	TotalViews  int64 `json:"total_views"`
}

// playlistListResponse はプレイリスト一覧のレスポンス。
type playlistListResponse struct {
	Playlists []playlistSummaryResponse `json:"playlists"`
}

// playlistDetailResponse はプレイリスト詳細のレスポンス。
type playlistDetailResponse struct {
	playlistSummaryResponse
	Owner  ownerResponse            `json:"owner"`
	Videos []videoWithOwnerResponse `json:"videos"`
}

// membershipResponse はプレイリストへの動画追加・除外のレスポンス。
type membershipResponse struct {
	Changed bool `json:"changed"`
}

func toPlaylistResponse(p model.Playlist) playlistResponse {
	return playlistResponse{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toPlaylistSummaryResponse(s model.PlaylistSummary) playlistSummaryResponse {
	return playlistSummaryResponse{
		playlistResponse: toPlaylistResponse(s.Playlist),
		TotalVideos:      s.TotalVideos,
		TotalViews:       s.TotalViews,
	}
}

// Create はプレイリストを作成する。
// POST /api/playlists
func (h *PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	created, err := h.service.Create(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPlaylistResponse(*created))
}

// List はログインユーザーのプレイリスト一覧を取得する。
// GET /api/playlists
func (h *PlaylistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	page, limit := parsePagination(r)

	summaries, err := h.service.List(r.Context(), userID, page, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]playlistSummaryResponse, len(summaries))
	for i, s := range summaries {
		results[i] = toPlaylistSummaryResponse(s)
	}
	writeJSON(w, http.StatusOK, playlistListResponse{Playlists: results})
}

// Detail はプレイリスト詳細を取得する。
// GET /api/playlists/:id
// 匿名アクセス可能。
func (h *PlaylistHandler) Detail(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "id")

	detail, err := h.service.Detail(r.Context(), playlistID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	videos := make([]videoWithOwnerResponse, len(detail.Videos))
	for i, v := range detail.Videos {
		videos[i] = toVideoWithOwnerResponse(v)
	}

	writeJSON(w, http.StatusOK, playlistDetailResponse{
		playlistSummaryResponse: toPlaylistSummaryResponse(detail.PlaylistSummary),
		Owner:                   toOwnerResponse(detail.Owner),
		Videos:                  videos,
	})
}

// Update はプレイリストの名前と説明を更新する。
// PATCH /api/playlists/:id
func (h *PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	playlistID := chi.URLParam(r, "id")

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	updated, err := h.service.Update(r.Context(), userID, playlistID, req.Name, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPlaylistResponse(*updated))
}

// Delete はプレイリストを削除する。
// DELETE /api/playlists/:id
func (h *PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	playlistID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), userID, playlistID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddVideo はプレイリストに動画を追加する。
// PUT /api/playlists/:id/videos/:videoID
// 既に含まれている場合もエラーにはならない（冪等）。
func (h *PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	playlistID := chi.URLParam(r, "id")
	videoID := chi.URLParam(r, "videoID")

	added, err := h.service.AddVideo(r.Context(), userID, playlistID, videoID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, membershipResponse{Changed: added})
}

// RemoveVideo はプレイリストから動画を除外する。
// DELETE /api/playlists/:id/videos/:videoID
// 含まれていない場合もエラーにはならない（冪等）。
func (h *PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	playlistID := chi.URLParam(r, "id")
	videoID := chi.URLParam(r, "videoID")

	removed, err := h.service.RemoveVideo(r.Context(), userID, playlistID, videoID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, membershipResponse{Changed: removed})
}
