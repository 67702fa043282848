package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/cliptube/internal/model"
)

const (
	// defaultPerPage は一覧系エンドポイントの1ページあたりのデフォルト件数。
	defaultPerPage = 20
	// maxPerPage は1ページあたりの最大件数。
	maxPerPage = 100
)

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// ownerResponse は一覧・詳細に添付するチャンネル所有者要約のレスポンス。
type ownerResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Handle    string `json:"handle"`
	AvatarURL string `json:"avatar_url"`
}

// videoResponse は動画のAPIレスポンス。
type videoResponse struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"video_url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	IsPublished  bool      `json:"is_published"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// videoWithOwnerResponse は動画と所有者要約を結合したレスポンス。
type videoWithOwnerResponse struct {
	videoResponse
	Owner ownerResponse `json:"owner"`
}

// videoListResponse は動画一覧のレスポンス。
type videoListResponse struct {
	Videos []videoWithOwnerResponse `json:"videos"`
}

func toOwnerResponse(o model.OwnerSummary) ownerResponse {
	return ownerResponse{
		ID:        o.ID,
		Name:      o.Name,
		Handle:    o.Handle,
		AvatarURL: o.AvatarURL,
	}
}

func toVideoResponse(v model.Video) videoResponse {
	return videoResponse{
		ID:           v.ID,
		OwnerID:      v.OwnerID,
		Title:        v.Title,
		Description:  v.Description,
		VideoURL:     v.VideoURL,
		ThumbnailURL: v.ThumbnailURL,
		Duration:     v.Duration,
		Views:        v.Views,
		IsPublished:  v.IsPublished,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

func toVideoWithOwnerResponse(v model.VideoWithOwner) videoWithOwnerResponse {
	return videoWithOwnerResponse{
		videoResponse: toVideoResponse(v.Video),
		Owner:         toOwnerResponse(v.Owner),
	}
}

func toVideoListResponse(videos []model.VideoWithOwner) videoListResponse {
	results := make([]videoWithOwnerResponse, len(videos))
	for i, v := range videos {
		results[i] = toVideoWithOwnerResponse(v)
	}
	return videoListResponse{Videos: results}
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeUnauthorized は認証エラーの統一レスポンスを書き込む。
func writeUnauthorized(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	})
}

// writeInvalidRequest はリクエストボディ解析エラーの統一レスポンスを書き込む。
func writeInvalidRequest(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// APIError以外のエラーはストア障害として扱い、詳細はログにのみ記録する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("store access failed", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusServiceUnavailable, model.NewStoreUnavailableError())
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidReference,
		model.ErrCodeInvalidSortField,
		model.ErrCodeInvalidTitle:
		return http.StatusBadRequest
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeVideoNotFound,
		model.ErrCodeChannelNotFound,
		model.ErrCodePlaylistNotFound,
		model.ErrCodeCommentNotFound,
		model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeUnsupportedTargetKind:
		return http.StatusConflict
	case model.ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// parsePagination はクエリ文字列からページ番号と件数を取り出す。
// 不正な値・未指定はデフォルト値に丸める。
func parsePagination(r *http.Request) (page, limit int) {
	page = 1
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			page = n
		}
	}

	limit = defaultPerPage
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			limit = n
			if limit > maxPerPage {
				limit = maxPerPage
			}
		}
	}
	return page, limit
}
