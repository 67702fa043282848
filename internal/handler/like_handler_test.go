package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/cliptube/internal/like"
	"github.com/hitoshi/cliptube/internal/model"
)

// mockLikeService はLikeServiceInterfaceのモック実装。
type mockLikeService struct {
	toggleFn          func(ctx context.Context, viewerID string, kind model.LikeTargetKind, targetID string) (*like.ToggleResult, error)
	listLikedVideosFn func(ctx context.Context, viewerID string, page, limit int) ([]model.VideoWithOwner, error)
}

func (m *mockLikeService) Toggle(ctx context.Context, viewerID string, kind model.LikeTargetKind, targetID string) (*like.ToggleResult, error) {
	if m.toggleFn != nil {
		return m.toggleFn(ctx, viewerID, kind, targetID)
	}
	return nil, nil
}

func (m *mockLikeService) ListLikedVideos(ctx context.Context, viewerID string, page, limit int) ([]model.VideoWithOwner, error) {
	if m.listLikedVideosFn != nil {
		return m.listLikedVideosFn(ctx, viewerID, page, limit)
	}
	return nil, nil
}

// --- POST /api/likes テスト ---

func TestLikeHandler_Toggle_VideoLike_Success(t *testing.T) {
	svc := &mockLikeService{
		toggleFn: func(ctx context.Context, viewerID string, kind model.LikeTargetKind, targetID string) (*like.ToggleResult, error) {
			if viewerID != "user-123" {
				t.Errorf("viewerID = %q, want %q", viewerID, "user-123")
			}
			if kind != model.LikeTargetVideo {
				t.Errorf("kind = %q, want %q", kind, model.LikeTargetVideo)
			}
			if targetID != "video-1" {
				t.Errorf("targetID = %q, want %q", targetID, "video-1")
			}
			return &like.ToggleResult{Liked: true, LikesCount: 8}, nil
		},
	}

	collector := &mockCollector{}
	h := NewLikeHandler(svc, collector)

	body := `{"target_kind": "video", "target_id": "video-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/likes", bytes.NewBufferString(body))
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Toggle(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp toggleLikeResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Liked {
		t.Error("liked = false, want true")
	}
	if resp.LikesCount != 8 {
		t.Errorf("likes_count = %d, want 8", resp.LikesCount)
	}

	if len(collector.toggles) != 1 || collector.toggles[0] != "video_like:activated" {
		t.Errorf("toggle metrics = %v, want [video_like:activated]", collector.toggles)
	}
}

func TestLikeHandler_Toggle_Deactivation_RecordsMetric(t *testing.T) {
	svc := &mockLikeService{
		toggleFn: func(ctx context.Context, viewerID string, kind model.LikeTargetKind, targetID string) (*like.ToggleResult, error) {
			return &like.ToggleResult{Liked: false, LikesCount: 7}, nil
		},
	}

	collector := &mockCollector{}
	h := NewLikeHandler(svc, collector)

	body := `{"target_kind": "comment", "target_id": "comment-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/likes", bytes.NewBufferString(body))
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Toggle(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	if len(collector.toggles) != 1 || collector.toggles[0] != "comment_like:deactivated" {
		t.Errorf("toggle metrics = %v, want [comment_like:deactivated]", collector.toggles)
	}
}

func TestLikeHandler_Toggle_UnsupportedTargetKind_ReturnsConflict(t *testing.T) {
	svc := &mockLikeService{
		toggleFn: func(ctx context.Context, viewerID string, kind model.LikeTargetKind, targetID string) (*like.ToggleResult, error) {
			return nil, model.NewUnsupportedTargetKindError(string(kind))
		},
	}

	h := NewLikeHandler(svc, nil)

	body := `{"target_kind": "tweet", "target_id": "tweet-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/likes", bytes.NewBufferString(body))
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Toggle(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusConflict)
	}

	errResp := parseAPIErrorResponse(t, w)
	if errResp["code"] != model.ErrCodeUnsupportedTargetKind {
		t.Errorf("error code = %q, want %q", errResp["code"], model.ErrCodeUnsupportedTargetKind)
	}
}

func TestLikeHandler_Toggle_InvalidReference_ReturnsBadRequest(t *testing.T) {
	svc := &mockLikeService{
		toggleFn: func(ctx context.Context, viewerID string, kind model.LikeTargetKind, targetID string) (*like.ToggleResult, error) {
			return nil, model.NewInvalidReferenceError(targetID)
		},
	}

	h := NewLikeHandler(svc, nil)

	body := `{"target_kind": "video", "target_id": "not-a-uuid"}`
	req := httptest.NewRequest(http.MethodPost, "/api/likes", bytes.NewBufferString(body))
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Toggle(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	errResp := parseAPIErrorResponse(t, w)
	if errResp["code"] != model.ErrCodeInvalidReference {
		t.Errorf("error code = %q, want %q", errResp["code"], model.ErrCodeInvalidReference)
	}
}

func TestLikeHandler_Toggle_Unauthorized(t *testing.T) {
	h := NewLikeHandler(&mockLikeService{}, nil)

	body := `{"target_kind": "video", "target_id": "video-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/likes", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.Toggle(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// --- GET /api/likes/videos テスト ---

func TestLikeHandler_ListLikedVideos_Success(t *testing.T) {
	svc := &mockLikeService{
		listLikedVideosFn: func(ctx context.Context, viewerID string, page, limit int) ([]model.VideoWithOwner, error) {
			if viewerID != "user-123" {
				t.Errorf("viewerID = %q, want %q", viewerID, "user-123")
			}
			return []model.VideoWithOwner{testVideoWithOwner("video-9")}, nil
		},
	}

	h := NewLikeHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/likes/videos", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.ListLikedVideos(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp videoListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Videos) != 1 || resp.Videos[0].ID != "video-9" {
		t.Errorf("videos = %+v, want one video-9", resp.Videos)
	}
}
