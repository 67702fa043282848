package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/cliptube/internal/model"
	"github.com/hitoshi/cliptube/internal/subscription"
)

// mockSubscriptionService はSubscriptionServiceInterfaceのモック実装。
type mockSubscriptionService struct {
	toggleFn       func(ctx context.Context, viewerID, channelID string) (*subscription.ToggleResult, error)
	isSubscribedFn func(ctx context.Context, viewerID, channelID string) (bool, error)
}

func (m *mockSubscriptionService) Toggle(ctx context.Context, viewerID, channelID string) (*subscription.ToggleResult, error) {
	if m.toggleFn != nil {
		return m.toggleFn(ctx, viewerID, channelID)
	}
	return nil, nil
}

func (m *mockSubscriptionService) IsSubscribed(ctx context.Context, viewerID, channelID string) (bool, error) {
	if m.isSubscribedFn != nil {
		return m.isSubscribedFn(ctx, viewerID, channelID)
	}
	return false, nil
}

// --- POST /api/subscriptions/:channelID/toggle テスト ---

func TestSubscriptionHandler_Toggle_Subscribe_Success(t *testing.T) {
	svc := &mockSubscriptionService{
		toggleFn: func(ctx context.Context, viewerID, channelID string) (*subscription.ToggleResult, error) {
			if viewerID != "user-123" {
				t.Errorf("viewerID = %q, want %q", viewerID, "user-123")
			}
			if channelID != "channel-1" {
				t.Errorf("channelID = %q, want %q", channelID, "channel-1")
			}
			return &subscription.ToggleResult{Subscribed: true, SubscriberCount: 101}, nil
		},
	}

	collector := &mockCollector{}
	h := NewSubscriptionHandler(svc, collector)

	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions/channel-1/toggle", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "channelID", "channel-1")
	w := httptest.NewRecorder()

	h.Toggle(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp toggleSubscriptionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Subscribed {
		t.Error("subscribed = false, want true")
	}
	if resp.SubscriberCount != 101 {
		t.Errorf("subscriber_count = %d, want 101", resp.SubscriberCount)
	}

	if len(collector.toggles) != 1 || collector.toggles[0] != "subscription:activated" {
		t.Errorf("toggle metrics = %v, want [subscription:activated]", collector.toggles)
	}
}

func TestSubscriptionHandler_Toggle_Unsubscribe_RecordsDeactivation(t *testing.T) {
	svc := &mockSubscriptionService{
		toggleFn: func(ctx context.Context, viewerID, channelID string) (*subscription.ToggleResult, error) {
			return &subscription.ToggleResult{Subscribed: false, SubscriberCount: 100}, nil
		},
	}

	collector := &mockCollector{}
	h := NewSubscriptionHandler(svc, collector)

	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions/channel-1/toggle", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "channelID", "channel-1")
	w := httptest.NewRecorder()

	h.Toggle(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	if len(collector.toggles) != 1 || collector.toggles[0] != "subscription:deactivated" {
		t.Errorf("toggle metrics = %v, want [subscription:deactivated]", collector.toggles)
	}
}

func TestSubscriptionHandler_Toggle_ChannelNotFound(t *testing.T) {
	svc := &mockSubscriptionService{
		toggleFn: func(ctx context.Context, viewerID, channelID string) (*subscription.ToggleResult, error) {
			return nil, model.NewChannelNotFoundError(channelID)
		},
	}

	h := NewSubscriptionHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions/ghost/toggle", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "channelID", "ghost")
	w := httptest.NewRecorder()

	h.Toggle(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}

	errResp := parseAPIErrorResponse(t, w)
	if errResp["code"] != model.ErrCodeChannelNotFound {
		t.Errorf("error code = %q, want %q", errResp["code"], model.ErrCodeChannelNotFound)
	}
}

func TestSubscriptionHandler_Toggle_Unauthorized(t *testing.T) {
	h := NewSubscriptionHandler(&mockSubscriptionService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions/channel-1/toggle", nil)
	req = withChiURLParam(req, "channelID", "channel-1")
	w := httptest.NewRecorder()

	h.Toggle(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// --- GET /api/subscriptions/:channelID テスト ---

func TestSubscriptionHandler_Status_Success(t *testing.T) {
	svc := &mockSubscriptionService{
		isSubscribedFn: func(ctx context.Context, viewerID, channelID string) (bool, error) {
			if viewerID != "user-123" || channelID != "channel-1" {
				t.Errorf("viewerID/channelID = %q/%q, want user-123/channel-1", viewerID, channelID)
			}
			return true, nil
		},
	}

	h := NewSubscriptionHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions/channel-1", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "channelID", "channel-1")
	w := httptest.NewRecorder()

	h.Status(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp subscriptionStatusResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Subscribed {
		t.Error("subscribed = false, want true")
	}
}
