// Package subscription はチャンネル購読のドメインロジックを提供する。
package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/cliptube/internal/model"
	"github.com/hitoshi/cliptube/internal/repository"
	"github.com/hitoshi/cliptube/internal/toggle"
)

// ToggleResult はトグル操作後の購読状態。
type ToggleResult struct {
	// Subscribed は操作後に購読エッジが存在するかどうか。
	Subscribed bool
	// SubscriberCount は操作後のチャンネル購読者数（読み取り時導出）。
	SubscriberCount int
}

// Service は購読管理のサービス層。
// 購読トグルと購読状態の問い合わせを提供する。
type Service struct {
	subRepo  repository.SubscriptionRepository
	userRepo repository.UserRepository
	engine   *toggle.Engine
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(subRepo repository.SubscriptionRepository, userRepo repository.UserRepository) *Service {
	return &Service{
		subRepo:  subRepo,
		userRepo: userRepo,
		engine:   toggle.NewEngine(&subscriptionEdgeStore{repo: subRepo}),
	}
}

// Toggle は視聴者とチャンネル間の購読エッジを反転する。
// エッジが無ければ張り、有れば外す。自己購読は禁止しない（呼び出し側の方針）。
func (s *Service) Toggle(ctx context.Context, viewerID, channelID string) (*ToggleResult, error) {
	channel, err := s.userRepo.FindByID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("チャンネルの取得に失敗しました: %w", err)
	}
	if channel == nil {
		return nil, model.NewChannelNotFoundError(channelID)
	}

	subscribed, err := s.engine.Toggle(ctx, toggle.EdgeKey{FromID: viewerID, ToID: channelID})
	if err != nil {
		return nil, err
	}

	count, err := s.subRepo.CountByChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("購読者数の取得に失敗しました: %w", err)
	}

	return &ToggleResult{Subscribed: subscribed, SubscriberCount: count}, nil
}

// IsSubscribed は視聴者がチャンネルを購読しているかを返す。
// 匿名視聴者（viewerIDが空）の場合は常にfalseを返す。
func (s *Service) IsSubscribed(ctx context.Context, viewerID, channelID string) (bool, error) {
	if viewerID == "" {
		return false, nil
	}
	exists, err := s.subRepo.Exists(ctx, viewerID, channelID)
	if err != nil {
		return false, fmt.Errorf("購読状態の取得に失敗しました: %w", err)
	}
	return exists, nil
}

// subscriptionEdgeStore はSubscriptionRepositoryをトグルエンジンの
// エッジストアとして適合させる。
type subscriptionEdgeStore struct {
	repo repository.SubscriptionRepository
}

func (s *subscriptionEdgeStore) Insert(ctx context.Context, key toggle.EdgeKey) (bool, error) {
	sub := &model.Subscription{
		ID:           uuid.New().String(),
		SubscriberID: key.FromID,
		ChannelID:    key.ToID,
		CreatedAt:    time.Now(),
	}
	return s.repo.Insert(ctx, sub)
}

func (s *subscriptionEdgeStore) Delete(ctx context.Context, key toggle.EdgeKey) (bool, error) {
	return s.repo.Delete(ctx, key.FromID, key.ToID)
}

var _ toggle.EdgeStore = (*subscriptionEdgeStore)(nil)
