// Package channel はチャンネルプロフィール・購読一覧・統計のドメインロジックを提供する。
package channel

import (
	"context"

	"github.com/hitoshi/cliptube/internal/model"
	"github.com/hitoshi/cliptube/internal/pipeline"
	"github.com/hitoshi/cliptube/internal/repository"
)

// Service はチャンネルのサービス層。
// すべて読み取り専用で、集計値は保存カウンタではなくエッジから毎回導出する。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// GetProfile はハンドル名でチャンネルプロフィールを返す。
// ハンドルの照合は大文字小文字を区別しない。購読者数・購読数・視聴者相対の
// 購読済みフラグを読み取り時に導出する。
func (s *Service) GetProfile(ctx context.Context, handle, viewerID string) (*model.ChannelProfile, error) {
	p := pipeline.From("users", "u").
		Project(repository.ChannelColumns).
		MatchFold("u.handle", handle).
		DeriveCount("subscriber_count", "subscriptions", "subscriptions.channel_id", "u.id").
		DeriveCount("subscribed_to_count", "subscriptions", "subscriptions.subscriber_id", "u.id").
		DeriveExists("is_subscribed", "subscriptions", "subscriptions.channel_id", "u.id", "subscriptions.subscriber_id", viewerID)

	profile, err := s.userRepo.QueryChannelProfile(ctx, p)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, model.NewChannelNotFoundError(handle)
	}
	return profile, nil
}

// ListSubscribers はチャンネルの購読者一覧を返す。
// 各購読者には自身の購読者数と、視聴者からの相互購読フラグを付与する。
func (s *Service) ListSubscribers(ctx context.Context, channelID, viewerID string, page, limit int) ([]model.ChannelSummary, error) {
	p := pipeline.From("subscriptions", "s").
		Project(repository.OwnerColumns, "s.created_at").
		MatchScopeRef("s.channel_id", channelID).
		JoinOne("users", "u", "u.id = s.subscriber_id").
		DeriveCount("subscriber_count", "subscriptions sub", "sub.channel_id", "u.id").
		DeriveExists("is_subscribed", "subscriptions sub2", "sub2.channel_id", "u.id", "sub2.subscriber_id", viewerID).
		Sort("s.created_at", model.SortDesc).
		Paginate(page, limit)

	return s.userRepo.QueryChannelSummaries(ctx, p)
}

// ListSubscribedTo はユーザーが購読しているチャンネルの一覧を返す。
// ListSubscribersと対称なパイプラインで、エッジの反対側を辿る。
func (s *Service) ListSubscribedTo(ctx context.Context, subscriberID, viewerID string, page, limit int) ([]model.ChannelSummary, error) {
	p := pipeline.From("subscriptions", "s").
		Project(repository.OwnerColumns, "s.created_at").
		MatchScopeRef("s.subscriber_id", subscriberID).
		JoinOne("users", "u", "u.id = s.channel_id").
		DeriveCount("subscriber_count", "subscriptions sub", "sub.channel_id", "u.id").
		DeriveExists("is_subscribed", "subscriptions sub2", "sub2.channel_id", "u.id", "sub2.subscriber_id", viewerID).
		Sort("s.created_at", model.SortDesc).
		Paginate(page, limit)

	return s.userRepo.QueryChannelSummaries(ctx, p)
}

// Stats はチャンネルダッシュボードの集計値を返す。
// すべて読み取り時に動画・エッジから再計算される。
func (s *Service) Stats(ctx context.Context, channelID string) (*model.ChannelStats, error) {
	channel, err := s.userRepo.FindByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, model.NewChannelNotFoundError(channelID)
	}
	return s.userRepo.ChannelStats(ctx, channelID)
}
