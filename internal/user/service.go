// Package user はユーザー自身に関するドメインロジックを提供する。
// 視聴履歴の取得、プロフィール更新、退会処理を担う。
package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/hitoshi/cliptube/internal/model"
	"github.com/hitoshi/cliptube/internal/pipeline"
	"github.com/hitoshi/cliptube/internal/repository"
)

// Service はユーザーのサービス層。
type Service struct {
	userRepo    repository.UserRepository
	videoRepo   repository.VideoRepository
	sessionRepo repository.SessionRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	videoRepo repository.VideoRepository,
	sessionRepo repository.SessionRepository,
) *Service {
	return &Service{
		userRepo:    userRepo,
		videoRepo:   videoRepo,
		sessionRepo: sessionRepo,
	}
}

// GetWatchHistory は視聴履歴の動画一覧を最近視聴した順で返す。
// 同一動画は高々1件のみで、再視聴された動画は先頭に現れる。
func (s *Service) GetWatchHistory(ctx context.Context, viewerID string, page, limit int) ([]model.VideoWithOwner, error) {
	p := pipeline.From("watch_history", "w").
		Project(repository.VideoColumns).
		MatchScopeRef("w.user_id", viewerID).
		JoinOne("videos", "v", "v.id = w.video_id").
		JoinOne("users", "u", "u.id = v.owner_id", repository.OwnerColumns).
		Sort("w.watched_at", model.SortDesc).
		// watch_historyは(user_id, video_id)複合主キーでidカラムを持たない
		Tiebreak("w.video_id").
		Paginate(page, limit)

	return s.videoRepo.QueryWithOwner(ctx, p)
}

// GetMe は認証済みユーザー自身の情報を返す。
func (s *Service) GetMe(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateProfileInput はプロフィール更新の入力。
type UpdateProfileInput struct {
	Name      string
	AvatarURL string
	CoverURL  string
}

// UpdateProfile は表示名・アバター・カバー画像を更新する。
func (s *Service) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, model.NewInvalidTitleError()
	}

	user.Name = name
	if input.AvatarURL != "" {
		user.AvatarURL = input.AvatarURL
	}
	if input.CoverURL != "" {
		user.CoverURL = input.CoverURL
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}
	return user, nil
}

// Withdraw は退会処理を行う。
// 全セッションを失効させたうえでユーザーを削除する。動画・エッジ・
// 視聴履歴・プレイリストはストアのCASCADE制約で連鎖削除される。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("セッションの削除に失敗しました: %w", err)
	}

	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}
	return nil
}
