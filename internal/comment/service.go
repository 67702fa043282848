// Package comment は動画コメントのドメインロジックを提供する。
package comment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/cliptube/internal/model"
	"github.com/hitoshi/cliptube/internal/pipeline"
	"github.com/hitoshi/cliptube/internal/repository"
	"github.com/hitoshi/cliptube/internal/security"
)

// Service はコメントのサービス層。
type Service struct {
	commentRepo repository.CommentRepository
	videoRepo   repository.VideoRepository
	sanitizer   security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	commentRepo repository.CommentRepository,
	videoRepo repository.VideoRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		commentRepo: commentRepo,
		videoRepo:   videoRepo,
		sanitizer:   sanitizer,
	}
}

// Add は動画へコメントを追加する。本文は保存前にサニタイズされる。
func (s *Service) Add(ctx context.Context, viewerID, videoID, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, model.NewInvalidTitleError()
	}

	video, err := s.videoRepo.FindByID(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("動画の取得に失敗しました: %w", err)
	}
	if video == nil {
		return nil, model.NewVideoNotFoundError(videoID)
	}

	now := time.Now()
	comment := &model.Comment{
		ID:        uuid.New().String(),
		VideoID:   videoID,
		OwnerID:   viewerID,
		Content:   s.sanitizer.Sanitize(content),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}
	return comment, nil
}

// List は動画のコメント一覧を新しい順で返す。
// 各コメントに所有者要約・いいね数・視聴者相対のいいね済みフラグを付与する。
func (s *Service) List(ctx context.Context, videoID, viewerID string, page, limit int) ([]model.CommentWithMeta, error) {
	p := pipeline.From("comments", "c").
		Project(repository.CommentColumns).
		MatchScopeRef("c.video_id", videoID).
		JoinOne("users", "u", "u.id = c.owner_id", repository.OwnerColumns).
		DeriveCount("likes_count", "likes", "likes.comment_id", "c.id").
		DeriveExists("is_liked", "likes", "likes.comment_id", "c.id", "likes.liked_by_id", viewerID).
		Sort("c.created_at", model.SortDesc).
		Paginate(page, limit)

	return s.commentRepo.QueryWithMeta(ctx, p)
}

// Update はコメント本文を更新する。コメントの所有者のみ実行できる。
func (s *Service) Update(ctx context.Context, viewerID, commentID, content string) (*model.Comment, error) {
	comment, err := s.authorize(ctx, viewerID, commentID)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, model.NewInvalidTitleError()
	}

	comment.Content = s.sanitizer.Sanitize(content)
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, fmt.Errorf("コメントの更新に失敗しました: %w", err)
	}
	return comment, nil
}

// Delete はコメントを削除する。コメントの所有者のみ実行できる。
func (s *Service) Delete(ctx context.Context, viewerID, commentID string) error {
	if _, err := s.authorize(ctx, viewerID, commentID); err != nil {
		return err
	}
	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}
	return nil
}

// authorize はコメントの存在と所有権を操作時点で検証する。
func (s *Service) authorize(ctx context.Context, viewerID, commentID string) (*model.Comment, error) {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("コメントの取得に失敗しました: %w", err)
	}
	if comment == nil {
		return nil, model.NewCommentNotFoundError(commentID)
	}
	if comment.OwnerID != viewerID {
		return nil, model.NewForbiddenError()
	}
	return comment, nil
}
