// Package like はいいね管理のドメインロジックを提供する。
package like

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/cliptube/internal/model"
	"github.com/hitoshi/cliptube/internal/pipeline"
	"github.com/hitoshi/cliptube/internal/repository"
	"github.com/hitoshi/cliptube/internal/toggle"
)

// ToggleResult はトグル操作後のいいね状態。
type ToggleResult struct {
	// Liked は操作後にいいねエッジが存在するかどうか。
	Liked bool
	// LikesCount は操作後の対象のいいね数（読み取り時導出）。
	LikesCount int
}

// Service はいいね管理のサービス層。
// 対象種別（動画・コメント）ごとのトグルと、いいね済み動画一覧を提供する。
type Service struct {
	likeRepo      repository.LikeRepository
	videoRepo     repository.VideoRepository
	commentRepo   repository.CommentRepository
	videoEngine   *toggle.Engine
	commentEngine *toggle.Engine
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	likeRepo repository.LikeRepository,
	videoRepo repository.VideoRepository,
	commentRepo repository.CommentRepository,
) *Service {
	return &Service{
		likeRepo:      likeRepo,
		videoRepo:     videoRepo,
		commentRepo:   commentRepo,
		videoEngine:   toggle.NewEngine(&videoLikeEdgeStore{repo: likeRepo}),
		commentEngine: toggle.NewEngine(&commentLikeEdgeStore{repo: likeRepo}),
	}
}

// Toggle は視聴者と対象間のいいねエッジを反転する。
// ツイート対象は宣言のみでストレージ未対応のため、
// UNSUPPORTED_TARGET_KINDエラーを返す。
func (s *Service) Toggle(ctx context.Context, viewerID string, kind model.LikeTargetKind, targetID string) (*ToggleResult, error) {
	switch kind {
	case model.LikeTargetVideo:
		return s.toggleVideoLike(ctx, viewerID, targetID)
	case model.LikeTargetComment:
		return s.toggleCommentLike(ctx, viewerID, targetID)
	default:
		return nil, model.NewUnsupportedTargetKindError(string(kind))
	}
}

func (s *Service) toggleVideoLike(ctx context.Context, viewerID, videoID string) (*ToggleResult, error) {
	video, err := s.videoRepo.FindByID(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("動画の取得に失敗しました: %w", err)
	}
	if video == nil {
		return nil, model.NewVideoNotFoundError(videoID)
	}

	liked, err := s.videoEngine.Toggle(ctx, toggle.EdgeKey{FromID: viewerID, ToID: videoID})
	if err != nil {
		return nil, err
	}

	count, err := s.likeRepo.CountByVideo(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("いいね数の取得に失敗しました: %w", err)
	}

	return &ToggleResult{Liked: liked, LikesCount: count}, nil
}

func (s *Service) toggleCommentLike(ctx context.Context, viewerID, commentID string) (*ToggleResult, error) {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("コメントの取得に失敗しました: %w", err)
	}
	if comment == nil {
		return nil, model.NewCommentNotFoundError(commentID)
	}

	liked, err := s.commentEngine.Toggle(ctx, toggle.EdgeKey{FromID: viewerID, ToID: commentID})
	if err != nil {
		return nil, err
	}

	return &ToggleResult{Liked: liked}, nil
}

// ListLikedVideos は視聴者がいいねした動画の一覧を返す。
// いいねした日時の降順で並び、所有者要約を付与する。
func (s *Service) ListLikedVideos(ctx context.Context, viewerID string, page, limit int) ([]model.VideoWithOwner, error) {
	p := pipeline.From("likes", "l").
		Project(repository.VideoColumns).
		MatchScopeRef("l.liked_by_id", viewerID).
		MatchNotNull("l.video_id").
		JoinOne("videos", "v", "v.id = l.video_id").
		JoinOne("users", "u", "u.id = v.owner_id", repository.OwnerColumns).
		Sort("l.created_at", model.SortDesc).
		Paginate(page, limit)

	videos, err := s.videoRepo.QueryWithOwner(ctx, p)
	if err != nil {
		return nil, err
	}
	return videos, nil
}

// videoLikeEdgeStore はLikeRepositoryの動画いいね操作をトグルエンジンの
// エッジストアとして適合させる。
type videoLikeEdgeStore struct {
	repo repository.LikeRepository
}

func (s *videoLikeEdgeStore) Insert(ctx context.Context, key toggle.EdgeKey) (bool, error) {
	videoID := key.ToID
	like := &model.Like{
		ID:        uuid.New().String(),
		LikedByID: key.FromID,
		VideoID:   &videoID,
		CreatedAt: time.Now(),
	}
	return s.repo.InsertVideoLike(ctx, like)
}

func (s *videoLikeEdgeStore) Delete(ctx context.Context, key toggle.EdgeKey) (bool, error) {
	return s.repo.DeleteVideoLike(ctx, key.FromID, key.ToID)
}

// commentLikeEdgeStore はLikeRepositoryのコメントいいね操作をトグルエンジンの
// エッジストアとして適合させる。
type commentLikeEdgeStore struct {
	repo repository.LikeRepository
}

func (s *commentLikeEdgeStore) Insert(ctx context.Context, key toggle.EdgeKey) (bool, error) {
	commentID := key.ToID
	like := &model.Like{
		ID:        uuid.New().String(),
		LikedByID: key.FromID,
		CommentID: &commentID,
		CreatedAt: time.Now(),
	}
	return s.repo.InsertCommentLike(ctx, like)
}

func (s *commentLikeEdgeStore) Delete(ctx context.Context, key toggle.EdgeKey) (bool, error) {
	return s.repo.DeleteCommentLike(ctx, key.FromID, key.ToID)
}

var (
	_ toggle.EdgeStore = (*videoLikeEdgeStore)(nil)
	_ toggle.EdgeStore = (*commentLikeEdgeStore)(nil)
)
