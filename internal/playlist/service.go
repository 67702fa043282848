// Package playlist はプレイリストのドメインロジックを提供する。
//
// 収録動画は集合セマンティクスを持つ。既に含まれる動画の追加と、
// 含まれない動画の除去はどちらもno-opであり、エラーにはしない。
package playlist

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

// Service はプレイリストのサービス層。
type Service struct {
	playlistRepo repository.PlaylistRepository
	videoRepo    repository.VideoRepository
	userRepo     repository.UserRepository
	sanitizer    security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	playlistRepo repository.PlaylistRepository,
	videoRepo repository.VideoRepository,
	userRepo repository.UserRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		playlistRepo: playlistRepo,
		videoRepo:    videoRepo,
		userRepo:     userRepo,
		sanitizer:    sanitizer,
	}
}

// Create はプレイリストを作成する。
func (s *Service) Create(ctx context.Context, ownerID, name, description string) (*model.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.NewInvalidTitleError()
	}

	now := time.Now()
	playlist := &model.Playlist{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Name:        name,
		Description: s.sanitizer.Sanitize(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.playlistRepo.Create(ctx, playlist); err != nil {
		return nil, fmt.Errorf("プレイリストの作成に失敗しました: %w", err)
	}
	return playlist, nil
}

// Update は名前・説明を更新する。所有者のみ実行できる。
func (s *Service) Update(ctx context.Context, viewerID, playlistID, name, description string) (*model.Playlist, error) {
	playlist, err := s.authorize(ctx, viewerID, playlistID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.NewInvalidTitleError()
	}

	playlist.Name = name
	playlist.Description = s.sanitizer.Sanitize(description)

	if err := s.playlistRepo.Update(ctx, playlist); err != nil {
		return nil, fmt.Errorf("プレイリストの更新に失敗しました: %w", err)
	}
	return playlist, nil
}

// Delete はプレイリストを削除する。所有者のみ実行できる。
func (s *Service) Delete(ctx context.Context, viewerID, playlistID string) error {
	if _, err := s.authorize(ctx, viewerID, playlistID); err != nil {
		return err
	}
	if err := s.playlistRepo.Delete(ctx, playlistID); err != nil {
		return fmt.Errorf("プレイリストの削除に失敗しました: %w", err)
	}
	return nil
}

// AddVideo は動画をプレイリストへ追加する。所有者のみ実行できる。
// 既に含まれている場合はno-op。戻り値は今回実際に追加されたかどうか。
func (s *Service) AddVideo(ctx context.Context, viewerID, playlistID, videoID string) (bool, error) {
	if _, err := s.authorize(ctx, viewerID, playlistID); err != nil {
		return false, err
	}

	video, err := s.videoRepo.FindByID(ctx, videoID)
	if err != nil {
		return false, fmt.Errorf("動画の取得に失敗しました: %w", err)
	}
	if video == nil {
		return false, model.NewVideoNotFoundError(videoID)
	}

	added, err := s.playlistRepo.AddVideo(ctx, playlistID, videoID, time.Now())
	if err != nil {
		return false, fmt.Errorf("プレイリストへの動画追加に失敗しました: %w", err)
	}
	return added, nil
}

// RemoveVideo は動画をプレイリストから除去する。所有者のみ実行できる。
// 含まれていない場合はno-op。戻り値は今回実際に除去されたかどうか。
func (s *Service) RemoveVideo(ctx context.Context, viewerID, playlistID, videoID string) (bool, error) {
	if _, err := s.authorize(ctx, viewerID, playlistID); err != nil {
		return false, err
	}

	removed, err := s.playlistRepo.RemoveVideo(ctx, playlistID, videoID)
	if err != nil {
		return false, fmt.Errorf("プレイリストからの動画除去に失敗しました: %w", err)
	}
	return removed, nil
}

// List は指定ユーザーのプレイリスト一覧を返す。
// 動画数・合計視聴回数は収録動画から読み取り時に導出する。
func (s *Service) List(ctx context.Context, ownerID string, page, limit int) ([]model.PlaylistSummary, error) {
	p := s.summaryPipeline().
		MatchScopeRef("p.owner_id", ownerID).
		Sort("p.created_at", model.SortDesc).
		Paginate(page, limit)

	return s.playlistRepo.QuerySummaries(ctx, p)
}

// Detail はプレイリスト詳細（所有者要約と収録動画の追加順一覧付き）を返す。
func (s *Service) Detail(ctx context.Context, playlistID string) (*model.PlaylistDetail, error) {
	p := s.summaryPipeline().MatchRef("p.id", playlistID)
	summaries, err := s.playlistRepo.QuerySummaries(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, model.NewPlaylistNotFoundError(playlistID)
	}
	summary := summaries[0]

	owner, err := s.userRepo.FindByID(ctx, summary.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("所有者の取得に失敗しました: %w", err)
	}
	if owner == nil {
		return nil, model.NewUserNotFoundError()
	}

	videosPipeline := pipeline.From("playlist_videos", "pv").
		Project(repository.VideoColumns).
		MatchScopeRef("pv.playlist_id", playlistID).
		JoinOne("videos", "v", "v.id = pv.video_id").
		JoinOne("users", "u", "u.id = v.owner_id", repository.OwnerColumns).
		Sort("pv.added_at", model.SortAsc).
		// playlist_videosは(playlist_id, video_id)複合主キーでidカラムを持たない
		Tiebreak("pv.video_id")

	videos, err := s.videoRepo.QueryWithOwner(ctx, videosPipeline)
	if err != nil {
		return nil, err
	}

	return &model.PlaylistDetail{
		PlaylistSummary: summary,
		Owner: model.OwnerSummary{
			ID:        owner.ID,
			Name:      owner.Name,
			Handle:    owner.Handle,
			AvatarURL: owner.AvatarURL,
		},
		Videos: videos,
	}, nil
}

// summaryPipeline はプレイリスト一覧・詳細で共通の導出付きパイプラインを組み立てる。
func (s *Service) summaryPipeline() *pipeline.Pipeline {
	viewsSub := pipeline.From("playlist_videos", "pv").
		JoinOne("videos", "v", "v.id = pv.video_id").
		MatchOuter("pv.playlist_id", "p.id")

	return pipeline.From("playlists", "p").
		Project(repository.PlaylistColumns).
		DeriveCount("total_videos", "playlist_videos", "playlist_videos.playlist_id", "p.id").
		DeriveFrom("total_views", viewsSub, "COALESCE(SUM(v.views), 0)")
}

// authorize はプレイリストの存在と所有権を操作時点で検証する。
func (s *Service) authorize(ctx context.Context, viewerID, playlistID string) (*model.Playlist, error) {
	playlist, err := s.playlistRepo.FindByID(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("プレイリストの取得に失敗しました: %w", err)
	}
	if playlist == nil {
		return nil, model.NewPlaylistNotFoundError(playlistID)
	}
	if playlist.OwnerID != viewerID {
		return nil, model.NewForbiddenError()
	}
	return playlist, nil
}
