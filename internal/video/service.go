// Package video は動画フィード・動画詳細・動画ライフサイクルのドメインロジックを提供する。
package video

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/cliptube/internal/media"
	"github.com/hitoshi/cliptube/internal/model"
	"github.com/hitoshi/cliptube/internal/pipeline"
	"github.com/hitoshi/cliptube/internal/repository"
	"github.com/hitoshi/cliptube/internal/security"
)

// FeedParams は動画フィード一覧の入力パラメータ。
type FeedParams struct {
	Page          int
	Limit         int
	Query         string // 空なら全文検索なし
	SortField     string // 空ならcreated_at
	SortDirection model.SortDirection
	OwnerFilter   string // 空なら全チャンネル
}

// sortColumns はソートフィールドのホワイトリスト。
// キーは外部入力、値は生成SQLのカラム式。
var sortColumns = map[string]string{
	"created_at": "v.created_at",
	"views":      "v.views",
	"duration":   "v.duration",
	"title":      "v.title",
}

// Service は動画のサービス層。
// フィード一覧・詳細取得（副作用付き）・所有者によるライフサイクル操作を提供する。
type Service struct {
	videoRepo repository.VideoRepository
	watchRepo repository.WatchHistoryRepository
	storage   media.Storage
	sanitizer security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	videoRepo repository.VideoRepository,
	watchRepo repository.WatchHistoryRepository,
	storage media.Storage,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		videoRepo: videoRepo,
		watchRepo: watchRepo,
		storage:   storage,
		sanitizer: sanitizer,
	}
}

// ListFeed は公開動画のフィード一覧を返す。
// 全文検索クエリがある場合は関連度順が最優先のソートキーになる。
// 該当なしは空の一覧として返す（エラーではない）。
func (s *Service) ListFeed(ctx context.Context, params FeedParams) ([]model.VideoWithOwner, error) {
	sortField := params.SortField
	if sortField == "" {
		sortField = "created_at"
	}
	sortColumn, ok := sortColumns[sortField]
	if !ok {
		return nil, model.NewInvalidSortFieldError(params.SortField)
	}
	direction := params.SortDirection
	if direction == "" {
		direction = model.SortDesc
	}

	p := pipeline.From("videos", "v").
		Project(repository.VideoColumns)
	if params.Query != "" {
		p = p.Search(params.Query, "v.title", "v.description")
	}
	if params.OwnerFilter != "" {
		p = p.MatchScopeRef("v.owner_id", params.OwnerFilter)
	}
	p = p.Match("v.is_published", true).
		JoinOne("users", "u", "u.id = v.owner_id", repository.OwnerColumns).
		Sort(sortColumn, direction).
		Paginate(params.Page, params.Limit)

	videos, err := s.videoRepo.QueryWithOwner(ctx, p)
	if err != nil {
		return nil, err
	}
	return videos, nil
}

// GetDetail は動画詳細を返し、副作用として視聴回数を1増やし、
// 認証済み視聴者の視聴履歴を更新する。
// 非公開動画は所有者のみ閲覧でき、他の視聴者にはVIDEO_NOT_FOUNDを返す。
// 匿名視聴者（viewerIDが空）では視聴者相対フィールドはすべてfalseになる。
func (s *Service) GetDetail(ctx context.Context, videoID, viewerID string) (*model.VideoDetail, error) {
	p := pipeline.From("videos", "v").
		Project(repository.VideoColumns).
		MatchRef("v.id", videoID).
		JoinOne("users", "u", "u.id = v.owner_id", repository.OwnerColumns).
		DeriveCount("owner_subscriber_count", "subscriptions", "subscriptions.channel_id", "v.owner_id").
		DeriveExists("is_subscribed_to_owner", "subscriptions", "subscriptions.channel_id", "v.owner_id", "subscriptions.subscriber_id", viewerID).
		DeriveCount("likes_count", "likes", "likes.video_id", "v.id").
		DeriveExists("is_liked", "likes", "likes.video_id", "v.id", "likes.liked_by_id", viewerID)

	detail, err := s.videoRepo.QueryDetail(ctx, p)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, model.NewVideoNotFoundError(videoID)
	}
	if !detail.IsPublished && detail.OwnerID != viewerID {
		return nil, model.NewVideoNotFoundError(videoID)
	}

	if err := s.videoRepo.IncrementViews(ctx, detail.ID); err != nil {
		return nil, fmt.Errorf("視聴回数の更新に失敗しました: %w", err)
	}
	detail.Views++

	// 再視聴は新規行を作らず先頭へ移動する
	if viewerID != "" {
		if err := s.watchRepo.Upsert(ctx, viewerID, detail.ID, time.Now()); err != nil {
			return nil, fmt.Errorf("視聴履歴の更新に失敗しました: %w", err)
		}
	}

	return detail, nil
}

// PublishInput は動画公開の入力。
type PublishInput struct {
	Title         string
	Description   string
	VideoFile     io.Reader
	VideoName     string
	ThumbnailFile io.Reader
	ThumbnailName string
}

// Publish は動画をアップロードして公開する。
// メディアストレージへの保存で得たURLと再生時間を記録する。
func (s *Service) Publish(ctx context.Context, ownerID string, input PublishInput) (*model.Video, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, model.NewInvalidTitleError()
	}

	saved, err := s.storage.SaveVideo(ctx, input.VideoFile, input.VideoName)
	if err != nil {
		return nil, fmt.Errorf("動画ファイルの保存に失敗しました: %w", err)
	}

	thumbnailURL := ""
	if input.ThumbnailFile != nil {
		thumbnailURL, err = s.storage.SaveImage(ctx, input.ThumbnailFile, input.ThumbnailName)
		if err != nil {
			return nil, fmt.Errorf("サムネイルの保存に失敗しました: %w", err)
		}
	}

	now := time.Now()
	video := &model.Video{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		Title:        title,
		Description:  s.sanitizer.Sanitize(input.Description),
		VideoURL:     saved.URL,
		ThumbnailURL: thumbnailURL,
		Duration:     saved.Duration,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.videoRepo.Create(ctx, video); err != nil {
		return nil, fmt.Errorf("動画の作成に失敗しました: %w", err)
	}

	return video, nil
}

// UpdateInput は動画更新の入力。
type UpdateInput struct {
	Title        string
	Description  string
	ThumbnailURL string // 外部URLを指定するとSSRFガード付きで取り込まれる
}

// Update はタイトル・説明・サムネイルを更新する。所有者のみ実行できる。
// 所有権は操作時点で再検証される。
func (s *Service) Update(ctx context.Context, viewerID, videoID string, input UpdateInput) (*model.Video, error) {
	video, err := s.authorize(ctx, viewerID, videoID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, model.NewInvalidTitleError()
	}

	video.Title = title
	video.Description = s.sanitizer.Sanitize(input.Description)

	if input.ThumbnailURL != "" {
		imported, err := s.storage.ImportRemoteImage(ctx, input.ThumbnailURL)
		if err != nil {
			return nil, fmt.Errorf("サムネイルの取り込みに失敗しました: %w", err)
		}
		video.ThumbnailURL = imported
	}

	if err := s.videoRepo.Update(ctx, video); err != nil {
		return nil, fmt.Errorf("動画の更新に失敗しました: %w", err)
	}

	return video, nil
}

// Delete は動画を削除する。所有者のみ実行できる。
// 関連するいいね・コメント・視聴履歴・プレイリスト収録はCASCADE削除される。
func (s *Service) Delete(ctx context.Context, viewerID, videoID string) error {
	if _, err := s.authorize(ctx, viewerID, videoID); err != nil {
		return err
	}

	if err := s.videoRepo.Delete(ctx, videoID); err != nil {
		return fmt.Errorf("動画の削除に失敗しました: %w", err)
	}
	return nil
}

// TogglePublish は公開フラグを反転し、反転後の状態を返す。所有者のみ実行できる。
func (s *Service) TogglePublish(ctx context.Context, viewerID, videoID string) (bool, error) {
	video, err := s.authorize(ctx, viewerID, videoID)
	if err != nil {
		return false, err
	}

	published := !video.IsPublished
	if err := s.videoRepo.SetPublished(ctx, videoID, published); err != nil {
		return false, fmt.Errorf("公開状態の更新に失敗しました: %w", err)
	}
	return published, nil
}

// authorize は動画の存在と所有権を操作時点で検証する。
func (s *Service) authorize(ctx context.Context, viewerID, videoID string) (*model.Video, error) {
	video, err := s.videoRepo.FindByID(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("動画の取得に失敗しました: %w", err)
	}
	if video == nil {
		return nil, model.NewVideoNotFoundError(videoID)
	}
	if video.OwnerID != viewerID {
		return nil, model.NewForbiddenError()
	}
	return video, nil
}
