// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/cliptube/internal/model"
	"github.com/hitoshi/cliptube/internal/pipeline"
)

// 読み取りモデルの正準射影。
// アセンブラがパイプラインのProjectステージに渡し、QueryXxx系メソッドは
// この並びで行をスキャンする。
const (
	// VideoColumns は動画テーブル（別名 v）の全公開カラム。
	VideoColumns = "v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url, v.duration, v.views, v.is_published, v.created_at, v.updated_at"
	// OwnerColumns は所有者結合（usersテーブル、別名 u）の公開カラム。
	OwnerColumns = "u.id, u.name, u.handle, u.avatar_url"
	// ChannelColumns はチャンネルプロフィール射影（usersテーブル、別名 u）。
	ChannelColumns = "u.id, u.name, u.handle, u.avatar_url, u.cover_url, u.created_at"
	// PlaylistColumns はプレイリストテーブル（別名 p）の全カラム。
	PlaylistColumns = "p.id, p.owner_id, p.name, p.description, p.created_at, p.updated_at"
	// CommentColumns はコメントテーブル（別名 c）の全カラム。
	CommentColumns = "c.id, c.video_id, c.owner_id, c.content, c.created_at, c.updated_at"
)

// UserRepository はユーザー（チャンネル）データの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByHandle はハンドル名でユーザーを検索する（大文字小文字を区別しない）。
	// 見つからない場合はnilを返す。
	FindByHandle(ctx context.Context, handle string) (*model.User, error)

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error

	// UpdateProfile は表示名・アバター・カバー画像を更新する。
	UpdateProfile(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するidentities、sessions、動画、エッジはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error

	// QueryChannelProfile はチャンネルプロフィールのパイプラインを実行する。
	// 射影はChannelColumns + 導出フィールド(subscriber_count, subscribed_to_count,
	// is_subscribed)を前提とする。該当なしの場合はnilを返す。
	QueryChannelProfile(ctx context.Context, p *pipeline.Pipeline) (*model.ChannelProfile, error)

	// QueryChannelSummaries は購読者一覧・購読チャンネル一覧のパイプラインを実行する。
	// 射影はOwnerColumns + s.created_at + 導出フィールド(subscriber_count,
	// is_subscribed)を前提とする。
	QueryChannelSummaries(ctx context.Context, p *pipeline.Pipeline) ([]model.ChannelSummary, error)

	// ChannelStats はチャンネルの集計値（動画数・総視聴回数・購読者数・総いいね数）を
	// 読み取り時に導出して返す。
	ChannelStats(ctx context.Context, channelID string) (*model.ChannelStats, error)
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// VideoRepository は動画データの永続化インターフェース。
type VideoRepository interface {
	// FindByID は指定IDの動画を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Video, error)

	// Create は動画を作成する。
	Create(ctx context.Context, video *model.Video) error

	// Update はタイトル・説明・サムネイルを更新する。
	Update(ctx context.Context, video *model.Video) error

	// Delete は指定IDの動画を削除する。
	Delete(ctx context.Context, id string) error

	// SetPublished は公開フラグを更新する。
	SetPublished(ctx context.Context, id string, published bool) error

	// IncrementViews は視聴回数を原子的に1増やす。
	IncrementViews(ctx context.Context, id string) error

	// QueryWithOwner は動画+所有者要約のパイプラインを実行する。
	// 射影はVideoColumns + OwnerColumnsを前提とする。
	QueryWithOwner(ctx context.Context, p *pipeline.Pipeline) ([]model.VideoWithOwner, error)

	// QueryDetail は動画詳細のパイプラインを実行する。
	// 射影はVideoColumns + OwnerColumns + 導出フィールド(owner_subscriber_count,
	// is_subscribed_to_owner, likes_count, is_liked)を前提とする。
	// 該当なしの場合はnilを返す。
	QueryDetail(ctx context.Context, p *pipeline.Pipeline) (*model.VideoDetail, error)
}

// SubscriptionRepository は購読エッジの永続化インターフェース。
// 存在確認以外のビジネスロジックは持たない。
type SubscriptionRepository interface {
	// Insert は購読エッジを原子的に作成する。
	// 既に存在する場合はfalseを返す（エラーにはしない）。
	Insert(ctx context.Context, sub *model.Subscription) (bool, error)

	// Delete は購読エッジを原子的に削除する。
	// 存在しない場合はfalseを返す（エラーにはしない）。
	Delete(ctx context.Context, subscriberID, channelID string) (bool, error)

	// Exists は購読エッジの存在を確認する。
	Exists(ctx context.Context, subscriberID, channelID string) (bool, error)

	// CountByChannel は指定チャンネルの購読者数を返す。
	CountByChannel(ctx context.Context, channelID string) (int, error)
}

// LikeRepository はいいねエッジの永続化インターフェース。
// 対象種別（動画/コメント）ごとに原子的な作成・削除を提供する。
type LikeRepository interface {
	// InsertVideoLike は動画いいねエッジを原子的に作成する。
	// 既に存在する場合はfalseを返す。
	InsertVideoLike(ctx context.Context, like *model.Like) (bool, error)

	// DeleteVideoLike は動画いいねエッジを原子的に削除する。
	// 存在しない場合はfalseを返す。
	DeleteVideoLike(ctx context.Context, likedByID, videoID string) (bool, error)

	// InsertCommentLike はコメントいいねエッジを原子的に作成する。
	InsertCommentLike(ctx context.Context, like *model.Like) (bool, error)

	// DeleteCommentLike はコメントいいねエッジを原子的に削除する。
	DeleteCommentLike(ctx context.Context, likedByID, commentID string) (bool, error)

	// CountByVideo は指定動画のいいね数を返す。
	CountByVideo(ctx context.Context, videoID string) (int, error)
}

// WatchHistoryRepository は視聴履歴の永続化インターフェース。
type WatchHistoryRepository interface {
	// Upsert は視聴履歴を冪等に記録する。
	// 同一動画の再視聴は新規行を作らずwatched_atのみ更新する（先頭へ移動）。
	Upsert(ctx context.Context, userID, videoID string, watchedAt time.Time) error
}

// PlaylistRepository はプレイリストデータの永続化インターフェース。
type PlaylistRepository interface {
	// FindByID は指定IDのプレイリストを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Playlist, error)

	// Create はプレイリストを作成する。
	Create(ctx context.Context, playlist *model.Playlist) error

	// Update は名前・説明を更新する。
	Update(ctx context.Context, playlist *model.Playlist) error

	// Delete は指定IDのプレイリストを削除する。収録動画の参照はCASCADE削除される。
	Delete(ctx context.Context, id string) error

	// AddVideo は動画を集合セマンティクスで追加する。
	// 既に含まれている場合はfalseを返す（no-op、エラーにはしない）。
	AddVideo(ctx context.Context, playlistID, videoID string, addedAt time.Time) (bool, error)

	// RemoveVideo は動画を集合から除去する。
	// 含まれていない場合はfalseを返す（no-op、エラーにはしない）。
	RemoveVideo(ctx context.Context, playlistID, videoID string) (bool, error)

	// QuerySummaries はプレイリスト一覧のパイプラインを実行する。
	// 射影はPlaylistColumns + 導出フィールド(total_videos, total_views)を前提とする。
	QuerySummaries(ctx context.Context, p *pipeline.Pipeline) ([]model.PlaylistSummary, error)
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Comment, error)

	// Create はコメントを作成する。
	Create(ctx context.Context, comment *model.Comment) error

	// Update は本文を更新する。
	Update(ctx context.Context, comment *model.Comment) error

	// Delete は指定IDのコメントを削除する。
	Delete(ctx context.Context, id string) error

	// QueryWithMeta はコメント一覧のパイプラインを実行する。
	// 射影はCommentColumns + OwnerColumns + 導出フィールド(likes_count, is_liked)を
	// 前提とする。
	QueryWithMeta(ctx context.Context, p *pipeline.Pipeline) ([]model.CommentWithMeta, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
