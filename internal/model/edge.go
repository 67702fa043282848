// Package model はドメインモデルを定義する。
package model

import "time"

// Subscription は購読エッジ (subscriber -> channel) を表す。
// 順序付きペアごとに高々1本のみ存在する（DBの一意制約で保証）。
// ペイロードは持たず、エッジの存在自体が情報となる。
type Subscription struct {
	ID           string
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// LikeTargetKind はいいね対象の種別を表す。
type LikeTargetKind string

const (
	// LikeTargetVideo は動画へのいいね。
	LikeTargetVideo LikeTargetKind = "video"
	// LikeTargetComment はコメントへのいいね。
	LikeTargetComment LikeTargetKind = "comment"
	// LikeTargetTweet はツイートへのいいね。宣言のみでストレージ未対応。
	LikeTargetTweet LikeTargetKind = "tweet"
)

// Like はいいねエッジ (liked_by -> target) を表す。
// 対象は動画かコメントのどちらか一方のみが設定される（DBのCHECK制約で保証）。
// (liked_by, target) ペアごとに高々1本のみ存在する。
type Like struct {
	ID        string
	LikedByID string
	VideoID   *string
	CommentID *string
	CreatedAt time.Time
}

// TargetKind は設定されている対象からいいね種別を判定する。
func (l *Like) TargetKind() LikeTargetKind {
	if l.VideoID != nil {
		return LikeTargetVideo
	}
	return LikeTargetComment
}

// ChannelProfile はチャンネルプロフィールの読み取りモデル。
// 購読者数・購読数・視聴者相対の購読済みフラグを読み取り時に導出する。
type ChannelProfile struct {
	ID                string
	Name              string
	Handle            string
	AvatarURL         string
	CoverURL          string
	SubscriberCount   int
	SubscribedToCount int
	IsSubscribed      bool
	CreatedAt         time.Time
}

// ChannelSummary は購読者一覧・購読チャンネル一覧の1件を表す。
// 各ユーザー自身の購読者数と相互購読フラグを付与する。
type ChannelSummary struct {
	ID              string
	Name            string
	Handle          string
	AvatarURL       string
	SubscriberCount int
	IsSubscribed    bool
	SubscribedAt    time.Time
}

// ChannelStats はチャンネルダッシュボードの集計値。すべて読み取り時に導出される。
type ChannelStats struct {
	TotalVideos      int
	TotalViews       int64
	TotalSubscribers int
	TotalLikes       int
}
