// Package model はドメインモデルを定義する。
package model

import "time"

// Video は投稿動画を表す。
// OwnerIDは作成後に変更されない。ViewsはGetVideoDetailの副作用でのみ増加する単調カウンタ。
type Video struct {
	ID           string
	OwnerID      string
	Title        string
	Description  string // サニタイズ済みHTML
	VideoURL     string
	ThumbnailURL string
	Duration     float64 // 秒
	Views        int64
	IsPublished  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OwnerSummary は一覧・詳細ビューに添付するチャンネル所有者の要約。
// usersテーブルとのJOINで取得される公開フィールドのみを持つ。
type OwnerSummary struct {
	ID        string
	Name      string
	Handle    string
	AvatarURL string
}

// VideoWithOwner は動画と所有者要約を結合した読み取りモデル。
type VideoWithOwner struct {
	Video
	Owner OwnerSummary
}

// VideoDetail は動画詳細ビュー。いいね数・視聴者相対フィールド・
// 所有者のチャンネル集計を読み取り時に導出して付与する。
type VideoDetail struct {
	Video
	Owner                OwnerSummary
	OwnerSubscriberCount int
	IsSubscribedToOwner  bool
	LikesCount           int
	IsLiked              bool
}

// SortDirection はソート方向を表す。
type SortDirection string

const (
	// SortAsc は昇順ソート。
	SortAsc SortDirection = "asc"
	// SortDesc は降順ソート。
	SortDesc SortDirection = "desc"
)
