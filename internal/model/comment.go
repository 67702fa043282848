// Package model はドメインモデルを定義する。
package model

import "time"

// Comment は動画へのコメントを表す。
type Comment struct {
	ID        string
	VideoID   string
	OwnerID   string
	Content   string // サニタイズ済み
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommentWithMeta はコメントと所有者要約・いいね集計を結合した読み取りモデル。
type CommentWithMeta struct {
	Comment
	Owner      OwnerSummary
	LikesCount int
	IsLiked    bool
}
