// Package model はドメインモデルを定義する。
package model

import "time"

// Playlist はプレイリストを表す。OwnerIDは作成後に変更されない。
// 動画集合はplaylist_videosテーブルで保持し、同一動画は高々1回のみ含まれる。
type Playlist struct {
	ID          string
	OwnerID     string
	Name        string
	Description string // サニタイズ済みHTML
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PlaylistSummary はプレイリスト一覧の1件を表す。
// 動画数と合計視聴回数は読み取り時に導出される。
type PlaylistSummary struct {
	Playlist
	TotalVideos int
	TotalViews  int64
}

// PlaylistDetail はプレイリスト詳細ビュー。
// 収録動画（追加順）と所有者要約を付与する。
type PlaylistDetail struct {
	PlaylistSummary
	Owner  OwnerSummary
	Videos []VideoWithOwner
}
