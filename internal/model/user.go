// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザー（＝チャンネル）を表す。
// ハンドル名はチャンネルURLに使う一意な識別子で、検索は大文字小文字を区別しない。
type User struct {
	ID        string
	Email     string
	Name      string
	Handle    string
	AvatarURL string
	CoverURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity は外部IdPとの紐付け情報を表す。
// 将来的に複数のIdP（Google, GitHub等）に対応可能な構造。
type Identity struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// WatchEntry は視聴履歴の1件を表す。
// (user_id, video_id) ごとに1件のみ保持し、再視聴時はWatchedAtを更新して先頭に移動する。
type WatchEntry struct {
	UserID    string
	VideoID   string
	WatchedAt time.Time
}
