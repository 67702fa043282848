// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, content, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidReference      = "INVALID_REFERENCE"
	ErrCodeVideoNotFound         = "VIDEO_NOT_FOUND"
	ErrCodeChannelNotFound       = "CHANNEL_NOT_FOUND"
	ErrCodePlaylistNotFound      = "PLAYLIST_NOT_FOUND"
	ErrCodeCommentNotFound       = "COMMENT_NOT_FOUND"
	ErrCodeUserNotFound          = "USER_NOT_FOUND"
	ErrCodeForbidden             = "FORBIDDEN"
	ErrCodeUnsupportedTargetKind = "UNSUPPORTED_TARGET_KIND"
	ErrCodeStoreUnavailable      = "STORE_UNAVAILABLE"
	ErrCodeInvalidSortField      = "INVALID_SORT_FIELD"
	ErrCodeInvalidTitle          = "INVALID_TITLE"
)

// NewInvalidReferenceError は不正なエンティティ参照エラーを生成する。
// UUID形式でない識別子が渡された場合に使用する。
func NewInvalidReferenceError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidReference,
		Message:  fmt.Sprintf("不正なエンティティ参照です: %s", id),
		Category: "validation",
		Action:   "識別子の形式を確認してください。",
	}
}

// NewVideoNotFoundError は動画未検出エラーを生成する。
func NewVideoNotFoundError(videoID string) *APIError {
	return &APIError{
		Code:     ErrCodeVideoNotFound,
		Message:  fmt.Sprintf("指定された動画が見つかりません: %s", videoID),
		Category: "content",
		Action:   "動画IDを確認してください。",
	}
}

// NewChannelNotFoundError はチャンネル未検出エラーを生成する。
func NewChannelNotFoundError(handle string) *APIError {
	return &APIError{
		Code:     ErrCodeChannelNotFound,
		Message:  fmt.Sprintf("指定されたチャンネルが見つかりません: %s", handle),
		Category: "content",
		Action:   "チャンネルのハンドル名を確認してください。",
	}
}

// NewPlaylistNotFoundError はプレイリスト未検出エラーを生成する。
func NewPlaylistNotFoundError(playlistID string) *APIError {
	return &APIError{
		Code:     ErrCodePlaylistNotFound,
		Message:  fmt.Sprintf("指定されたプレイリストが見つかりません: %s", playlistID),
		Category: "content",
		Action:   "プレイリストIDを確認してください。",
	}
}

// NewCommentNotFoundError はコメント未検出エラーを生成する。
func NewCommentNotFoundError(commentID string) *APIError {
	return &APIError{
		Code:     ErrCodeCommentNotFound,
		Message:  fmt.Sprintf("指定されたコメントが見つかりません: %s", commentID),
		Category: "content",
		Action:   "コメントIDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewForbiddenError は所有権・認可違反エラーを生成する。
// 所有者以外による変更操作で使用する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "自分が所有するコンテンツに対してのみ実行できます。",
	}
}

// NewUnsupportedTargetKindError は未対応のいいね対象種別エラーを生成する。
// ツイートいいね等、ストレージ未対応の対象種別で使用する。
func NewUnsupportedTargetKindError(kind string) *APIError {
	return &APIError{
		Code:     ErrCodeUnsupportedTargetKind,
		Message:  fmt.Sprintf("未対応のいいね対象種別です: %s", kind),
		Category: "content",
		Action:   "動画またはコメントに対してのみいいねできます。",
	}
}

// NewStoreUnavailableError はストア障害エラーを生成する。
// I/O障害・タイムアウト等、ストア層の失敗を表す。
func NewStoreUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeStoreUnavailable,
		Message:  "データストアへのアクセスに失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInvalidSortFieldError は無効なソートフィールドエラーを生成する。
func NewInvalidSortFieldError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSortField,
		Message:  fmt.Sprintf("無効なソートフィールドです: %s", field),
		Category: "validation",
		Action:   "created_at、views、duration、title のいずれかを指定してください。",
	}
}

// NewInvalidTitleError は無効なタイトルエラーを生成する。
func NewInvalidTitleError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTitle,
		Message:  "タイトルが空です。",
		Category: "validation",
		Action:   "1文字以上のタイトルを入力してください。",
	}
}
