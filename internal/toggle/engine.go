// Package toggle はエッジ（購読・いいね）のトグル操作を実装する。
//
// トグルは「エッジが無ければ張る、有れば外す」を1回の呼び出しで行う。
// 読み取ってから書くのではなく、まず削除を試み、削除できなければ
// 条件付き挿入を試みる。どちらのステートメントも原子的なので、
// 同一ペアへの並行トグルが重複エッジを作ることはない。
package toggle

import (
	"context"

	"github.com/google/uuid"

	"github.com/hitoshi/cliptube/internal/model"
)

// EdgeKey はトグル対象のエッジを識別する順序付きペア。
type EdgeKey struct {
	// FromID はエッジの起点（購読者・いいねしたユーザー）。
	FromID string
	// ToID はエッジの終点（チャンネル・動画・コメント）。
	ToID string
}

// EdgeStore はトグル対象エッジの原子的な作成・削除を提供する。
// 実装はrepositoryパッケージのON CONFLICT DO NOTHING挿入と
// 影響行数付き削除を想定している。
type EdgeStore interface {
	// Insert はエッジを作成する。既に存在していた場合はfalseを返す。
	Insert(ctx context.Context, key EdgeKey) (bool, error)
	// Delete はエッジを削除する。存在しなかった場合はfalseを返す。
	Delete(ctx context.Context, key EdgeKey) (bool, error)
}

// Engine はエッジストア上でトグル操作を実行する。
type Engine struct {
	store EdgeStore
}

// NewEngine はEngineを生成する。
func NewEngine(store EdgeStore) *Engine {
	return &Engine{store: store}
}

// Toggle はエッジの有無を反転し、操作後の状態を返す。
// 戻り値がtrueならエッジは存在する（今回張られた）、falseなら存在しない
// （今回外された）。両端のIDはUUIDとして検証され、不正な場合は
// INVALID_REFERENCEエラーを返す。
//
// 削除が先に試みられるため、並行する2つのトグルが競合した場合でも
// 結果は「一方が張り、他方が外す」か「一方が外し、他方が張る」のいずれかに
// 収束し、重複エッジや取りこぼしは発生しない。挿入時の一意制約衝突は
// 直前に他の呼び出しがエッジを張ったことを意味するので、activeとして扱う。
func (e *Engine) Toggle(ctx context.Context, key EdgeKey) (bool, error) {
	if _, err := uuid.Parse(key.FromID); err != nil {
		return false, model.NewInvalidReferenceError(key.FromID)
	}
	if _, err := uuid.Parse(key.ToID); err != nil {
		return false, model.NewInvalidReferenceError(key.ToID)
	}

	deleted, err := e.store.Delete(ctx, key)
	if err != nil {
		return false, err
	}
	if deleted {
		return false, nil
	}

	// エッジが無かったので張る。ON CONFLICTで弾かれた場合は
	// 並行トグルが直前に張っているため、結果はどちらでもactive。
	if _, err := e.store.Insert(ctx, key); err != nil {
		return false, err
	}
	return true, nil
}
