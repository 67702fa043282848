package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresWatchHistoryRepo はPostgreSQLを使用した視聴履歴リポジトリ。
type PostgresWatchHistoryRepo struct {
	db *sql.DB
}

// NewPostgresWatchHistoryRepo はPostgresWatchHistoryRepoを生成する。
func NewPostgresWatchHistoryRepo(db *sql.DB) *PostgresWatchHistoryRepo {
	return &PostgresWatchHistoryRepo{db: db}
}

// Upsert は視聴履歴を冪等に記録する。
// (user_id, video_id) が主キーのため同一動画は1件のみ保持され、
// 再視聴はwatched_atの更新（履歴先頭への移動）になる。単一文なので原子的。
func (r *PostgresWatchHistoryRepo) Upsert(ctx context.Context, userID, videoID string, watchedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO watch_history (user_id, video_id, watched_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, video_id) DO UPDATE SET watched_at = EXCLUDED.watched_at`,
		userID, videoID, watchedAt,
	)
	if err != nil {
		return fmt.Errorf("視聴履歴の記録に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ WatchHistoryRepository = (*PostgresWatchHistoryRepo)(nil)
