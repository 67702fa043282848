package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/cliptube/internal/model"
)

// PostgresLikeRepo はPostgreSQLを使用したいいねエッジリポジトリ。
// (liked_by_id, video_id) と (liked_by_id, comment_id) それぞれの部分一意
// インデックスにより、対象種別ごとにエッジは高々1本に保たれる。
type PostgresLikeRepo struct {
	db *sql.DB
}

// NewPostgresLikeRepo はPostgresLikeRepoを生成する。
func NewPostgresLikeRepo(db *sql.DB) *PostgresLikeRepo {
	return &PostgresLikeRepo{db: db}
}

// InsertVideoLike は動画いいねエッジを原子的に作成する。
// 並行する作成と衝突した場合はfalseを返す。
func (r *PostgresLikeRepo) InsertVideoLike(ctx context.Context, like *model.Like) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO likes (id, liked_by_id, video_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (liked_by_id, video_id) WHERE video_id IS NOT NULL DO NOTHING`,
		like.ID, like.LikedByID, like.VideoID, like.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("動画いいねの作成に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("作成結果の取得に失敗しました: %w", err)
	}
	return rowsAffected == 1, nil
}

// DeleteVideoLike は動画いいねエッジを原子的に削除する。存在しない場合はfalseを返す。
func (r *PostgresLikeRepo) DeleteVideoLike(ctx context.Context, likedByID, videoID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM likes WHERE liked_by_id = $1 AND video_id = $2`,
		likedByID, videoID,
	)
	if err != nil {
		return false, fmt.Errorf("動画いいねの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return rowsAffected == 1, nil
}

// InsertCommentLike はコメントいいねエッジを原子的に作成する。
func (r *PostgresLikeRepo) InsertCommentLike(ctx context.Context, like *model.Like) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO likes (id, liked_by_id, comment_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (liked_by_id, comment_id) WHERE comment_id IS NOT NULL DO NOTHING`,
		like.ID, like.LikedByID, like.CommentID, like.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("コメントいいねの作成に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("作成結果の取得に失敗しました: %w", err)
	}
	return rowsAffected == 1, nil
}

// DeleteCommentLike はコメントいいねエッジを原子的に削除する。
func (r *PostgresLikeRepo) DeleteCommentLike(ctx context.Context, likedByID, commentID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM likes WHERE liked_by_id = $1 AND comment_id = $2`,
		likedByID, commentID,
	)
	if err != nil {
		return false, fmt.Errorf("コメントいいねの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return rowsAffected == 1, nil
}

// CountByVideo は指定動画のいいね数を返す。
func (r *PostgresLikeRepo) CountByVideo(ctx context.Context, videoID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE video_id = $1`,
		videoID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("いいね数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ LikeRepository = (*PostgresLikeRepo)(nil)
