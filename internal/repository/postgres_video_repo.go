package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/cliptube/internal/model"
	"github.com/hitoshi/cliptube/internal/pipeline"
)

// PostgresVideoRepo はPostgreSQLを使用した動画リポジトリ。
type PostgresVideoRepo struct {
	db *sql.DB
}

// NewPostgresVideoRepo はPostgresVideoRepoを生成する。
func NewPostgresVideoRepo(db *sql.DB) *PostgresVideoRepo {
	return &PostgresVideoRepo{db: db}
}

// FindByID は指定IDの動画を取得する。見つからない場合はnilを返す。
func (r *PostgresVideoRepo) FindByID(ctx context.Context, id string) (*model.Video, error) {
	video := &model.Video{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, description, video_url, thumbnail_url, duration, views, is_published, created_at, updated_at
		 FROM videos WHERE id = $1`,
		id,
	).Scan(
		&video.ID, &video.OwnerID, &video.Title, &video.Description,
		&video.VideoURL, &video.ThumbnailURL, &video.Duration, &video.Views,
		&video.IsPublished, &video.CreatedAt, &video.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("動画の取得に失敗しました: %w", err)
	}

	return video, nil
}

// Create は動画を作成する。
func (r *PostgresVideoRepo) Create(ctx context.Context, video *model.Video) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO videos (id, owner_id, title, description, video_url, thumbnail_url, duration, views, is_published, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		video.ID, video.OwnerID, video.Title, video.Description,
		video.VideoURL, video.ThumbnailURL, video.Duration, video.Views,
		video.IsPublished, video.CreatedAt, video.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("動画の作成に失敗しました: %w", err)
	}
	return nil
}

// Update はタイトル・説明・サムネイルを更新する。
func (r *PostgresVideoRepo) Update(ctx context.Context, video *model.Video) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE videos SET title = $2, description = $3, thumbnail_url = $4, updated_at = NOW() WHERE id = $1`,
		video.ID, video.Title, video.Description, video.ThumbnailURL,
	)
	if err != nil {
		return fmt.Errorf("動画の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("動画が見つかりません: %s", video.ID)
	}
	return nil
}

// Delete は指定IDの動画を削除する。
func (r *PostgresVideoRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM videos WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("動画の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("動画が見つかりません: %s", id)
	}
	return nil
}

// SetPublished は公開フラグを更新する。
func (r *PostgresVideoRepo) SetPublished(ctx context.Context, id string, published bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE videos SET is_published = $2, updated_at = NOW() WHERE id = $1`,
		id, published,
	)
	if err != nil {
		return fmt.Errorf("公開フラグの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("動画が見つかりません: %s", id)
	}
	return nil
}

// IncrementViews は視聴回数を原子的に1増やす。
// 単一文のUPDATEなので並行する視聴でもカウントは失われない。
func (r *PostgresVideoRepo) IncrementViews(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE videos SET views = views + 1 WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("視聴回数の更新に失敗しました: %w", err)
	}
	return nil
}

// QueryWithOwner は動画+所有者要約のパイプラインを実行する。
func (r *PostgresVideoRepo) QueryWithOwner(ctx context.Context, p *pipeline.Pipeline) ([]model.VideoWithOwner, error) {
	query, args, err := p.Compile()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("動画一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var results []model.VideoWithOwner
	for rows.Next() {
		var vw model.VideoWithOwner
		if err := scanVideoColumns(rows, &vw.Video, &vw.Owner); err != nil {
			return nil, fmt.Errorf("動画行の読み取りに失敗しました: %w", err)
		}
		results = append(results, vw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("動画一覧の走査に失敗しました: %w", err)
	}
	return results, nil
}

// QueryDetail は動画詳細のパイプラインを実行する。該当なしの場合はnilを返す。
func (r *PostgresVideoRepo) QueryDetail(ctx context.Context, p *pipeline.Pipeline) (*model.VideoDetail, error) {
	query, args, err := p.Compile()
	if err != nil {
		return nil, err
	}

	detail := &model.VideoDetail{}
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&detail.ID, &detail.OwnerID, &detail.Title, &detail.Description,
		&detail.VideoURL, &detail.ThumbnailURL, &detail.Duration, &detail.Views,
		&detail.IsPublished, &detail.CreatedAt, &detail.UpdatedAt,
		&detail.Owner.ID, &detail.Owner.Name, &detail.Owner.Handle, &detail.Owner.AvatarURL,
		&detail.OwnerSubscriberCount, &detail.IsSubscribedToOwner,
		&detail.LikesCount, &detail.IsLiked,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("動画詳細の取得に失敗しました: %w", err)
	}

	return detail, nil
}

// scanVideoColumns はVideoColumns + OwnerColumnsの並びで1行をスキャンする。
func scanVideoColumns(rows *sql.Rows, video *model.Video, owner *model.OwnerSummary) error {
	return rows.Scan(
		&video.ID, &video.OwnerID, &video.Title, &video.Description,
		&video.VideoURL, &video.ThumbnailURL, &video.Duration, &video.Views,
		&video.IsPublished, &video.CreatedAt, &video.UpdatedAt,
		&owner.ID, &owner.Name, &owner.Handle, &owner.AvatarURL,
	)
}

// compile-time interface check
var _ VideoRepository = (*PostgresVideoRepo)(nil)
