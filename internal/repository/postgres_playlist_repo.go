package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/cliptube/internal/model"
	"github.com/hitoshi/cliptube/internal/pipeline"
)

// PostgresPlaylistRepo はPostgreSQLを使用したプレイリストリポジトリ。
type PostgresPlaylistRepo struct {
	db *sql.DB
}

// NewPostgresPlaylistRepo はPostgresPlaylistRepoを生成する。
func NewPostgresPlaylistRepo(db *sql.DB) *PostgresPlaylistRepo {
	return &PostgresPlaylistRepo{db: db}
}

// FindByID は指定IDのプレイリストを取得する。見つからない場合はnilを返す。
func (r *PostgresPlaylistRepo) FindByID(ctx context.Context, id string) (*model.Playlist, error) {
	playlist := &model.Playlist{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, description, created_at, updated_at
		 FROM playlists WHERE id = $1`,
		id,
	).Scan(
		&playlist.ID, &playlist.OwnerID, &playlist.Name, &playlist.Description,
		&playlist.CreatedAt, &playlist.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プレイリストの取得に失敗しました: %w", err)
	}

	return playlist, nil
}

// Create はプレイリストを作成する。
func (r *PostgresPlaylistRepo) Create(ctx context.Context, playlist *model.Playlist) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO playlists (id, owner_id, name, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		playlist.ID, playlist.OwnerID, playlist.Name, playlist.Description,
		playlist.CreatedAt, playlist.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("プレイリストの作成に失敗しました: %w", err)
	}
	return nil
}

// Update は名前・説明を更新する。
func (r *PostgresPlaylistRepo) Update(ctx context.Context, playlist *model.Playlist) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE playlists SET name = $2, description = $3, updated_at = NOW() WHERE id = $1`,
		playlist.ID, playlist.Name, playlist.Description,
	)
	if err != nil {
		return fmt.Errorf("プレイリストの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("プレイリストが見つかりません: %s", playlist.ID)
	}
	return nil
}

// Delete は指定IDのプレイリストを削除する。
func (r *PostgresPlaylistRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM playlists WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("プレイリストの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("プレイリストが見つかりません: %s", id)
	}
	return nil
}

// AddVideo は動画を集合セマンティクスで追加する。
// (playlist_id, video_id) が主キーのため、既に含まれている場合は
// ON CONFLICT DO NOTHINGによりfalseを返す（no-op）。
func (r *PostgresPlaylistRepo) AddVideo(ctx context.Context, playlistID, videoID string, addedAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO playlist_videos (playlist_id, video_id, added_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (playlist_id, video_id) DO NOTHING`,
		playlistID, videoID, addedAt,
	)
	if err != nil {
		return false, fmt.Errorf("プレイリストへの動画追加に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("追加結果の取得に失敗しました: %w", err)
	}
	return rowsAffected == 1, nil
}

// RemoveVideo は動画を集合から除去する。含まれていない場合はfalseを返す（no-op）。
func (r *PostgresPlaylistRepo) RemoveVideo(ctx context.Context, playlistID, videoID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2`,
		playlistID, videoID,
	)
	if err != nil {
		return false, fmt.Errorf("プレイリストからの動画除去に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("除去結果の取得に失敗しました: %w", err)
	}
	return rowsAffected == 1, nil
}

// QuerySummaries はプレイリスト一覧のパイプラインを実行する。
func (r *PostgresPlaylistRepo) QuerySummaries(ctx context.Context, p *pipeline.Pipeline) ([]model.PlaylistSummary, error) {
	query, args, err := p.Compile()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("プレイリスト一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var results []model.PlaylistSummary
	for rows.Next() {
		var s model.PlaylistSummary
		if err := rows.Scan(
			&s.ID, &s.OwnerID, &s.Name, &s.Description, &s.CreatedAt, &s.UpdatedAt,
			&s.TotalVideos, &s.TotalViews,
		); err != nil {
			return nil, fmt.Errorf("プレイリスト行の読み取りに失敗しました: %w", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("プレイリスト一覧の走査に失敗しました: %w", err)
	}
	return results, nil
}

// compile-time interface check
var _ PlaylistRepository = (*PostgresPlaylistRepo)(nil)
