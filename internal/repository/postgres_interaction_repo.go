package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// PostgresInteractionRepo はPostgreSQLを使用したリアクションリポジトリ。
// すべての読み取りは渡された投稿IDに限定される。
type PostgresInteractionRepo struct {
	db *sql.DB
}

// NewPostgresInteractionRepo はPostgresInteractionRepoを生成する。
func NewPostgresInteractionRepo(db *sql.DB) *PostgresInteractionRepo {
	return &PostgresInteractionRepo{db: db}
}

// ListLikedPostIDs は指定投稿のうち閲覧者がいいね済みのIDセットを返す。
func (r *PostgresInteractionRepo) ListLikedPostIDs(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT post_id FROM likes WHERE user_id = $1 AND post_id = ANY($2)`,
		viewerID, pq.Array(postIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("いいね済み投稿の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID string
		if err := rows.Scan(&postID); err != nil {
			return nil, fmt.Errorf("いいね済み投稿の行読み取りに失敗しました: %w", err)
		}
		result[postID] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("いいね済み投稿の走査に失敗しました: %w", err)
	}

	return result, nil
}

// CountLikes は投稿ごとのいいね数を返す。いいねゼロの投稿はマップに含まれない。
func (r *PostgresInteractionRepo) CountLikes(ctx context.Context, postIDs []string) (map[string]int, error) {
	return r.countByPost(ctx, "likes", "いいね数", postIDs)
}

// CountComments は投稿ごとのコメント数を返す。コメントゼロの投稿はマップに含まれない。
func (r *PostgresInteractionRepo) CountComments(ctx context.Context, postIDs []string) (map[string]int, error) {
	return r.countByPost(ctx, "comments", "コメント数", postIDs)
}

// countByPost は指定テーブルの投稿ごとの行数を集計する。
// 集計対象は常に渡された投稿IDに限定される。
func (r *PostgresInteractionRepo) countByPost(ctx context.Context, table, label string, postIDs []string) (map[string]int, error) {
	result := make(map[string]int, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT post_id, COUNT(*) FROM %s WHERE post_id = ANY($1) GROUP BY post_id`, table),
		pq.Array(postIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("%sの集計に失敗しました: %w", label, err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID string
		var count int
		if err := rows.Scan(&postID, &count); err != nil {
			return nil, fmt.Errorf("%sの行読み取りに失敗しました: %w", label, err)
		}
		result[postID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%sの走査に失敗しました: %w", label, err)
	}

	return result, nil
}

// compile-time interface check
var _ InteractionRepository = (*PostgresInteractionRepo)(nil)
