package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresRelationshipRepo はPostgreSQLを使用した関係グラフリポジトリ。
type PostgresRelationshipRepo struct {
	db *sql.DB
}

// NewPostgresRelationshipRepo はPostgresRelationshipRepoを生成する。
func NewPostgresRelationshipRepo(db *sql.DB) *PostgresRelationshipRepo {
	return &PostgresRelationshipRepo{db: db}
}

// ListFollowedAuthorIDs は閲覧者がフォローしているユーザーIDを取得する。
func (r *PostgresRelationshipRepo) ListFollowedAuthorIDs(ctx context.Context, viewerID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT followee_id FROM follows WHERE follower_id = $1`,
		viewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("フォロー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows, "フォロー一覧")
}

// ListFriendIDs は承認済みフレンドシップの相手側ユーザーIDを取得する。
// 申請者・承認者のどちら側でも「相手のID」に正規化して返す。
func (r *PostgresRelationshipRepo) ListFriendIDs(ctx context.Context, viewerID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT CASE WHEN requester_id = $1 THEN addressee_id ELSE requester_id END
		 FROM friendships
		 WHERE status = 'accepted' AND (requester_id = $1 OR addressee_id = $1)`,
		viewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("フレンド一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows, "フレンド一覧")
}

// ListGroupIDs は閲覧者が所属するグループIDを取得する。ロールは問わない。
func (r *PostgresRelationshipRepo) ListGroupIDs(ctx context.Context, viewerID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT group_id FROM group_members WHERE user_id = $1`,
		viewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("所属グループ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows, "所属グループ一覧")
}

// ListFollowedTagIDs は閲覧者がフォローしているタグIDを取得する。
func (r *PostgresRelationshipRepo) ListFollowedTagIDs(ctx context.Context, viewerID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tag_id FROM tag_follows WHERE user_id = $1`,
		viewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("フォロータグ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows, "フォロータグ一覧")
}

// scanIDs は単一カラムのID結果セットをスライスに読み取る。
func scanIDs(rows *sql.Rows, label string) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%sの行読み取りに失敗しました: %w", label, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%sの走査に失敗しました: %w", label, err)
	}
	return ids, nil
}

// compile-time interface check
var _ RelationshipRepository = (*PostgresRelationshipRepo)(nil)
