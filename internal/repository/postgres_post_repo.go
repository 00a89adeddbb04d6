package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/machikado/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// postColumns は投稿SELECTの共通カラムリスト。
const postColumns = `p.id, p.author_id, p.group_id, p.kind, p.body,
       p.source_blog_id, p.source_business_id, p.source_coupon_id,
       p.source_reward_id, p.source_store_item_id, p.source_post_id,
       p.created_at, p.updated_at`

// ListVisible は可視性フィルタに一致する投稿を(created_at, id)降順で取得する。
// 可視性の条件節は対応するIDセットが空の場合に除外される。
// 空集合のままクエリに含めると述語が意図せず全件一致や全件不一致に化けるため、
// 節の有無はここで一元的に決める。
func (r *PostgresPostRepo) ListVisible(
	ctx context.Context,
	filter model.VisibilityFilter,
	cursor *model.PageCursor,
	limit int,
) ([]model.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts p
		WHERE p.deleted_at IS NULL`

	args := []interface{}{}
	argIndex := 1

	where, whereArgs, next := buildVisibilityClause(filter, argIndex)
	query += " AND " + where
	args = append(args, whereArgs...)
	argIndex = next

	// キーセットページネーション: カーソル位置より厳密に後ろの行のみ
	if cursor != nil {
		query += fmt.Sprintf(" AND (p.created_at, p.id) < ($%d, $%d)", argIndex, argIndex+1)
		args = append(args, cursor.CreatedAt, cursor.ID)
		argIndex += 2
	}

	query += fmt.Sprintf(" ORDER BY p.created_at DESC, p.id DESC LIMIT $%d", argIndex)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("フィード投稿一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("フィード投稿一覧の走査に失敗しました: %w", err)
	}

	if err := r.attachTagIDs(ctx, posts); err != nil {
		return nil, err
	}

	return posts, nil
}

// buildVisibilityClause は可視性フィルタをSQL条件節に変換する。
// 戻り値は(条件節, バインド引数, 次のargIndex)。
func buildVisibilityClause(filter model.VisibilityFilter, argIndex int) (string, []interface{}, int) {
	// 著者条件は常に存在する（AuthorIDsには閲覧者自身が必ず含まれる）
	clause := fmt.Sprintf("(p.author_id = ANY($%d)", argIndex)
	args := []interface{}{pq.Array(filter.AuthorIDs)}
	argIndex++

	if len(filter.GroupIDs) > 0 {
		clause += fmt.Sprintf(" OR p.group_id = ANY($%d)", argIndex)
		args = append(args, pq.Array(filter.GroupIDs))
		argIndex++
	}

	if len(filter.FollowedTagIDs) > 0 {
		// 投稿自身のタグによる一致
		clause += fmt.Sprintf(
			" OR EXISTS (SELECT 1 FROM post_tags pt WHERE pt.post_id = p.id AND pt.tag_id = ANY($%d))",
			argIndex,
		)
		args = append(args, pq.Array(filter.FollowedTagIDs))
		argIndex++

		// 共有元ブログのタグによる一致。投稿自身がタグを持たなくても、
		// タグ付きブログを共有した投稿はタグフォロワーのフィードに現れる。
		clause += fmt.Sprintf(
			" OR (p.kind = 'shared_blog' AND EXISTS (SELECT 1 FROM blog_tags bt WHERE bt.blog_id = p.source_blog_id AND bt.tag_id = ANY($%d)))",
			argIndex,
		)
		args = append(args, pq.Array(filter.FollowedTagIDs))
		argIndex++
	}

	clause += ")"
	return clause, args, argIndex
}

// FindCursor は指定投稿IDのページネーション位置を取得する。
// 未存在・削除済みの場合はnilを返す。カーソルは不透明値であり、
// 参照先が消えていても呼び出し側で「先頭から」として扱われる。
func (r *PostgresPostRepo) FindCursor(ctx context.Context, id string) (*model.PageCursor, error) {
	cursor := &model.PageCursor{}
	err := r.db.QueryRowContext(ctx,
		`SELECT created_at, id FROM posts WHERE id = $1 AND deleted_at IS NULL`,
		id,
	).Scan(&cursor.CreatedAt, &cursor.ID)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("カーソル位置の取得に失敗しました: %w", err)
	}

	return cursor, nil
}

// FindByIDs は指定IDの投稿をID引きマップで一括取得する。
// ネストした共有投稿の解決に使用する。存在しないIDはマップに含まれない。
func (r *PostgresPostRepo) FindByIDs(ctx context.Context, ids []string) (map[string]*model.Post, error) {
	result := make(map[string]*model.Post, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+`
		 FROM posts p
		 WHERE p.id = ANY($1) AND p.deleted_at IS NULL`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("投稿の一括取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("投稿一括取得の走査に失敗しました: %w", err)
	}

	if err := r.attachTagIDs(ctx, posts); err != nil {
		return nil, err
	}

	for i := range posts {
		result[posts[i].ID] = &posts[i]
	}
	return result, nil
}

// FindVisibleByID は可視性フィルタに一致する単一投稿を取得する。
// 不可視・未存在・削除済みの場合はnilを返す。
func (r *PostgresPostRepo) FindVisibleByID(ctx context.Context, filter model.VisibilityFilter, id string) (*model.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts p
		WHERE p.deleted_at IS NULL AND p.id = $1`

	args := []interface{}{id}
	where, whereArgs, _ := buildVisibilityClause(filter, 2)
	query += " AND " + where
	args = append(args, whereArgs...)

	row := r.db.QueryRowContext(ctx, query, args...)
	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	posts := []model.Post{*post}
	if err := r.attachTagIDs(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// attachTagIDs は投稿のタグIDをpost_tagsから一括で取得して展開する。
func (r *PostgresPostRepo) attachTagIDs(ctx context.Context, posts []model.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]string, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT post_id, tag_id FROM post_tags WHERE post_id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("投稿タグの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	tagsByPost := make(map[string][]string)
	for rows.Next() {
		var postID, tagID string
		if err := rows.Scan(&postID, &tagID); err != nil {
			return fmt.Errorf("投稿タグの行読み取りに失敗しました: %w", err)
		}
		tagsByPost[postID] = append(tagsByPost[postID], tagID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("投稿タグの走査に失敗しました: %w", err)
	}

	for i := range posts {
		posts[i].TagIDs = tagsByPost[posts[i].ID]
	}
	return nil
}

// rowScanner はsql.Rowとsql.Rowsの共通Scan部分。
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanPost は投稿1行を読み取り、共有元カラムをSource値に畳み込む。
// 種別と共有元カラムの不整合は破損行としてエラーを返す。
func scanPost(row rowScanner) (*model.Post, error) {
	post := &model.Post{}
	var groupID sql.NullString
	var kind string
	var blogID, businessID, couponID, rewardID, storeItemID, postID sql.NullString

	err := row.Scan(
		&post.ID, &post.AuthorID, &groupID, &kind, &post.Body,
		&blogID, &businessID, &couponID, &rewardID, &storeItemID, &postID,
		&post.CreatedAt, &post.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("投稿行の読み取りに失敗しました: %w", err)
	}

	if groupID.Valid {
		post.GroupID = groupID.String
	}
	post.Kind = model.PostKind(kind)
	if !post.Kind.IsValid() {
		return nil, fmt.Errorf("不明な投稿種別です: %s (post_id=%s)", kind, post.ID)
	}

	source, err := sourceFromColumns(post.Kind, blogID, businessID, couponID, rewardID, storeItemID, postID)
	if err != nil {
		return nil, fmt.Errorf("投稿の共有元カラムが不整合です (post_id=%s): %w", post.ID, err)
	}
	post.Source = source

	return post, nil
}

// sourceFromColumns は6本のNULL許容共有元カラムをSource値に変換する。
// 非NULLカラムは高々1本で、投稿種別と一致していなければならない。
func sourceFromColumns(
	kind model.PostKind,
	blogID, businessID, couponID, rewardID, storeItemID, postID sql.NullString,
) (model.Source, error) {
	type column struct {
		kind model.SourceKind
		val  sql.NullString
	}
	columns := []column{
		{model.SourceKindBlog, blogID},
		{model.SourceKindBusiness, businessID},
		{model.SourceKindCoupon, couponID},
		{model.SourceKindReward, rewardID},
		{model.SourceKindStoreItem, storeItemID},
		{model.SourceKindPost, postID},
	}

	var populated model.SourceKind
	var id string
	for _, c := range columns {
		if !c.val.Valid {
			continue
		}
		if populated != model.SourceKindNone {
			return model.Source{}, fmt.Errorf("共有元カラムが複数設定されています: %s, %s", populated, c.kind)
		}
		populated = c.kind
		id = c.val.String
	}

	// 参照先エンティティの物理削除でON DELETE SET NULLが発火した行は
	// 全カラムがNULLになる。破損ではなく参照先消失として共有元なしを返し、
	// 組み立て側で「利用不可」として扱わせる。
	if populated == model.SourceKindNone && kind.SourceKind() != model.SourceKindNone {
		return model.Source{}, nil
	}

	if populated != kind.SourceKind() {
		return model.Source{}, fmt.Errorf("投稿種別 %s と共有元カラム %s が一致しません", kind, populated)
	}

	return model.NewSource(populated, id)
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
