package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/machikado/internal/model"
)

// PostgresSourceRepo はPostgreSQLを使用した共有元エンティティリポジトリ。
// すべてフィード表示用のスナップショット投影をバッチで返す。
// 削除済みエンティティはマップに含まれず、呼び出し側で「参照先なし」となる。
type PostgresSourceRepo struct {
	db *sql.DB
}

// NewPostgresSourceRepo はPostgresSourceRepoを生成する。
func NewPostgresSourceRepo(db *sql.DB) *PostgresSourceRepo {
	return &PostgresSourceRepo{db: db}
}

// FindBlogsByIDs はブログスナップショットをID引きマップで一括取得する。
// ブログ自身のタグも展開する（タグフォローの可視性判定と同じblog_tagsが元）。
func (r *PostgresSourceRepo) FindBlogsByIDs(ctx context.Context, ids []string) (map[string]*model.BlogSnapshot, error) {
	result := make(map[string]*model.BlogSnapshot, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, title, description
		 FROM blogs WHERE id = ANY($1) AND deleted_at IS NULL`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("ブログの一括取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		blog := &model.BlogSnapshot{}
		var description sql.NullString
		if err := rows.Scan(&blog.ID, &blog.OwnerID, &blog.Title, &description); err != nil {
			return nil, fmt.Errorf("ブログ行の読み取りに失敗しました: %w", err)
		}
		blog.Description = description.String
		result[blog.ID] = blog
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ブログ一括取得の走査に失敗しました: %w", err)
	}

	if err := r.attachBlogTagIDs(ctx, result); err != nil {
		return nil, err
	}

	return result, nil
}

// attachBlogTagIDs は取得済みブログのタグIDをblog_tagsから一括で展開する。
func (r *PostgresSourceRepo) attachBlogTagIDs(ctx context.Context, blogs map[string]*model.BlogSnapshot) error {
	if len(blogs) == 0 {
		return nil
	}

	ids := make([]string, 0, len(blogs))
	for id := range blogs {
		ids = append(ids, id)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT blog_id, tag_id FROM blog_tags WHERE blog_id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("ブログタグの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var blogID, tagID string
		if err := rows.Scan(&blogID, &tagID); err != nil {
			return fmt.Errorf("ブログタグの行読み取りに失敗しました: %w", err)
		}
		if blog, ok := blogs[blogID]; ok {
			blog.TagIDs = append(blog.TagIDs, tagID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("ブログタグの走査に失敗しました: %w", err)
	}
	return nil
}

// FindBusinessesByIDs は店舗スナップショットをID引きマップで一括取得する。
func (r *PostgresSourceRepo) FindBusinessesByIDs(ctx context.Context, ids []string) (map[string]*model.BusinessSnapshot, error) {
	result := make(map[string]*model.BusinessSnapshot, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, name, category, address
		 FROM businesses WHERE id = ANY($1) AND deleted_at IS NULL`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("店舗の一括取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		business := &model.BusinessSnapshot{}
		var category, address sql.NullString
		if err := rows.Scan(&business.ID, &business.OwnerID, &business.Name, &category, &address); err != nil {
			return nil, fmt.Errorf("店舗行の読み取りに失敗しました: %w", err)
		}
		business.Category = category.String
		business.Address = address.String
		result[business.ID] = business
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("店舗一括取得の走査に失敗しました: %w", err)
	}

	return result, nil
}

// FindCouponsByIDs はクーポンスナップショットをID引きマップで一括取得する。
func (r *PostgresSourceRepo) FindCouponsByIDs(ctx context.Context, ids []string) (map[string]*model.CouponSnapshot, error) {
	result := make(map[string]*model.CouponSnapshot, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, business_id, title, discount, expires_at
		 FROM coupons WHERE id = ANY($1) AND deleted_at IS NULL`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("クーポンの一括取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		coupon := &model.CouponSnapshot{}
		var discount sql.NullString
		var expiresAt sql.NullTime
		if err := rows.Scan(&coupon.ID, &coupon.BusinessID, &coupon.Title, &discount, &expiresAt); err != nil {
			return nil, fmt.Errorf("クーポン行の読み取りに失敗しました: %w", err)
		}
		coupon.Discount = discount.String
		if expiresAt.Valid {
			coupon.ExpiresAt = &expiresAt.Time
		}
		result[coupon.ID] = coupon
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("クーポン一括取得の走査に失敗しました: %w", err)
	}

	return result, nil
}

// FindRewardsByIDs は特典スナップショットをID引きマップで一括取得する。
func (r *PostgresSourceRepo) FindRewardsByIDs(ctx context.Context, ids []string) (map[string]*model.RewardSnapshot, error) {
	result := make(map[string]*model.RewardSnapshot, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, business_id, title, points
		 FROM rewards WHERE id = ANY($1) AND deleted_at IS NULL`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("特典の一括取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		reward := &model.RewardSnapshot{}
		if err := rows.Scan(&reward.ID, &reward.BusinessID, &reward.Title, &reward.Points); err != nil {
			return nil, fmt.Errorf("特典行の読み取りに失敗しました: %w", err)
		}
		result[reward.ID] = reward
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("特典一括取得の走査に失敗しました: %w", err)
	}

	return result, nil
}

// FindStoreItemsByIDs はストア商品スナップショットをID引きマップで一括取得する。
func (r *PostgresSourceRepo) FindStoreItemsByIDs(ctx context.Context, ids []string) (map[string]*model.StoreItemSnapshot, error) {
	result := make(map[string]*model.StoreItemSnapshot, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, business_id, name, price_yen
		 FROM store_items WHERE id = ANY($1) AND deleted_at IS NULL`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("ストア商品の一括取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item := &model.StoreItemSnapshot{}
		if err := rows.Scan(&item.ID, &item.BusinessID, &item.Name, &item.PriceYen); err != nil {
			return nil, fmt.Errorf("ストア商品行の読み取りに失敗しました: %w", err)
		}
		result[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ストア商品一括取得の走査に失敗しました: %w", err)
	}

	return result, nil
}

// compile-time interface check
var _ SourceRepository = (*PostgresSourceRepo)(nil)
