// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/machikado/internal/model"
)

// RelationshipRepository は閲覧者の関係グラフ読み取りインターフェース。
// 4種類の関係は互いに独立しており、並行に読み取ってよい。
type RelationshipRepository interface {
	// ListFollowedAuthorIDs は閲覧者がフォローしているユーザーIDを取得する。
	ListFollowedAuthorIDs(ctx context.Context, viewerID string) ([]string, error)

	// ListFriendIDs は承認済みフレンドシップの相手側ユーザーIDを取得する。
	// どちらが申請者かに関わらず「相手のID」に正規化して返す。
	ListFriendIDs(ctx context.Context, viewerID string) ([]string, error)

	// ListGroupIDs は閲覧者が何らかのロールで所属するグループIDを取得する。
	ListGroupIDs(ctx context.Context, viewerID string) ([]string, error)

	// ListFollowedTagIDs は閲覧者が明示的にフォローしているタグIDを取得する。
	ListFollowedTagIDs(ctx context.Context, viewerID string) ([]string, error)
}

// PostRepository は投稿の読み取りインターフェース。
// 論理削除済み投稿はすべてのメソッドで存在しない扱いとなる。
type PostRepository interface {
	// ListVisible は可視性フィルタに一致する投稿を(created_at, id)降順で取得する。
	// cursorがnilでない場合、その位置より厳密に後ろの行のみを返す（キーセット方式）。
	// 返される投稿にはTagIDsが展開済み。
	ListVisible(ctx context.Context, filter model.VisibilityFilter, cursor *model.PageCursor, limit int) ([]model.Post, error)

	// FindCursor は指定投稿IDのページネーション位置を取得する。
	// 投稿が存在しない・削除済みの場合はnilを返す（エラーにしない）。
	FindCursor(ctx context.Context, id string) (*model.PageCursor, error)

	// FindByIDs は指定IDの投稿をID引きマップで一括取得する。
	// 存在しないIDはマップに含まれない。TagIDsは展開済み。
	FindByIDs(ctx context.Context, ids []string) (map[string]*model.Post, error)

	// FindVisibleByID は可視性フィルタに一致する単一投稿を取得する。
	// 不可視・未存在の場合はnilを返す。
	FindVisibleByID(ctx context.Context, filter model.VisibilityFilter, id string) (*model.Post, error)
}

// SourceRepository は共有元エンティティのバッチ読み取りインターフェース。
// すべてフィード表示用のスナップショット投影のみを返す。
type SourceRepository interface {
	// FindBlogsByIDs はブログスナップショットをID引きマップで一括取得する。
	// TagIDsは展開済み（タグフォローの可視性判定と同じblog_tagsが元）。
	FindBlogsByIDs(ctx context.Context, ids []string) (map[string]*model.BlogSnapshot, error)

	// FindBusinessesByIDs は店舗スナップショットをID引きマップで一括取得する。
	FindBusinessesByIDs(ctx context.Context, ids []string) (map[string]*model.BusinessSnapshot, error)

	// FindCouponsByIDs はクーポンスナップショットをID引きマップで一括取得する。
	FindCouponsByIDs(ctx context.Context, ids []string) (map[string]*model.CouponSnapshot, error)

	// FindRewardsByIDs は特典スナップショットをID引きマップで一括取得する。
	FindRewardsByIDs(ctx context.Context, ids []string) (map[string]*model.RewardSnapshot, error)

	// FindStoreItemsByIDs はストア商品スナップショットをID引きマップで一括取得する。
	FindStoreItemsByIDs(ctx context.Context, ids []string) (map[string]*model.StoreItemSnapshot, error)
}

// InteractionRepository はいいね・コメントの読み取りインターフェース。
// すべての読み取りは指定された投稿IDのみに限定される
// （全投稿を走査して集計してはならない）。
type InteractionRepository interface {
	// ListLikedPostIDs は指定投稿のうち閲覧者がいいね済みのIDセットを返す。
	ListLikedPostIDs(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error)

	// CountLikes は投稿ごとのいいね数を返す。いいねゼロの投稿はマップに含まれない。
	CountLikes(ctx context.Context, postIDs []string) (map[string]int, error)

	// CountComments は投稿ごとのコメント数を返す。コメントゼロの投稿はマップに含まれない。
	CountComments(ctx context.Context, postIDs []string) (map[string]int, error)
}

// SessionRepository はセッションの読み取りインターフェース。
type SessionRepository interface {
	// FindByID は指定IDの有効なセッションを取得する。
	// 期限切れ・未存在の場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
}
