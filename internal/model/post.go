// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"time"
)

// PostKind は投稿の種別を表す。
// original以外はいずれかの共有元エンティティをラップする投稿。
type PostKind string

const (
	// PostKindOriginal は共有元を持たないオリジナル投稿。
	PostKindOriginal PostKind = "original"
	// PostKindSharedBlog はブログを共有する投稿。
	PostKindSharedBlog PostKind = "shared_blog"
	// PostKindSharedBusiness は店舗・事業者を共有する投稿。
	PostKindSharedBusiness PostKind = "shared_business"
	// PostKindSharedCoupon はクーポンを共有する投稿。
	PostKindSharedCoupon PostKind = "shared_coupon"
	// PostKindSharedReward は特典を共有する投稿。
	PostKindSharedReward PostKind = "shared_reward"
	// PostKindSharedStoreItem はストア商品を共有する投稿。
	PostKindSharedStoreItem PostKind = "shared_store_item"
	// PostKindSharedPost は別の投稿を共有する投稿。
	PostKindSharedPost PostKind = "shared_post"
)

// SourceKind は共有元エンティティの種別を表す。
type SourceKind string

const (
	// SourceKindNone は共有元なし（オリジナル投稿）を表す。
	SourceKindNone SourceKind = ""
	// SourceKindBlog はブログを表す。
	SourceKindBlog SourceKind = "blog"
	// SourceKindBusiness は店舗・事業者を表す。
	SourceKindBusiness SourceKind = "business"
	// SourceKindCoupon はクーポンを表す。
	SourceKindCoupon SourceKind = "coupon"
	// SourceKindReward は特典を表す。
	SourceKindReward SourceKind = "reward"
	// SourceKindStoreItem はストア商品を表す。
	SourceKindStoreItem SourceKind = "store_item"
	// SourceKindPost は投稿を表す。
	SourceKindPost SourceKind = "post"
)

// SourceKind は投稿種別に対応する共有元種別を返す。
func (k PostKind) SourceKind() SourceKind {
	switch k {
	case PostKindSharedBlog:
		return SourceKindBlog
	case PostKindSharedBusiness:
		return SourceKindBusiness
	case PostKindSharedCoupon:
		return SourceKindCoupon
	case PostKindSharedReward:
		return SourceKindReward
	case PostKindSharedStoreItem:
		return SourceKindStoreItem
	case PostKindSharedPost:
		return SourceKindPost
	default:
		return SourceKindNone
	}
}

// validPostKinds は有効な投稿種別のセット。
var validPostKinds = map[PostKind]bool{
	PostKindOriginal:        true,
	PostKindSharedBlog:      true,
	PostKindSharedBusiness:  true,
	PostKindSharedCoupon:    true,
	PostKindSharedReward:    true,
	PostKindSharedStoreItem: true,
	PostKindSharedPost:      true,
}

// IsValid は投稿種別が定義済みの値かどうかを返す。
func (k PostKind) IsValid() bool {
	return validPostKinds[k]
}

// Source は投稿の共有元への参照を表すタグ付き値。
// 種別とIDの組が常に整合するよう、NewSource経由でのみ生成する。
// ゼロ値は「共有元なし」を表す。
type Source struct {
	kind SourceKind
	id   string
}

// NewSource は共有元参照を生成する。
// 種別とIDの片方だけが指定されている場合はエラーを返す。
func NewSource(kind SourceKind, id string) (Source, error) {
	if kind == SourceKindNone {
		if id != "" {
			return Source{}, fmt.Errorf("共有元種別なしにIDは指定できません: %s", id)
		}
		return Source{}, nil
	}
	if id == "" {
		return Source{}, fmt.Errorf("共有元種別 %s にIDが指定されていません", kind)
	}
	return Source{kind: kind, id: id}, nil
}

// Kind は共有元の種別を返す。
func (s Source) Kind() SourceKind {
	return s.kind
}

// ID は共有元エンティティのIDを返す。
func (s Source) ID() string {
	return s.id
}

// IsZero は共有元なしかどうかを返す。
func (s Source) IsZero() bool {
	return s.kind == SourceKindNone
}

// Post はフィードに表示される投稿を表す。
// 作成後はイミュータブルで、論理削除のみ行われる。
// 削除済み投稿はフィードに一切現れない。
type Post struct {
	ID        string
	AuthorID  string
	GroupID   string // 空文字はグループ外投稿
	Kind      PostKind
	Body      string // 未サニタイズのHTML
	Source    Source
	TagIDs    []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PageCursor はキーセットページネーションの位置を表す。
// 前ページ最終投稿の(created_at, id)を保持する。
type PageCursor struct {
	CreatedAt time.Time
	ID        string
}
