// Package model はドメインモデルを定義する。
package model

import "time"

// BlogSnapshot はフィード表示用のブログ読み取り専用プロジェクション。
// TagIDsはブログ自身に付与されたタグで、タグフォローによる可視性判定にも使われる。
type BlogSnapshot struct {
	ID          string
	OwnerID     string
	Title       string
	Description string // 未サニタイズのHTML
	TagIDs      []string
}

// BusinessSnapshot はフィード表示用の店舗・事業者プロジェクション。
type BusinessSnapshot struct {
	ID       string
	OwnerID  string
	Name     string
	Category string
	Address  string
}

// CouponSnapshot はフィード表示用のクーポンプロジェクション。
type CouponSnapshot struct {
	ID         string
	BusinessID string
	Title      string
	Discount   string
	ExpiresAt  *time.Time
}

// RewardSnapshot はフィード表示用の特典プロジェクション。
type RewardSnapshot struct {
	ID         string
	BusinessID string
	Title      string
	Points     int
}

// StoreItemSnapshot はフィード表示用のストア商品プロジェクション。
type StoreItemSnapshot struct {
	ID         string
	BusinessID string
	Name       string
	PriceYen   int
}
