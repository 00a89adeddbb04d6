// Package model はドメインモデルを定義する。
package model

// InteractionState は閲覧者と投稿ごとのリアクション状態を表す。
// 現在ページの投稿IDに限定して毎回オンデマンドで計算され、キャッシュしない。
type InteractionState struct {
	Liked        bool
	LikeCount    int
	CommentCount int
}
