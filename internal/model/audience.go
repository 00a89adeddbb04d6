// Package model はドメインモデルを定義する。
package model

// AudienceSet は閲覧者が見る資格のある相手を表すリクエストスコープの値。
// 4種類の独立した関係グラフから毎回計算され、永続化もリクエスト間共有もしない。
type AudienceSet struct {
	FollowedAuthorIDs []string
	FriendIDs         []string
	GroupIDs          []string
	FollowedTagIDs    []string
}

// VisibilityFilter は可視性述語をストレージ層が評価できる形にした値オブジェクト。
// AuthorIDsには閲覧者自身のIDが必ず含まれる。
// GroupIDs・FollowedTagIDsが空の場合、対応する条件節は述語から除外される
// （空集合が「全件一致」に化けてはならない）。
// 並び順のポリシーもここに属する: (created_at DESC, id DESC)。
type VisibilityFilter struct {
	ViewerID       string
	AuthorIDs      []string
	GroupIDs       []string
	FollowedTagIDs []string
}
