// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
type User struct {
	ID          string
	Email       string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session はユーザーのログインセッションを表す。
// 認証フロー自体は外部コラボレーターの責務で、
// 本サービスはセッション行の参照による閲覧者特定のみを行う。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
