package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open はPostgreSQL接続プールを開く。
// フィード1リクエストはオーディエンス解決・共有元解決・リアクション集計で
// 複数の読み取りを並行発行するため、プールにはアイドル接続を残しておく。
// sql.Openは接続を検証しないため、起動時にdb.Ping()で疎通確認すること。
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("データベース接続のオープンに失敗しました: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
