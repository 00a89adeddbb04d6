// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/machikado/internal/model"
)

const sessionCookieName = "session_id"

// contextKey はコンテキスト値の衝突を避けるための専用キー型。
type contextKey string

// viewerIDContextKey は認証済み閲覧者IDをコンテキストに載せるキー。
var viewerIDContextKey = contextKey("viewer_id")

// SessionFinder はセッション検索だけを切り出したインターフェース。
// repository.SessionRepositoryがこれを満たす。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// NewSessionMiddleware はHTTP Only Cookieのセッションを検証し、
// 閲覧者IDをリクエストコンテキストに注入するミドルウェアを返す。
// フィードは閲覧者ごとに可視範囲が変わるため、閲覧者IDが確定しない
// リクエストはここで401として打ち切り、後段には渡さない。
func NewSessionMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			session, err := sessionFinder.FindByID(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("セッションの検索に失敗しました",
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if session == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			ctx := context.WithValue(r.Context(), viewerIDContextKey, session.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ViewerIDFromContext はコンテキストから閲覧者IDを取り出す。
// セッションミドルウェアを通過していないコンテキストではエラーを返す。
func ViewerIDFromContext(ctx context.Context) (string, error) {
	viewerID, ok := ctx.Value(viewerIDContextKey).(string)
	if !ok || viewerID == "" {
		return "", fmt.Errorf("コンテキストに閲覧者IDがありません")
	}
	return viewerID, nil
}

// ContextWithViewerID は閲覧者IDを載せたコンテキストを返す。テスト用。
func ContextWithViewerID(ctx context.Context, viewerID string) context.Context {
	return context.WithValue(ctx, viewerIDContextKey, viewerID)
}
