package middleware

import "net/http"

// NewCORSMiddleware はフロントエンドの単一オリジンを許可するCORSミドルウェアを返す。
// フィードAPIはセッションCookie前提のためAllow-Credentialsを付け、
// その制約上ワイルドカード(*)は使えない。読み取り専用APIなので許可メソッドは
// GETとプリフライトのOPTIONSのみ。プリフライトには204を返して打ち切る。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
