package middleware

import "net/http"

// NewSecurityHeadersMiddleware は全レスポンスに防御用ヘッダーを付与する。
// フィード本文はユーザー投稿のHTMLを含むため、Content-Typeの推測実行を
// 禁止し、外部サイトへのフレーム埋め込みとリファラ漏洩を抑止する。
func NewSecurityHeadersMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			next.ServeHTTP(w, r)
		})
	}
}
