package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/machikado/internal/model"
)

// ErrorResponseBody はフィードAPI共通のエラーレスポンス形式。
// codeは機械判定用、categoryとactionはクライアント側の表示分岐に使う。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// WriteErrorResponse はAPIError を共通形式のJSONとして書き込む。
// フィード取得・単一投稿取得のどちらのエンドポイントもこの形式で返す。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteInternalServerError は500の共通レスポンスを書き込む。
// 内部の失敗原因（DB障害や破損行の詳細）はログにのみ残し、
// クライアントには一般的なメッセージだけを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}
