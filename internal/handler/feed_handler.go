package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/machikado/internal/feed"
	"github.com/hitoshi/machikado/internal/middleware"
	"github.com/hitoshi/machikado/internal/model"
)

// FeedServiceInterface はフィードハンドラーが必要とするサービスインターフェース。
type FeedServiceInterface interface {
	// Page は閲覧者のフィードを1ページ分組み立てて返す。
	Page(ctx context.Context, viewerID, cursor string, limit int) (*feed.PageResult, error)
	// GetEntry は閲覧者が見られる単一投稿をエントリとして返す。
	GetEntry(ctx context.Context, viewerID, postID string) (*feed.Entry, error)
}

// FeedHandler はフィード取得のHTTPハンドラー。
type FeedHandler struct {
	service   FeedServiceInterface
	sanitizer ContentSanitizer
}

// ContentSanitizer はレスポンス直前にHTML本文をサニタイズする。
type ContentSanitizer interface {
	Sanitize(rawHTML string) string
}

// NewFeedHandler はFeedHandlerを生成する。
func NewFeedHandler(service FeedServiceInterface, sanitizer ContentSanitizer) *FeedHandler {
	return &FeedHandler{
		service:   service,
		sanitizer: sanitizer,
	}
}

// feedPageResponse はフィード1ページのAPIレスポンス。
// 最終ページではnext_cursorはnullになる。
type feedPageResponse struct {
	Items      []feedEntryResponse `json:"items"`
	NextCursor *string             `json:"next_cursor"`
	HasMore    bool                `json:"has_more"`
}

// feedEntryResponse はフィードエントリのAPIレスポンス。
// 共有元スナップショットは種別に応じて高々1つだけ設定される。
type feedEntryResponse struct {
	ID        string   `json:"id"`
	AuthorID  string   `json:"author_id"`
	GroupID   string   `json:"group_id,omitempty"`
	Kind      string   `json:"kind"`
	Body      string   `json:"body"`
	TagIDs    []string `json:"tag_ids,omitempty"`
	CreatedAt string   `json:"created_at"`

	Blog      *blogResponse      `json:"blog,omitempty"`
	Business  *businessResponse  `json:"business,omitempty"`
	Coupon    *couponResponse    `json:"coupon,omitempty"`
	Reward    *rewardResponse    `json:"reward,omitempty"`
	StoreItem *storeItemResponse `json:"store_item,omitempty"`

	Shared            *feedEntryResponse `json:"shared,omitempty"`
	SourceUnavailable bool               `json:"source_unavailable"`

	Liked        bool `json:"liked"`
	LikeCount    int  `json:"like_count"`
	CommentCount int  `json:"comment_count"`
}

// blogResponse は共有元ブログのAPIレスポンス。
type blogResponse struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"owner_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	TagIDs      []string `json:"tag_ids,omitempty"`
}

// businessResponse は共有元ビジネスのAPIレスポンス。
type businessResponse struct {
	ID       string `json:"id"`
	OwnerID  string `json:"owner_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Address  string `json:"address"`
}

// couponResponse は共有元クーポンのAPIレスポンス。
type couponResponse struct {
	ID         string `json:"id"`
	BusinessID string `json:"business_id"`
	Title      string `json:"title"`
	Discount   string `json:"discount"`
	ExpiresAt  string `json:"expires_at,omitempty"`
}

// rewardResponse は共有元特典のAPIレスポンス。
type rewardResponse struct {
	ID         string `json:"id"`
	BusinessID string `json:"business_id"`
	Title      string `json:"title"`
	Points     int    `json:"points"`
}

// storeItemResponse は共有元ストア商品のAPIレスポンス。
type storeItemResponse struct {
	ID         string `json:"id"`
	BusinessID string `json:"business_id"`
	Name       string `json:"name"`
	PriceYen   int    `json:"price_yen"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// GetFeed はフィード1ページを取得する。
// GET /api/feed?limit=&cursor=
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	viewerID, err := middleware.ViewerIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("limitは整数で指定してください"))
			return
		}
		limit = parsed
	}

	cursor := r.URL.Query().Get("cursor")

	page, err := h.service.Page(r.Context(), viewerID, cursor, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.toPageResponse(page))
}

// GetPost は単一投稿をフィードエントリとして取得する。
// GET /api/posts/:id
func (h *FeedHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	viewerID, err := middleware.ViewerIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	postID := chi.URLParam(r, "id")

	entry, err := h.service.GetEntry(r.Context(), viewerID, postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if entry == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewPostNotFoundError(postID))
		return
	}

	resp := h.toEntryResponse(*entry)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// --- ヘルパー関数 ---

// toPageResponse はfeed.PageResultからAPIレスポンスに変換する。
func (h *FeedHandler) toPageResponse(page *feed.PageResult) feedPageResponse {
	items := make([]feedEntryResponse, 0, len(page.Entries))
	for _, entry := range page.Entries {
		items = append(items, h.toEntryResponse(entry))
	}

	resp := feedPageResponse{
		Items:   items,
		HasMore: page.HasMore,
	}
	if page.NextCursor != "" {
		resp.NextCursor = &page.NextCursor
	}
	return resp
}

// toEntryResponse はfeed.EntryからAPIレスポンスに変換する。
// 本文とブログ説明文はここでサニタイズする。
func (h *FeedHandler) toEntryResponse(entry feed.Entry) feedEntryResponse {
	resp := feedEntryResponse{
		ID:                entry.Post.ID,
		AuthorID:          entry.Post.AuthorID,
		GroupID:           entry.Post.GroupID,
		Kind:              string(entry.Post.Kind),
		Body:              h.sanitizer.Sanitize(entry.Post.Body),
		TagIDs:            entry.Post.TagIDs,
		CreatedAt:         entry.Post.CreatedAt.UTC().Format(time.RFC3339),
		SourceUnavailable: entry.SourceUnavailable,
		Liked:             entry.Interaction.Liked,
		LikeCount:         entry.Interaction.LikeCount,
		CommentCount:      entry.Interaction.CommentCount,
	}

	if entry.Blog != nil {
		resp.Blog = &blogResponse{
			ID:          entry.Blog.ID,
			OwnerID:     entry.Blog.OwnerID,
			Title:       entry.Blog.Title,
			Description: h.sanitizer.Sanitize(entry.Blog.Description),
			TagIDs:      entry.Blog.TagIDs,
		}
	}
	if entry.Business != nil {
		resp.Business = &businessResponse{
			ID:       entry.Business.ID,
			OwnerID:  entry.Business.OwnerID,
			Name:     entry.Business.Name,
			Category: entry.Business.Category,
			Address:  entry.Business.Address,
		}
	}
	if entry.Coupon != nil {
		c := &couponResponse{
			ID:         entry.Coupon.ID,
			BusinessID: entry.Coupon.BusinessID,
			Title:      entry.Coupon.Title,
			Discount:   entry.Coupon.Discount,
		}
		if entry.Coupon.ExpiresAt != nil {
			c.ExpiresAt = entry.Coupon.ExpiresAt.UTC().Format(time.RFC3339)
		}
		resp.Coupon = c
	}
	if entry.Reward != nil {
		resp.Reward = &rewardResponse{
			ID:         entry.Reward.ID,
			BusinessID: entry.Reward.BusinessID,
			Title:      entry.Reward.Title,
			Points:     entry.Reward.Points,
		}
	}
	if entry.StoreItem != nil {
		resp.StoreItem = &storeItemResponse{
			ID:         entry.StoreItem.ID,
			BusinessID: entry.StoreItem.BusinessID,
			Name:       entry.StoreItem.Name,
			PriceYen:   entry.StoreItem.PriceYen,
		}
	}
	if entry.Shared != nil {
		shared := h.toEntryResponse(*entry.Shared)
		resp.Shared = &shared
	}

	return resp
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodePostNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
