// Package feed はパーソナライズドフィードの組み立てエンジンを提供する。
//
// パイプラインはリクエストごとに
// オーディエンス解決 → 可視性述語の構築 → キーセットページネーション →
// 共有元の一括解決 → リアクション付与 → マージ
// の順で一度だけ実行され、リクエスト間に保持する状態は一切ない。
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/machikado/internal/model"
	"github.com/hitoshi/machikado/internal/repository"
)

const (
	// defaultPageSize はlimit未指定時の1ページあたりの件数。
	defaultPageSize = 30
	// maxPageSize は1ページあたりの最大件数。リクエストごとの作業量の上限を兼ねる。
	maxPageSize = 100
	// minPageSize は1ページあたりの最小件数。
	minPageSize = 1
)

// Metrics はフィードパイプラインの計測インターフェース。
// metrics.Collectorが実装する。
type Metrics interface {
	// RecordPage はページ組み立ての所要時間と件数を記録する。
	RecordPage(duration time.Duration, items int)
	// RecordSourceFetch は共有元種別ごとのバッチ取得件数を記録する。
	RecordSourceFetch(kind string, count int)
	// RecordDanglingSource は参照先が消えていた共有元を記録する。
	RecordDanglingSource(kind string)
}

// nopMetrics は計測なしのMetrics実装。
type nopMetrics struct{}

func (nopMetrics) RecordPage(time.Duration, int) {}
func (nopMetrics) RecordSourceFetch(string, int) {}
func (nopMetrics) RecordDanglingSource(string) {}

// Service はフィード組み立てのサービス。
type Service struct {
	relRepo         repository.RelationshipRepository
	postRepo        repository.PostRepository
	sourceRepo      repository.SourceRepository
	interactionRepo repository.InteractionRepository
	metrics         Metrics
}

// NewService はServiceの新しいインスタンスを生成する。
// metricsがnilの場合は計測なしで動作する。
func NewService(
	relRepo repository.RelationshipRepository,
	postRepo repository.PostRepository,
	sourceRepo repository.SourceRepository,
	interactionRepo repository.InteractionRepository,
	metrics Metrics,
) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Service{
		relRepo:         relRepo,
		postRepo:        postRepo,
		sourceRepo:      sourceRepo,
		interactionRepo: interactionRepo,
		metrics:         metrics,
	}
}

// Entry はフィード1件の最終形。組み立てはassemble経由でのみ行う。
// 共有元スナップショットは投稿種別に対応するフィールドにのみ設定される。
type Entry struct {
	Post model.Post

	// 共有元スナップショット（種別ごとに高々1つ）
	Blog      *model.BlogSnapshot
	Business  *model.BusinessSnapshot
	Coupon    *model.CouponSnapshot
	Reward    *model.RewardSnapshot
	StoreItem *model.StoreItemSnapshot

	// Shared は共有元が投稿の場合のネストエントリ（深さ1まで）。
	Shared *Entry

	// SourceUnavailable は共有元の参照先が削除済みだったことを示す。
	// 深さ打ち切りで未解決のネスト共有元には設定されない。
	SourceUnavailable bool

	Interaction model.InteractionState
}

// PageResult はPageの戻り値。
type PageResult struct {
	Entries    []Entry
	NextCursor string
	HasMore    bool
}

// Page は閲覧者のフィードを1ページ分組み立てて返す。
// limitは[1,100]にクランプされ、0以下はデフォルト30になる。
// cursorStrは前ページ最終投稿のID。不正・参照先消失のカーソルは
// エラーではなく「先頭から」として扱う。
func (s *Service) Page(ctx context.Context, viewerID, cursorStr string, limit int) (*PageResult, error) {
	start := time.Now()
	limit = clampLimit(limit)

	// 1. オーディエンス解決と可視性述語の構築
	audience, err := s.ResolveAudience(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	filter := BuildVisibility(viewerID, audience)

	// 2. カーソル解決とページ取得（limit+1件でHasMore判定）
	cursor, err := s.resolveCursor(ctx, cursorStr)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepo.ListVisible(ctx, filter, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	hasMore := len(posts) > limit
	if hasMore {
		posts = posts[:limit]
	}

	// 3. 共有元解決とリアクション付与（ページ確定後）
	sources, err := s.resolveSources(ctx, posts)
	if err != nil {
		return nil, err
	}

	postIDs := make([]string, len(posts))
	for i := range posts {
		postIDs[i] = posts[i].ID
	}
	interactions, err := s.annotate(ctx, viewerID, postIDs)
	if err != nil {
		return nil, err
	}

	// 4. マージ（順序はページ取得結果のまま）
	entries := assemble(posts, sources, interactions)

	var nextCursor string
	if hasMore && len(entries) > 0 {
		nextCursor = entries[len(entries)-1].Post.ID
	}

	s.recordDangling(entries)
	s.metrics.RecordPage(time.Since(start), len(entries))

	return &PageResult{
		Entries:    entries,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// GetEntry は単一投稿をフィードと同じパイプラインで組み立てて返す。
// 不可視・未存在・削除済みの場合はnilを返す。
func (s *Service) GetEntry(ctx context.Context, viewerID, postID string) (*Entry, error) {
	audience, err := s.ResolveAudience(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	filter := BuildVisibility(viewerID, audience)

	post, err := s.postRepo.FindVisibleByID(ctx, filter, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, nil
	}

	posts := []model.Post{*post}
	sources, err := s.resolveSources(ctx, posts)
	if err != nil {
		return nil, err
	}
	interactions, err := s.annotate(ctx, viewerID, []string{post.ID})
	if err != nil {
		return nil, err
	}

	entries := assemble(posts, sources, interactions)
	s.recordDangling(entries)
	return &entries[0], nil
}

// clampLimit はページサイズを[minPageSize, maxPageSize]にクランプする。
// 0以下（未指定）はdefaultPageSizeになる。
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit < minPageSize {
		return minPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

// resolveCursor はカーソル文字列をページネーション位置に解決する。
// UUIDとして不正な値、参照先が存在しない値は「先頭から」を表すnilになる。
// ストア障害のみエラーを返す。
func (s *Service) resolveCursor(ctx context.Context, cursorStr string) (*model.PageCursor, error) {
	if cursorStr == "" {
		return nil, nil
	}
	if _, err := uuid.Parse(cursorStr); err != nil {
		return nil, nil
	}
	cursor, err := s.postRepo.FindCursor(ctx, cursorStr)
	if err != nil {
		return nil, fmt.Errorf("カーソルの解決に失敗しました: %w", err)
	}
	return cursor, nil
}

// recordDangling は参照先消失の共有元をメトリクスに記録する。
func (s *Service) recordDangling(entries []Entry) {
	for i := range entries {
		entry := &entries[i]
		if entry.SourceUnavailable {
			s.metrics.RecordDanglingSource(string(entry.Post.Kind.SourceKind()))
		}
		if entry.Shared != nil && entry.Shared.SourceUnavailable {
			s.metrics.RecordDanglingSource(string(entry.Shared.Post.Kind.SourceKind()))
		}
	}
}
