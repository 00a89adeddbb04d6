package feed

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/machikado/internal/model"
)

// annotate は閲覧者のリアクション状態を3本の並行バッチ読み取りで取得する。
// いずれもページ上の投稿IDのみに限定される。
// 戻り値は密なマップで、いいね・コメントがゼロの投稿にも必ずエントリが入る
// （部分的なデータを「リアクションなし」として見せてはならないため、
// 1本でも失敗した場合は全体を失敗させる）。
func (s *Service) annotate(ctx context.Context, viewerID string, postIDs []string) (map[string]model.InteractionState, error) {
	result := make(map[string]model.InteractionState, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	var liked map[string]bool
	var likeCounts, commentCounts map[string]int

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		liked, err = s.interactionRepo.ListLikedPostIDs(ctx, viewerID, postIDs)
		return err
	})

	g.Go(func() error {
		var err error
		likeCounts, err = s.interactionRepo.CountLikes(ctx, postIDs)
		return err
	})

	g.Go(func() error {
		var err error
		commentCounts, err = s.interactionRepo.CountComments(ctx, postIDs)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("リアクション状態の取得に失敗しました: %w", err)
	}

	for _, id := range postIDs {
		result[id] = model.InteractionState{
			Liked:        liked[id],
			LikeCount:    likeCounts[id],
			CommentCount: commentCounts[id],
		}
	}

	return result, nil
}
