package feed

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/machikado/internal/batch"
	"github.com/hitoshi/machikado/internal/model"
)

// resolvedSources は1ページ分の共有元解決結果。種別ごとのID引きマップを保持する。
// マップに存在しないIDは参照先消失（削除済みエンティティ）を意味する。
type resolvedSources struct {
	blogs      map[string]*model.BlogSnapshot
	businesses map[string]*model.BusinessSnapshot
	coupons    map[string]*model.CouponSnapshot
	rewards    map[string]*model.RewardSnapshot
	storeItems map[string]*model.StoreItemSnapshot
	posts      map[string]*model.Post
}

func newResolvedSources() *resolvedSources {
	return &resolvedSources{
		blogs:      make(map[string]*model.BlogSnapshot),
		businesses: make(map[string]*model.BusinessSnapshot),
		coupons:    make(map[string]*model.CouponSnapshot),
		rewards:    make(map[string]*model.RewardSnapshot),
		storeItems: make(map[string]*model.StoreItemSnapshot),
		posts:      make(map[string]*model.Post),
	}
}

// resolveSources はページ上の投稿の共有元を2段階で一括解決する。
//
// 第1段: 投稿を共有元種別ごとに分配し、空でない種別ごとに1回ずつ
// バッチ取得を並行発行する（投稿ごとの個別クエリは発行しない）。
// 第2段: 共有元が投稿だったもの（ネスト共有）について、その投稿自身の
// 共有元をもう1段だけ同じ方式で解決する。第1段で取得済みのIDは
// 再フェッチしない。ネストした投稿のさらに先の投稿は解決せず、深さ1で打ち切る。
func (s *Service) resolveSources(ctx context.Context, posts []model.Post) (*resolvedSources, error) {
	rs := newResolvedSources()
	if len(posts) == 0 {
		return rs, nil
	}

	if err := s.fetchSources(ctx, rs, partitionSourceIDs(posts)); err != nil {
		return nil, fmt.Errorf("共有元の解決に失敗しました: %w", err)
	}

	// ネストした共有投稿の共有元を収集する。
	// 参照先が消えている共有投稿はここに現れず、未解決のまま残る。
	var nested []model.Post
	for i := range posts {
		if posts[i].Source.Kind() != model.SourceKindPost {
			continue
		}
		if np, ok := rs.posts[posts[i].Source.ID()]; ok {
			nested = append(nested, *np)
		}
	}
	if len(nested) == 0 {
		return rs, nil
	}

	nestedIDs := partitionSourceIDs(nested)
	// 深さ1で打ち切り: ネスト先がさらに共有投稿でも追わない
	delete(nestedIDs, model.SourceKindPost)

	if err := s.fetchSources(ctx, rs, nestedIDs); err != nil {
		return nil, fmt.Errorf("ネストした共有元の解決に失敗しました: %w", err)
	}

	return rs, nil
}

// partitionSourceIDs は投稿の共有元IDを種別ごとに分配する。
func partitionSourceIDs(posts []model.Post) map[model.SourceKind][]string {
	ids := make(map[model.SourceKind][]string)
	for i := range posts {
		src := posts[i].Source
		if src.IsZero() {
			continue
		}
		ids[src.Kind()] = append(ids[src.Kind()], src.ID())
	}
	return ids
}

// fetchSources は種別ごとのバッチ取得を並行発行し、結果をrsへマージする。
// 各ゴルーチンは自分の種別のマップにのみ書き込むため排他制御は不要。
// rsに取得済みのIDはスキップされる。
func (s *Service) fetchSources(ctx context.Context, rs *resolvedSources, ids map[model.SourceKind][]string) error {
	g, ctx := errgroup.WithContext(ctx)

	if blogIDs := ids[model.SourceKindBlog]; len(blogIDs) > 0 {
		g.Go(func() error {
			s.metrics.RecordSourceFetch(string(model.SourceKindBlog), len(blogIDs))
			return batch.LoadMissing(ctx, rs.blogs, blogIDs, s.sourceRepo.FindBlogsByIDs)
		})
	}
	if businessIDs := ids[model.SourceKindBusiness]; len(businessIDs) > 0 {
		g.Go(func() error {
			s.metrics.RecordSourceFetch(string(model.SourceKindBusiness), len(businessIDs))
			return batch.LoadMissing(ctx, rs.businesses, businessIDs, s.sourceRepo.FindBusinessesByIDs)
		})
	}
	if couponIDs := ids[model.SourceKindCoupon]; len(couponIDs) > 0 {
		g.Go(func() error {
			s.metrics.RecordSourceFetch(string(model.SourceKindCoupon), len(couponIDs))
			return batch.LoadMissing(ctx, rs.coupons, couponIDs, s.sourceRepo.FindCouponsByIDs)
		})
	}
	if rewardIDs := ids[model.SourceKindReward]; len(rewardIDs) > 0 {
		g.Go(func() error {
			s.metrics.RecordSourceFetch(string(model.SourceKindReward), len(rewardIDs))
			return batch.LoadMissing(ctx, rs.rewards, rewardIDs, s.sourceRepo.FindRewardsByIDs)
		})
	}
	if storeItemIDs := ids[model.SourceKindStoreItem]; len(storeItemIDs) > 0 {
		g.Go(func() error {
			s.metrics.RecordSourceFetch(string(model.SourceKindStoreItem), len(storeItemIDs))
			return batch.LoadMissing(ctx, rs.storeItems, storeItemIDs, s.sourceRepo.FindStoreItemsByIDs)
		})
	}
	if postIDs := ids[model.SourceKindPost]; len(postIDs) > 0 {
		g.Go(func() error {
			s.metrics.RecordSourceFetch(string(model.SourceKindPost), len(postIDs))
			return batch.LoadMissing(ctx, rs.posts, postIDs, s.postRepo.FindByIDs)
		})
	}

	return g.Wait()
}
