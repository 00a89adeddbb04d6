package feed

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/machikado/internal/model"
)

// ResolveAudience は閲覧者のオーディエンスを4本の独立した読み取りを
// 並行に発行して解決する。いずれか1本でも失敗した場合は全体を失敗させる。
// 欠けたオーディエンスで続行するとコンテンツを黙って隠す・漏らすことになるため、
// 部分的な結果は返さない。
func (s *Service) ResolveAudience(ctx context.Context, viewerID string) (*model.AudienceSet, error) {
	audience := &model.AudienceSet{}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ids, err := s.relRepo.ListFollowedAuthorIDs(ctx, viewerID)
		if err != nil {
			return err
		}
		audience.FollowedAuthorIDs = ids
		return nil
	})

	g.Go(func() error {
		ids, err := s.relRepo.ListFriendIDs(ctx, viewerID)
		if err != nil {
			return err
		}
		audience.FriendIDs = ids
		return nil
	})

	g.Go(func() error {
		ids, err := s.relRepo.ListGroupIDs(ctx, viewerID)
		if err != nil {
			return err
		}
		audience.GroupIDs = ids
		return nil
	})

	g.Go(func() error {
		ids, err := s.relRepo.ListFollowedTagIDs(ctx, viewerID)
		if err != nil {
			return err
		}
		audience.FollowedTagIDs = ids
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("オーディエンスの解決に失敗しました: %w", err)
	}

	return audience, nil
}
