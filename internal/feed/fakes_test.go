package feed

import (
	"context"

	"github.com/hitoshi/machikado/internal/model"
)

// --- モック定義 ---
// フィードサービスのテストで共有するリポジトリのモック実装。
// 未設定のメソッドは空の結果を返す。

// mockRelationshipRepo はRelationshipRepositoryのモック実装。
type mockRelationshipRepo struct {
	listFollowedAuthorIDsFn func(ctx context.Context, viewerID string) ([]string, error)
	listFriendIDsFn         func(ctx context.Context, viewerID string) ([]string, error)
	listGroupIDsFn          func(ctx context.Context, viewerID string) ([]string, error)
	listFollowedTagIDsFn    func(ctx context.Context, viewerID string) ([]string, error)
}

func (m *mockRelationshipRepo) ListFollowedAuthorIDs(ctx context.Context, viewerID string) ([]string, error) {
	if m.listFollowedAuthorIDsFn != nil {
		return m.listFollowedAuthorIDsFn(ctx, viewerID)
	}
	return nil, nil
}

func (m *mockRelationshipRepo) ListFriendIDs(ctx context.Context, viewerID string) ([]string, error) {
	if m.listFriendIDsFn != nil {
		return m.listFriendIDsFn(ctx, viewerID)
	}
	return nil, nil
}

func (m *mockRelationshipRepo) ListGroupIDs(ctx context.Context, viewerID string) ([]string, error) {
	if m.listGroupIDsFn != nil {
		return m.listGroupIDsFn(ctx, viewerID)
	}
	return nil, nil
}

func (m *mockRelationshipRepo) ListFollowedTagIDs(ctx context.Context, viewerID string) ([]string, error) {
	if m.listFollowedTagIDsFn != nil {
		return m.listFollowedTagIDsFn(ctx, viewerID)
	}
	return nil, nil
}

// mockPostRepo はPostRepositoryのモック実装。
type mockPostRepo struct {
	listVisibleFn     func(ctx context.Context, filter model.VisibilityFilter, cursor *model.PageCursor, limit int) ([]model.Post, error)
	findCursorFn      func(ctx context.Context, id string) (*model.PageCursor, error)
	findByIDsFn       func(ctx context.Context, ids []string) (map[string]*model.Post, error)
	findVisibleByIDFn func(ctx context.Context, filter model.VisibilityFilter, id string) (*model.Post, error)
}

func (m *mockPostRepo) ListVisible(ctx context.Context, filter model.VisibilityFilter, cursor *model.PageCursor, limit int) ([]model.Post, error) {
	if m.listVisibleFn != nil {
		return m.listVisibleFn(ctx, filter, cursor, limit)
	}
	return nil, nil
}

func (m *mockPostRepo) FindCursor(ctx context.Context, id string) (*model.PageCursor, error) {
	if m.findCursorFn != nil {
		return m.findCursorFn(ctx, id)
	}
	return nil, nil
}

func (m *mockPostRepo) FindByIDs(ctx context.Context, ids []string) (map[string]*model.Post, error) {
	if m.findByIDsFn != nil {
		return m.findByIDsFn(ctx, ids)
	}
	return map[string]*model.Post{}, nil
}

func (m *mockPostRepo) FindVisibleByID(ctx context.Context, filter model.VisibilityFilter, id string) (*model.Post, error) {
	if m.findVisibleByIDFn != nil {
		return m.findVisibleByIDFn(ctx, filter, id)
	}
	return nil, nil
}

// mockSourceRepo はSourceRepositoryのモック実装。
type mockSourceRepo struct {
	findBlogsByIDsFn      func(ctx context.Context, ids []string) (map[string]*model.BlogSnapshot, error)
	findBusinessesByIDsFn func(ctx context.Context, ids []string) (map[string]*model.BusinessSnapshot, error)
	findCouponsByIDsFn    func(ctx context.Context, ids []string) (map[string]*model.CouponSnapshot, error)
	findRewardsByIDsFn    func(ctx context.Context, ids []string) (map[string]*model.RewardSnapshot, error)
	findStoreItemsByIDsFn func(ctx context.Context, ids []string) (map[string]*model.StoreItemSnapshot, error)
}

func (m *mockSourceRepo) FindBlogsByIDs(ctx context.Context, ids []string) (map[string]*model.BlogSnapshot, error) {
	if m.findBlogsByIDsFn != nil {
		return m.findBlogsByIDsFn(ctx, ids)
	}
	return map[string]*model.BlogSnapshot{}, nil
}

func (m *mockSourceRepo) FindBusinessesByIDs(ctx context.Context, ids []string) (map[string]*model.BusinessSnapshot, error) {
	if m.findBusinessesByIDsFn != nil {
		return m.findBusinessesByIDsFn(ctx, ids)
	}
	return map[string]*model.BusinessSnapshot{}, nil
}

func (m *mockSourceRepo) FindCouponsByIDs(ctx context.Context, ids []string) (map[string]*model.CouponSnapshot, error) {
	if m.findCouponsByIDsFn != nil {
		return m.findCouponsByIDsFn(ctx, ids)
	}
	return map[string]*model.CouponSnapshot{}, nil
}

func (m *mockSourceRepo) FindRewardsByIDs(ctx context.Context, ids []string) (map[string]*model.RewardSnapshot, error) {
	if m.findRewardsByIDsFn != nil {
		return m.findRewardsByIDsFn(ctx, ids)
	}
	return map[string]*model.RewardSnapshot{}, nil
}

func (m *mockSourceRepo) FindStoreItemsByIDs(ctx context.Context, ids []string) (map[string]*model.StoreItemSnapshot, error) {
	if m.findStoreItemsByIDsFn != nil {
		return m.findStoreItemsByIDsFn(ctx, ids)
	}
	return map[string]*model.StoreItemSnapshot{}, nil
}

// mockInteractionRepo はInteractionRepositoryのモック実装。
type mockInteractionRepo struct {
	listLikedPostIDsFn func(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error)
	countLikesFn       func(ctx context.Context, postIDs []string) (map[string]int, error)
	countCommentsFn    func(ctx context.Context, postIDs []string) (map[string]int, error)
}

func (m *mockInteractionRepo) ListLikedPostIDs(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error) {
	if m.listLikedPostIDsFn != nil {
		return m.listLikedPostIDsFn(ctx, viewerID, postIDs)
	}
	return map[string]bool{}, nil
}

func (m *mockInteractionRepo) CountLikes(ctx context.Context, postIDs []string) (map[string]int, error) {
	if m.countLikesFn != nil {
		return m.countLikesFn(ctx, postIDs)
	}
	return map[string]int{}, nil
}

func (m *mockInteractionRepo) CountComments(ctx context.Context, postIDs []string) (map[string]int, error) {
	if m.countCommentsFn != nil {
		return m.countCommentsFn(ctx, postIDs)
	}
	return map[string]int{}, nil
}

// newTestService はモックを差し込んだServiceを生成する。
func newTestService(
	relRepo *mockRelationshipRepo,
	postRepo *mockPostRepo,
	sourceRepo *mockSourceRepo,
	interactionRepo *mockInteractionRepo,
) *Service {
	if relRepo == nil {
		relRepo = &mockRelationshipRepo{}
	}
	if postRepo == nil {
		postRepo = &mockPostRepo{}
	}
	if sourceRepo == nil {
		sourceRepo = &mockSourceRepo{}
	}
	if interactionRepo == nil {
		interactionRepo = &mockInteractionRepo{}
	}
	return NewService(relRepo, postRepo, sourceRepo, interactionRepo, nil)
}

// mustSource はテスト用の共有元参照を生成する。
func mustSource(kind model.SourceKind, id string) model.Source {
	src, err := model.NewSource(kind, id)
	if err != nil {
		panic(err)
	}
	return src
}
