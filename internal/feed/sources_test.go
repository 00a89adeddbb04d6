package feed

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/hitoshi/machikado/internal/model"
)

// --- resolveSources のテスト ---

// TestResolveSources_OneBatchPerKind は共有元種別ごとに1回ずつの
// バッチ取得だけが発行されることを検証する（投稿ごとの個別クエリなし）。
func TestResolveSources_OneBatchPerKind(t *testing.T) {
	posts := []model.Post{
		{ID: "p1", Kind: model.PostKindSharedBlog, Source: mustSource(model.SourceKindBlog, "blog-1")},
		{ID: "p2", Kind: model.PostKindSharedBlog, Source: mustSource(model.SourceKindBlog, "blog-2")},
		{ID: "p3", Kind: model.PostKindSharedCoupon, Source: mustSource(model.SourceKindCoupon, "coupon-1")},
		{ID: "p4", Kind: model.PostKindOriginal},
	}

	blogCalls := 0
	var blogIDs []string
	couponCalls := 0
	businessCalls := 0
	sourceRepo := &mockSourceRepo{
		findBlogsByIDsFn: func(ctx context.Context, ids []string) (map[string]*model.BlogSnapshot, error) {
			blogCalls++
			blogIDs = ids
			return map[string]*model.BlogSnapshot{
				"blog-1": {ID: "blog-1"},
				"blog-2": {ID: "blog-2"},
			}, nil
		},
		findCouponsByIDsFn: func(ctx context.Context, ids []string) (map[string]*model.CouponSnapshot, error) {
			couponCalls++
			return map[string]*model.CouponSnapshot{"coupon-1": {ID: "coupon-1"}}, nil
		},
		findBusinessesByIDsFn: func(ctx context.Context, ids []string) (map[string]*model.BusinessSnapshot, error) {
			businessCalls++
			return nil, nil
		},
	}
	svc := newTestService(nil, nil, sourceRepo, nil)

	rs, err := svc.resolveSources(context.Background(), posts)
	if err != nil {
		t.Fatalf("resolveSources error = %v", err)
	}

	if blogCalls != 1 {
		t.Errorf("blog batch calls = %d, want 1", blogCalls)
	}
	sort.Strings(blogIDs)
	if !reflect.DeepEqual(blogIDs, []string{"blog-1", "blog-2"}) {
		t.Errorf("blog ids = %v, want [blog-1 blog-2]", blogIDs)
	}
	if couponCalls != 1 {
		t.Errorf("coupon batch calls = %d, want 1", couponCalls)
	}
	// 空の種別には一切クエリを発行しない
	if businessCalls != 0 {
		t.Errorf("business batch calls = %d, want 0", businessCalls)
	}

	if len(rs.blogs) != 2 || len(rs.coupons) != 1 {
		t.Errorf("resolved: blogs=%d coupons=%d, want 2/1", len(rs.blogs), len(rs.coupons))
	}
}

// TestResolveSources_DanglingRefLeftUnresolved は参照先が消失した共有元が
// エラーにならずマップに現れないことを検証する。
func TestResolveSources_DanglingRefLeftUnresolved(t *testing.T) {
	posts := []model.Post{
		{ID: "p1", Kind: model.PostKindSharedReward, Source: mustSource(model.SourceKindReward, "reward-gone")},
	}
	svc := newTestService(nil, nil, &mockSourceRepo{}, nil)

	rs, err := svc.resolveSources(context.Background(), posts)
	if err != nil {
		t.Fatalf("resolveSources error = %v", err)
	}

	if _, ok := rs.rewards["reward-gone"]; ok {
		t.Error("dangling reward should be absent from resolved map")
	}
}

// TestResolveSources_NestedSharedPostResolvedOneLevel は共有投稿の共有元が
// もう1段だけ解決されることを検証する。
func TestResolveSources_NestedSharedPostResolvedOneLevel(t *testing.T) {
	inner := model.Post{
		ID:     "inner",
		Kind:   model.PostKindSharedStoreItem,
		Source: mustSource(model.SourceKindStoreItem, "item-1"),
	}
	outer := model.Post{
		ID:     "outer",
		Kind:   model.PostKindSharedPost,
		Source: mustSource(model.SourceKindPost, "inner"),
	}

	postRepo := &mockPostRepo{
		findByIDsFn: func(ctx context.Context, ids []string) (map[string]*model.Post, error) {
			return map[string]*model.Post{"inner": &inner}, nil
		},
	}
	sourceRepo := &mockSourceRepo{
		findStoreItemsByIDsFn: func(ctx context.Context, ids []string) (map[string]*model.StoreItemSnapshot, error) {
			return map[string]*model.StoreItemSnapshot{"item-1": {ID: "item-1"}}, nil
		},
	}
	svc := newTestService(nil, postRepo, sourceRepo, nil)

	rs, err := svc.resolveSources(context.Background(), []model.Post{outer})
	if err != nil {
		t.Fatalf("resolveSources error = %v", err)
	}

	if _, ok := rs.posts["inner"]; !ok {
		t.Error("nested post should be resolved")
	}
	if _, ok := rs.storeItems["item-1"]; !ok {
		t.Error("nested post's source should be resolved")
	}
}

// TestResolveSources_NestedPassSkipsAlreadyFetched はネスト解決の第2段が
// 第1段で取得済みのIDを再フェッチしないことを検証する。
func TestResolveSources_NestedPassSkipsAlreadyFetched(t *testing.T) {
	inner := model.Post{
		ID:     "inner",
		Kind:   model.PostKindSharedBlog,
		Source: mustSource(model.SourceKindBlog, "blog-1"),
	}
	// 外側ページにblog-1を直接共有する投稿と、blog-1を共有する投稿のネスト共有が混在
	posts := []model.Post{
		{ID: "p1", Kind: model.PostKindSharedBlog, Source: mustSource(model.SourceKindBlog, "blog-1")},
		{ID: "p2", Kind: model.PostKindSharedPost, Source: mustSource(model.SourceKindPost, "inner")},
	}

	blogCalls := 0
	sourceRepo := &mockSourceRepo{
		findBlogsByIDsFn: func(ctx context.Context, ids []string) (map[string]*model.BlogSnapshot, error) {
			blogCalls++
			return map[string]*model.BlogSnapshot{"blog-1": {ID: "blog-1"}}, nil
		},
	}
	postRepo := &mockPostRepo{
		findByIDsFn: func(ctx context.Context, ids []string) (map[string]*model.Post, error) {
			return map[string]*model.Post{"inner": &inner}, nil
		},
	}
	svc := newTestService(nil, postRepo, sourceRepo, nil)

	if _, err := svc.resolveSources(context.Background(), posts); err != nil {
		t.Fatalf("resolveSources error = %v", err)
	}

	// blog-1は第1段で取得済みのため、第2段ではフェッチが発生しない
	if blogCalls != 1 {
		t.Errorf("blog batch calls = %d, want 1", blogCalls)
	}
}

// TestResolveSources_DepthCutoffAtOne はネストした共有投稿がさらに
// 共有投稿を指す場合、その先を解決しないことを検証する。
func TestResolveSources_DepthCutoffAtOne(t *testing.T) {
	innermost := model.Post{ID: "innermost", Kind: model.PostKindOriginal}
	inner := model.Post{
		ID:     "inner",
		Kind:   model.PostKindSharedPost,
		Source: mustSource(model.SourceKindPost, "innermost"),
	}
	outer := model.Post{
		ID:     "outer",
		Kind:   model.PostKindSharedPost,
		Source: mustSource(model.SourceKindPost, "inner"),
	}

	var fetchedPostIDs [][]string
	postRepo := &mockPostRepo{
		findByIDsFn: func(ctx context.Context, ids []string) (map[string]*model.Post, error) {
			fetchedPostIDs = append(fetchedPostIDs, ids)
			result := map[string]*model.Post{}
			for _, id := range ids {
				switch id {
				case "inner":
					result[id] = &inner
				case "innermost":
					result[id] = &innermost
				}
			}
			return result, nil
		},
	}
	svc := newTestService(nil, postRepo, &mockSourceRepo{}, nil)

	rs, err := svc.resolveSources(context.Background(), []model.Post{outer})
	if err != nil {
		t.Fatalf("resolveSources error = %v", err)
	}

	// 投稿のバッチ取得は第1段の1回のみ（innermostは追わない）
	if len(fetchedPostIDs) != 1 {
		t.Fatalf("post batch calls = %d, want 1", len(fetchedPostIDs))
	}
	if !reflect.DeepEqual(fetchedPostIDs[0], []string{"inner"}) {
		t.Errorf("fetched post ids = %v, want [inner]", fetchedPostIDs[0])
	}
	if _, ok := rs.posts["innermost"]; ok {
		t.Error("innermost post should not be resolved beyond depth 1")
	}
}

// TestResolveSources_FetchFailureAborts はいずれかのバッチ取得の失敗で
// 全体が失敗することを検証する。
func TestResolveSources_FetchFailureAborts(t *testing.T) {
	wantErr := errors.New("db error")
	sourceRepo := &mockSourceRepo{
		findBusinessesByIDsFn: func(ctx context.Context, ids []string) (map[string]*model.BusinessSnapshot, error) {
			return nil, wantErr
		},
	}
	svc := newTestService(nil, nil, sourceRepo, nil)

	posts := []model.Post{
		{ID: "p1", Kind: model.PostKindSharedBusiness, Source: mustSource(model.SourceKindBusiness, "biz-1")},
	}
	if _, err := svc.resolveSources(context.Background(), posts); !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}
}
