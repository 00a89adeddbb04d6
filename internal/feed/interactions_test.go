package feed

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/hitoshi/machikado/internal/model"
)

// --- annotate のテスト ---

// TestAnnotate_DenseMapWithZeroEntries はリアクションのない投稿にも
// ゼロ値のエントリが必ず入ることを検証する。
func TestAnnotate_DenseMapWithZeroEntries(t *testing.T) {
	interactionRepo := &mockInteractionRepo{
		listLikedPostIDsFn: func(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error) {
			return map[string]bool{"p1": true}, nil
		},
		countLikesFn: func(ctx context.Context, postIDs []string) (map[string]int, error) {
			return map[string]int{"p1": 3}, nil
		},
		countCommentsFn: func(ctx context.Context, postIDs []string) (map[string]int, error) {
			return map[string]int{"p2": 1}, nil
		},
	}
	svc := newTestService(nil, nil, nil, interactionRepo)

	got, err := svc.annotate(context.Background(), "viewer-1", []string{"p1", "p2", "p3"})
	if err != nil {
		t.Fatalf("annotate error = %v", err)
	}

	want := map[string]model.InteractionState{
		"p1": {Liked: true, LikeCount: 3, CommentCount: 0},
		"p2": {Liked: false, LikeCount: 0, CommentCount: 1},
		"p3": {},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("annotate = %v, want %v", got, want)
	}
}

// TestAnnotate_QueriesLimitedToPageIDs はすべての読み取りが
// ページ上の投稿IDだけを対象にすることを検証する。
func TestAnnotate_QueriesLimitedToPageIDs(t *testing.T) {
	pageIDs := []string{"p1", "p2"}

	var likedIDs, likeCountIDs, commentCountIDs []string
	interactionRepo := &mockInteractionRepo{
		listLikedPostIDsFn: func(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error) {
			likedIDs = postIDs
			return nil, nil
		},
		countLikesFn: func(ctx context.Context, postIDs []string) (map[string]int, error) {
			likeCountIDs = postIDs
			return nil, nil
		},
		countCommentsFn: func(ctx context.Context, postIDs []string) (map[string]int, error) {
			commentCountIDs = postIDs
			return nil, nil
		},
	}
	svc := newTestService(nil, nil, nil, interactionRepo)

	if _, err := svc.annotate(context.Background(), "viewer-1", pageIDs); err != nil {
		t.Fatalf("annotate error = %v", err)
	}

	for name, got := range map[string][]string{
		"liked":          likedIDs,
		"like counts":    likeCountIDs,
		"comment counts": commentCountIDs,
	} {
		if !reflect.DeepEqual(got, pageIDs) {
			t.Errorf("%s queried ids = %v, want %v", name, got, pageIDs)
		}
	}
}

// TestAnnotate_EmptyPageSkipsQueries は空ページでクエリを発行せず
// 空マップが返ることを検証する。
func TestAnnotate_EmptyPageSkipsQueries(t *testing.T) {
	called := false
	interactionRepo := &mockInteractionRepo{
		countLikesFn: func(ctx context.Context, postIDs []string) (map[string]int, error) {
			called = true
			return nil, nil
		},
	}
	svc := newTestService(nil, nil, nil, interactionRepo)

	got, err := svc.annotate(context.Background(), "viewer-1", nil)
	if err != nil {
		t.Fatalf("annotate error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("annotate = %v, want empty", got)
	}
	if called {
		t.Error("no queries should be issued for an empty page")
	}
}

// TestAnnotate_FailsWhenAnyReadFails はいずれか1本の読み取りの失敗で
// 部分的な結果を返さず全体が失敗することを検証する。
func TestAnnotate_FailsWhenAnyReadFails(t *testing.T) {
	wantErr := errors.New("db error")
	interactionRepo := &mockInteractionRepo{
		countCommentsFn: func(ctx context.Context, postIDs []string) (map[string]int, error) {
			return nil, wantErr
		},
	}
	svc := newTestService(nil, nil, nil, interactionRepo)

	got, err := svc.annotate(context.Background(), "viewer-1", []string{"p1"})
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}
	if got != nil {
		t.Errorf("annotate = %v, want nil", got)
	}
}
