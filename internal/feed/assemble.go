package feed

import "github.com/hitoshi/machikado/internal/model"

// maxShareDepth はネスト共有の解決深さの上限。
const maxShareDepth = 1

// assemble は解決済みの共有元とリアクション状態を投稿にマージする。
// 入力の順序をそのまま保持し、I/Oは一切発行しない純粋なマージ処理。
func assemble(
	posts []model.Post,
	sources *resolvedSources,
	interactions map[string]model.InteractionState,
) []Entry {
	entries := make([]Entry, len(posts))
	for i := range posts {
		entries[i] = assembleEntry(posts[i], sources, interactions, 0)
	}
	return entries
}

// assembleEntry は投稿1件をEntryに組み立てる。
// 参照先が消えている共有元はSourceUnavailableで明示し、投稿自体は落とさない。
// 共有元が投稿の場合はdepth+1でネストエントリを組み立てる。
// maxShareDepthに達したネスト共有元は未解決のまま返す（無限再帰の防止）。
func assembleEntry(
	post model.Post,
	sources *resolvedSources,
	interactions map[string]model.InteractionState,
	depth int,
) Entry {
	entry := Entry{
		Post:        post,
		Interaction: interactions[post.ID],
	}

	src := post.Source
	if src.IsZero() {
		// 共有投稿なのに参照がない行は、参照先の物理削除で
		// 共有元カラムがNULLに落ちたもの。参照先消失として扱う。
		if post.Kind.SourceKind() != model.SourceKindNone {
			entry.SourceUnavailable = true
		}
		return entry
	}

	switch src.Kind() {
	case model.SourceKindBlog:
		entry.Blog = sources.blogs[src.ID()]
		entry.SourceUnavailable = entry.Blog == nil
	case model.SourceKindBusiness:
		entry.Business = sources.businesses[src.ID()]
		entry.SourceUnavailable = entry.Business == nil
	case model.SourceKindCoupon:
		entry.Coupon = sources.coupons[src.ID()]
		entry.SourceUnavailable = entry.Coupon == nil
	case model.SourceKindReward:
		entry.Reward = sources.rewards[src.ID()]
		entry.SourceUnavailable = entry.Reward == nil
	case model.SourceKindStoreItem:
		entry.StoreItem = sources.storeItems[src.ID()]
		entry.SourceUnavailable = entry.StoreItem == nil
	case model.SourceKindPost:
		if depth >= maxShareDepth {
			// 深さ打ち切り: 解決不能ではなく未展開として返す
			return entry
		}
		nested, ok := sources.posts[src.ID()]
		if !ok {
			entry.SourceUnavailable = true
			return entry
		}
		nestedEntry := assembleEntry(*nested, sources, interactions, depth+1)
		entry.Shared = &nestedEntry
	}

	return entry
}
