package feed

import (
	"github.com/hitoshi/machikado/internal/batch"
	"github.com/hitoshi/machikado/internal/model"
)

// BuildVisibility はオーディエンスから可視性述語の値オブジェクトを構築する。
// 述語の意味は:
//
//	著者 ∈ {閲覧者} ∪ フォロー中 ∪ フレンド
//	OR グループ ∈ 所属グループ（所属がある場合のみ）
//	OR 投稿タグ ∩ フォロータグ ≠ ∅（フォロータグがある場合のみ）
//	OR 共有元ブログのタグ ∩ フォロータグ ≠ ∅（同上）
//
// AuthorIDsには閲覧者自身が必ず含まれるため、すべての任意セットが空でも
// 述語は「自分の投稿のみ」に退化し、「全件一致」には決してならない。
func BuildVisibility(viewerID string, audience *model.AudienceSet) model.VisibilityFilter {
	authorIDs := make([]string, 0, 1+len(audience.FollowedAuthorIDs)+len(audience.FriendIDs))
	authorIDs = append(authorIDs, viewerID)
	authorIDs = append(authorIDs, audience.FollowedAuthorIDs...)
	authorIDs = append(authorIDs, audience.FriendIDs...)

	return model.VisibilityFilter{
		ViewerID:       viewerID,
		AuthorIDs:      batch.Dedup(authorIDs),
		GroupIDs:       batch.Dedup(audience.GroupIDs),
		FollowedTagIDs: batch.Dedup(audience.FollowedTagIDs),
	}
}
