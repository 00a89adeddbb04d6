// Package batch はIDリストからID引きマップを構築する汎用バッチローダーを提供する。
// フィード組み立て時の共有元エンティティやリアクション集計のマップ結合を、
// 種別ごとの個別実装ではなく単一のユーティリティで統一する。
package batch

import "context"

// Dedup はIDリストから重複と空値を除いた新しいスライスを返す。
// 元の出現順を保持する。
func Dedup[K comparable](ids []K) []K {
	var zero K
	seen := make(map[K]bool, len(ids))
	result := make([]K, 0, len(ids))
	for _, id := range ids {
		if id == zero || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}

// LoadMissing はdstに未登録のIDのみをfetchで一括取得し、結果をdstへマージする。
// すでに取得済みのIDには再フェッチを発行しない（ネスト解決時の重複排除は
// 正しさの要件であり最適化ではない）。取得対象が1件もない場合、fetchは呼ばれない。
// fetchは要求IDの一部しか返さなくてよい。欠けたIDはdstに現れず、
// 呼び出し側で「参照先なし」として扱われる。
func LoadMissing[K comparable, V any](
	ctx context.Context,
	dst map[K]V,
	ids []K,
	fetch func(ctx context.Context, ids []K) (map[K]V, error),
) error {
	var missing []K
	for _, id := range Dedup(ids) {
		if _, ok := dst[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	fetched, err := fetch(ctx, missing)
	if err != nil {
		return err
	}
	for id, v := range fetched {
		dst[id] = v
	}
	return nil
}
