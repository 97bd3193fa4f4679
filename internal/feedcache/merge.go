package feedcache

import "sort"

// Merge concatenates the own-feed and liked collections, orders them newest
// first and keeps at most limit items.
//
// Items with equal timestamps keep their input order (feed before liked).
// The same post returned by both endpoints is not deduplicated.
func Merge(feed, liked []*RemoteItem, limit int) []*RemoteItem {
	if limit <= 0 {
		return []*RemoteItem{}
	}

	all := make([]*RemoteItem, 0, len(feed)+len(liked))
	all = append(all, feed...)
	all = append(all, liked...)

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedTime > all[j].CreatedTime
	})

	if len(all) > limit {
		all = all[:limit]
	}
	return all
}
