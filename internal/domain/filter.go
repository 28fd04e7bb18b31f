package domain

import "time"

// ExclusionSets holds everything the dedup/block filter removes for one
// user. Built once per composition, never shared between requests.
type ExclusionSets struct {
	BlockedUsers    map[UserID]struct{}
	BlockedContents map[ContentID]struct{}
	RecentlyViewed  map[ContentID]struct{}
}

// NewExclusionSets builds exclusion sets from id slices.
func NewExclusionSets(blockedUsers []UserID, blockedContents, recentlyViewed []ContentID) ExclusionSets {
	e := ExclusionSets{
		BlockedUsers:    make(map[UserID]struct{}, len(blockedUsers)),
		BlockedContents: make(map[ContentID]struct{}, len(blockedContents)),
		RecentlyViewed:  make(map[ContentID]struct{}, len(recentlyViewed)),
	}
	for _, u := range blockedUsers {
		e.BlockedUsers[u] = struct{}{}
	}
	for _, c := range blockedContents {
		e.BlockedContents[c] = struct{}{}
	}
	for _, c := range recentlyViewed {
		e.RecentlyViewed[c] = struct{}{}
	}
	return e
}

// Excludes reports whether the entry must not be served to the user.
func (e ExclusionSets) Excludes(entry FeedEntry) bool {
	if _, ok := e.BlockedContents[entry.ContentID]; ok {
		return true
	}
	if _, ok := e.BlockedUsers[entry.AuthorID]; ok {
		return true
	}
	if _, ok := e.RecentlyViewed[entry.ContentID]; ok {
		return true
	}
	return false
}

// FilterEntries removes excluded entries and collapses duplicate
// content ids to the highest-scoring occurrence. When two strategies
// propose the same content the losing entry's strategy attribution is
// dropped with it. Input order is preserved; a duplicate that wins on
// score takes the position of the first occurrence.
//
// Must run after merging strategy outputs and before truncating to the
// final size, so removed items are replaced instead of shortening the
// page.
func FilterEntries(entries []FeedEntry, excl ExclusionSets) []FeedEntry {
	out := make([]FeedEntry, 0, len(entries))
	seen := make(map[ContentID]int, len(entries))

	for _, entry := range entries {
		if excl.Excludes(entry) {
			continue
		}
		if idx, ok := seen[entry.ContentID]; ok {
			if entry.Score > out[idx].Score {
				out[idx] = entry
			}
			continue
		}
		seen[entry.ContentID] = len(out)
		out = append(out, entry)
	}

	return out
}

// ViewRecencyWindow computes the cutoff before which views no longer
// suppress re-serving content.
func ViewRecencyWindow(now time.Time, window time.Duration) time.Time {
	return now.Add(-window)
}
