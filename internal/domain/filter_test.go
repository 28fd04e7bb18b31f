package domain

import (
	"testing"
)

func TestFilterEntries_RemovesBlockedAndViewed(t *testing.T) {
	entries := []FeedEntry{
		{ContentID: "c1", AuthorID: "u1", Score: 0.9, Strategy: StrategyCF},
		{ContentID: "c2", AuthorID: "u2", Score: 0.8, Strategy: StrategyCF},      // author blocked
		{ContentID: "c3", AuthorID: "u3", Score: 0.7, Strategy: StrategyPopular}, // content blocked
		{ContentID: "c4", AuthorID: "u4", Score: 0.6, Strategy: StrategyNew},     // recently viewed
		{ContentID: "c5", AuthorID: "u5", Score: 0.5, Strategy: StrategyRandom},
	}
	excl := NewExclusionSets(
		[]UserID{"u2"},
		[]ContentID{"c3"},
		[]ContentID{"c4"},
	)

	got := FilterEntries(entries, excl)

	want := []ContentID{"c1", "c5"}
	if len(got) != len(want) {
		t.Fatalf("FilterEntries() returned %d entries, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ContentID != id {
			t.Errorf("entry %d = %s, want %s", i, got[i].ContentID, id)
		}
	}
}

func TestFilterEntries_DuplicateKeepsHigherScore(t *testing.T) {
	entries := []FeedEntry{
		{ContentID: "c1", Score: 0.4, Strategy: StrategyPopular},
		{ContentID: "c2", Score: 0.9, Strategy: StrategyCF},
		{ContentID: "c1", Score: 0.7, Strategy: StrategyCF},
		{ContentID: "c2", Score: 0.3, Strategy: StrategyRandom},
	}

	got := FilterEntries(entries, ExclusionSets{})

	if len(got) != 2 {
		t.Fatalf("FilterEntries() returned %d entries, want 2", len(got))
	}
	if got[0].ContentID != "c1" || got[0].Score != 0.7 || got[0].Strategy != StrategyCF {
		t.Errorf("c1 = %+v, want higher-scoring CF occurrence", got[0])
	}
	if got[1].ContentID != "c2" || got[1].Score != 0.9 {
		t.Errorf("c2 = %+v, want score 0.9", got[1])
	}
}

func TestFilterEntries_EmptyInput(t *testing.T) {
	got := FilterEntries(nil, NewExclusionSets(nil, nil, nil))
	if len(got) != 0 {
		t.Errorf("FilterEntries(nil) returned %d entries, want 0", len(got))
	}
}
