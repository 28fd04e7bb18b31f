package domain

import (
	"encoding/base64"
	"fmt"
	"time"
)

// Strategy identifies the content-selection strategy that proposed a
// feed entry. Attribution is for explainability only; correctness never
// depends on it.
type Strategy string

const (
	StrategyCF      Strategy = "cf"      // item-based collaborative filtering
	StrategyPopular Strategy = "popular" // interaction-weighted popularity
	StrategyNew     Strategy = "new"     // publish recency
	StrategyRandom  Strategy = "random"  // uniform sample
)

// Strategies lists every strategy in canonical order.
func Strategies() []Strategy {
	return []Strategy{StrategyCF, StrategyPopular, StrategyNew, StrategyRandom}
}

// FeedEntry is one ranked item in a composed feed.
type FeedEntry struct {
	ContentID ContentID `json:"content_id"`
	AuthorID  UserID    `json:"author_id"`
	Score     float64   `json:"score"`
	Strategy  Strategy  `json:"strategy"`
}

// FeedBatch is one precomputed ordered feed for a (user, category) key.
// It is created on cache miss, read by many concurrent page requests
// and destroyed on TTL expiry or explicit refresh. Never mutated after
// creation.
type FeedBatch struct {
	Entries   []FeedEntry `json:"entries"`
	CreatedAt time.Time   `json:"created_at"`
}

// Stamp returns the batch identity used to bind cursors to one batch
// lifetime.
func (b *FeedBatch) Stamp() int64 {
	return b.CreatedAt.UnixNano()
}

// Slice returns the page starting at offset. The returned offset is the
// position of the element after the page, valid only while this batch
// lives.
func (b *FeedBatch) Slice(offset, limit int) (entries []FeedEntry, next int, hasNext bool) {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(b.Entries) {
		return nil, len(b.Entries), false
	}
	end := offset + limit
	if end > len(b.Entries) {
		end = len(b.Entries)
	}
	return b.Entries[offset:end], end, end < len(b.Entries)
}

// Cursor is an opaque position marker into one FeedBatch. It progresses
// monotonically and never skips or repeats an entry within a batch's
// lifetime. A cursor minted against a replaced batch restarts from the
// head.
type Cursor struct {
	BatchStamp int64
	Offset     int
}

// Encode renders the cursor as an opaque URL-safe token.
func (c Cursor) Encode() string {
	raw := fmt.Sprintf("v1:%d:%d", c.BatchStamp, c.Offset)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by Encode. An empty token is the
// zero cursor (start of batch). Malformed tokens are an error so that
// clients cannot silently fabricate positions.
func DecodeCursor(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var c Cursor
	if _, err := fmt.Sscanf(string(raw), "v1:%d:%d", &c.BatchStamp, &c.Offset); err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if c.Offset < 0 {
		return Cursor{}, fmt.Errorf("%w: negative offset", ErrInvalidCursor)
	}
	return c, nil
}
