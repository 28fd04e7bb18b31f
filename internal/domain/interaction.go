package domain

import (
	"fmt"
	"time"
)

// InteractionKind classifies a user/content interaction.
type InteractionKind string

const (
	InteractionLike  InteractionKind = "like"
	InteractionSave  InteractionKind = "save"
	InteractionShare InteractionKind = "share"
	InteractionView  InteractionKind = "view"
)

// PositiveKinds are the interaction kinds that count as an explicit
// positive signal. Views are implicit and excluded.
func PositiveKinds() []InteractionKind {
	return []InteractionKind{InteractionLike, InteractionSave, InteractionShare}
}

// InteractionWeights maps each interaction kind to its scoring weight.
// Used both by collaborative filtering and by the popularity refresher.
type InteractionWeights map[InteractionKind]float64

// DefaultInteractionWeights returns the default weight table.
// Positive kinds must be strictly increasing like < save < share.
func DefaultInteractionWeights() InteractionWeights {
	return InteractionWeights{
		InteractionLike:  1.0,
		InteractionSave:  1.5,
		InteractionShare: 2.0,
		InteractionView:  0.1,
	}
}

// Validate checks the weight-ordering invariant the engine relies on.
func (w InteractionWeights) Validate() error {
	like, save, share := w[InteractionLike], w[InteractionSave], w[InteractionShare]
	if !(like < save && save < share) {
		return fmt.Errorf("%w: like=%v save=%v share=%v must be strictly increasing",
			ErrInvalidWeights, like, save, share)
	}
	return nil
}

// Of returns the weight for the given kind, 0 if unconfigured.
func (w InteractionWeights) Of(kind InteractionKind) float64 {
	return w[kind]
}

// InteractionRecord is one append-only interaction event.
// Records are never mutated by this engine; moderation deletes happen
// upstream and this engine only ever reads live rows.
type InteractionRecord struct {
	UserID    UserID          `json:"user_id"`
	ContentID ContentID       `json:"content_id"`
	Kind      InteractionKind `json:"kind"`
	CreatedAt time.Time       `json:"created_at"`
}
