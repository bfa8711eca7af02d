package scheduler

import "errors"

// Sentinel errors. Check with errors.Is.
var (
	// ErrInvalidTransition is returned when a card is answered from a queue
	// that cannot be answered, or a preview is rated outside {Again, Hard}.
	ErrInvalidTransition = errors.New("scheduler: invalid card transition")

	// ErrInvalidPreviewState is returned when restoring a preview card that
	// is not in a filtered deck.
	ErrInvalidPreviewState = errors.New("scheduler: preview card not in filtered deck")

	// ErrInvalidEarlyReview is returned when the early-review interval is
	// requested for a card that does not qualify.
	ErrInvalidEarlyReview = errors.New("scheduler: card not eligible for early review")

	// ErrNotDynamic is returned when a filtered-deck operation targets a
	// regular deck.
	ErrNotDynamic = errors.New("scheduler: deck is not filtered")

	// ErrCancelled is returned when a count reset is cancelled cooperatively.
	ErrCancelled = errors.New("scheduler: cancelled")
)
