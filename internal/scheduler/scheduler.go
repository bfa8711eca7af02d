// Package scheduler implements the v2 variant of the SM-2-derived scheduling
// algorithm: learning steps, graduated reviews, lapses with relearning,
// filtered decks with early review and previewing, sibling spacing, burying,
// suspension, and leech detection.
//
// The scheduler holds four in-memory queues filled lazily from the card
// store, gated by per-deck daily limits with parent clamping. All
// state-mutating methods must be invoked serially; the only concurrency is
// cooperative cancellation of count resets.
package scheduler

import (
	"context"
	"math/rand"
	"time"

	"github.com/tempodeck/tempo/internal/domain"
)

// Scheduler decides which card to show next and how a card's state changes
// after the learner rates their recall.
type Scheduler struct {
	store Store
	decks DeckManager
	notes Notes
	clock Clock
	conf  Config
	tasks TaskRunner

	version Version
	usn     func() int
	onLeech func(*domain.Card)
	rng     *rand.Rand

	today     int
	dayCutoff int64
	lrnCutoff int64

	reps int

	newCount int
	lrnCount int
	revCount int

	haveQueues bool
	haveCounts bool

	newQueue    []int64
	newDids     []int64
	lrnQueue    lrnQueue
	lrnDayQueue []int64
	lrnDids     []int64
	revQueue    []int64

	newCardModulus int

	currentCard        *domain.Card
	currentCardParents []int64
}

// Options tunes optional scheduler behavior. The zero value is usable.
type Options struct {
	// Version selects the scheduling variant; zero means V2.
	Version Version
	// USN supplies the update sequence number stamped on mutations; nil
	// stamps -1 (no sync layer).
	USN func() int
	// OnLeech is invoked when a card crosses the leech threshold.
	OnLeech func(*domain.Card)
	// Rand seeds fuzz and rescheduling randomness; nil uses a time-seeded
	// source. The day-learn shuffle is always seeded with the day index.
	Rand *rand.Rand
	// Tasks runs the deferred re-reset after a failed fetch; nil disables.
	Tasks TaskRunner
}

// New creates a scheduler over the given collaborators.
func New(store Store, decks DeckManager, notes Notes, clock Clock, conf Config, opts Options) *Scheduler {
	version := opts.Version
	if version == 0 {
		version = V2
	}
	usn := opts.USN
	if usn == nil {
		usn = func() int { return -1 }
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &Scheduler{
		store:   store,
		decks:   decks,
		notes:   notes,
		clock:   clock,
		conf:    conf,
		tasks:   opts.Tasks,
		version: version,
		usn:     usn,
		onLeech: opts.OnLeech,
		rng:     rng,
	}
	s.updateCutoff()
	return s
}

// Name identifies the scheduling variant: "std2" for v2, "std" for v1.
func (s *Scheduler) Name() string {
	if s.version == V1 {
		return "std"
	}
	return "std2"
}

// Version returns the active scheduling variant.
func (s *Scheduler) Version() Version { return s.version }

// Today returns the current day index.
func (s *Scheduler) Today() int { return s.today }

// DayCutoff returns the epoch second at which the day index increments.
func (s *Scheduler) DayCutoff() int64 { return s.dayCutoff }

// Counts returns the remaining (new, learning, review) counts for the active
// decks. Valid after Reset.
func (s *Scheduler) Counts() (int, int, int) {
	return s.newCount, s.lrnCount, s.revCount
}

// HaveCounts reports whether the counters are currently trustworthy.
func (s *Scheduler) HaveCounts() bool { return s.haveCounts }

// AnswerButtons returns the number of rating buttons for the card: 2 when
// previewing in a non-rescheduling filtered deck, 4 otherwise.
func (s *Scheduler) AnswerButtons(card *domain.Card) int {
	if s.previewingCard(card) {
		return 2
	}
	return 4
}

// Reset recomputes the day cutoff, counts, and queues.
func (s *Scheduler) Reset() error {
	return s.ResetContext(context.Background())
}

// ResetContext is Reset with cooperative cancellation. On cancellation the
// counts are left unusable (HaveCounts reports false) and ErrCancelled is
// returned; the caller must reset again before the next fetch.
func (s *Scheduler) ResetContext(ctx context.Context) error {
	s.updateCutoff()
	if err := s.resetCounts(ctx); err != nil {
		return err
	}
	s.resetQueues()
	return nil
}

// DeferReset invalidates counts and queues until the next GetCard. If card is
// non-nil it becomes the current card (an undone review being shown again).
func (s *Scheduler) DeferReset(card *domain.Card) {
	s.haveQueues = false
	s.haveCounts = false
	if card != nil {
		s.setCurrentCard(card)
	} else {
		s.discardCurrentCard()
	}
}

func (s *Scheduler) resetCounts(ctx context.Context) error {
	s.haveCounts = false
	if err := s.resetLrnCount(ctx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return ErrCancelled
	}
	if err := s.resetRevCount(ctx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return ErrCancelled
	}
	if err := s.resetNewCount(ctx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return ErrCancelled
	}
	s.haveCounts = true
	return nil
}

func (s *Scheduler) resetQueues() {
	s.resetLrnQueue()
	s.resetRevQueue()
	s.resetNewQueue()
	s.haveQueues = true
}

// checkDay resets everything when the day has rolled over since the last
// reset.
func (s *Scheduler) checkDay() error {
	if s.clock.IntTime() > s.dayCutoff {
		return s.Reset()
	}
	return nil
}

// GetCard returns the next card to review, or nil when the session is
// finished. The returned card has its timer started and is excluded from
// subsequent queue fills until answered or discarded.
func (s *Scheduler) GetCard() (*domain.Card, error) {
	if err := s.checkDay(); err != nil {
		return nil, err
	}
	if !s.haveQueues {
		if err := s.Reset(); err != nil {
			return nil, err
		}
	}
	card, err := s.nextCard()
	if err != nil {
		return nil, err
	}
	if card == nil && !s.haveCounts {
		// Counts were stale; a full reset may reveal more cards.
		if err := s.Reset(); err != nil {
			return nil, err
		}
		card, err = s.nextCard()
		if err != nil {
			return nil, err
		}
	}
	if card != nil {
		s.reps++
		s.decrementCounts(card)
		s.setCurrentCard(card)
		card.StartTimer(s.clock.IntTimeMS())
	} else {
		s.discardCurrentCard()
		if !s.haveCounts && s.tasks != nil {
			s.tasks.Launch(func() { _ = s.Reset() })
		}
	}
	return card, nil
}

// nextCard applies the interleaving policy across the four queues.
func (s *Scheduler) nextCard() (*domain.Card, error) {
	// Learning card due now?
	if c, err := s.getLrnCard(false); c != nil || err != nil {
		return c, err
	}

	// New first or time for one?
	if s.timeForNewCard() {
		if c, err := s.getNewCard(); c != nil || err != nil {
			return c, err
		}
	}

	dayLearnFirst := s.conf.GetBool(confKeyDayLearnFirst, false)

	// Day-learning first preference.
	if dayLearnFirst {
		if c, err := s.getLrnDayCard(); c != nil || err != nil {
			return c, err
		}
	}

	// Review card due?
	if c, err := s.getRevCard(); c != nil || err != nil {
		return c, err
	}

	if !dayLearnFirst {
		if c, err := s.getLrnDayCard(); c != nil || err != nil {
			return c, err
		}
	}

	// New last.
	if c, err := s.getNewCard(); c != nil || err != nil {
		return c, err
	}

	// Collapse: learning card ahead of schedule within the collapse window.
	return s.getLrnCard(true)
}

// timeForNewCard reports whether the interleaving policy calls for a new card
// now.
func (s *Scheduler) timeForNewCard() bool {
	if s.newCount == 0 {
		return false
	}
	switch s.conf.GetInt(confKeyNewSpread, NewCardsDistribute) {
	case NewCardsLast:
		return false
	case NewCardsFirst:
		return true
	default:
		if s.newCardModulus != 0 {
			return s.reps != 0 && s.reps%s.newCardModulus == 0
		}
		return false
	}
}

func (s *Scheduler) decrementCounts(card *domain.Card) {
	switch card.Queue {
	case domain.QueueNew:
		s.newCount--
	case domain.QueueLearning, domain.QueueDayLearn, domain.QueuePreview:
		s.lrnCount--
	case domain.QueueReview:
		s.revCount--
	}
}

func (s *Scheduler) setCurrentCard(card *domain.Card) {
	s.currentCard = card
	dids := []int64{card.DID}
	for _, p := range s.decks.Parents(card.DID) {
		dids = append(dids, p.ID)
	}
	s.currentCardParents = dids
}

// discardCurrentCard forgets the currently-displayed card, making it eligible
// for queue fills again.
func (s *Scheduler) discardCurrentCard() {
	s.currentCard = nil
	s.currentCardParents = nil
}

func (s *Scheduler) currentCardID() int64 {
	if s.currentCard == nil {
		return 0
	}
	return s.currentCard.ID
}

func (s *Scheduler) currentCardNID() int64 {
	if s.currentCard == nil {
		return 0
	}
	return s.currentCard.NID
}

// currentCardInQueueWithDeck reports whether the currently-displayed card is
// in the given queue and the given deck is its deck or an ancestor of it.
func (s *Scheduler) currentCardInQueueWithDeck(queue domain.CardQueue, did int64) bool {
	if s.currentCard == nil || s.currentCard.Queue != queue {
		return false
	}
	for _, d := range s.currentCardParents {
		if d == did {
			return true
		}
	}
	return false
}

// collapseTime returns the end-of-day window during which learning cards may
// be shown ahead of their due time.
func (s *Scheduler) collapseTime() int64 {
	return int64(s.conf.GetInt(confKeyCollapseTime, 1200))
}
