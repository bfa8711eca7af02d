package scheduler

import (
	"context"
	"strings"

	"github.com/tempodeck/tempo/internal/domain"
)

// walkingCount traverses the active decks, clamping each deck's limit against
// the remaining budget of every ancestor and charging counted cards back
// against those budgets. Returns ErrCancelled if the context is cancelled
// between decks.
func (s *Scheduler) walkingCount(ctx context.Context, limFn func(*domain.Deck) int, cntFn func(did int64, lim int) (int, error)) (int, error) {
	tot := 0
	pcounts := map[int64]int{}

	for _, did := range s.decks.Active() {
		if ctx.Err() != nil {
			return -1, ErrCancelled
		}
		deck := s.decks.Get(did)
		if deck == nil {
			continue
		}
		lim := limFn(deck)

		// Clamp against each ancestor's remaining budget.
		parents := s.decks.Parents(did)
		for _, p := range parents {
			if _, ok := pcounts[p.ID]; !ok {
				pcounts[p.ID] = limFn(p)
			}
			lim = min(lim, pcounts[p.ID])
		}

		cnt, err := cntFn(did, lim)
		if err != nil {
			return -1, err
		}

		// Charge the ancestors and register this deck's own remainder.
		for _, p := range parents {
			pcounts[p.ID] -= cnt
		}
		pcounts[did] = lim - cnt
		tot += cnt
	}
	return tot, nil
}

// deckNewLimitSingle returns today's remaining new-card allowance for one
// deck, ignoring the tree.
func (s *Scheduler) deckNewLimitSingle(d *domain.Deck, considerCurrent bool) int {
	if d.Dyn {
		return dynReportLimit
	}
	conf := s.decks.ConfForDid(d.ID)
	lim := max(0, conf.New.PerDay-d.NewToday.Count())
	if considerCurrent && s.currentCardInQueueWithDeck(domain.QueueNew, d.ID) {
		lim--
	}
	return lim
}

// deckNewLimit returns the new-card allowance for the deck clamped by all its
// ancestors.
func (s *Scheduler) deckNewLimit(did int64, considerCurrent bool) int {
	lim := -1
	decks := append([]*domain.Deck{}, s.decks.Parents(did)...)
	if d := s.decks.Get(did); d != nil {
		decks = append(decks, d)
	}
	for _, d := range decks {
		rem := s.deckNewLimitSingle(d, considerCurrent)
		if lim == -1 {
			lim = rem
		} else {
			lim = min(lim, rem)
		}
	}
	return lim
}

// deckRevLimitSingle returns today's remaining review allowance for one deck.
// In v2 a non-negative parentLimit caps the result, and a negative one makes
// the deck clamp against each ancestor's own allowance; v1 never clamps.
func (s *Scheduler) deckRevLimitSingle(d *domain.Deck, parentLimit int, considerCurrent bool) int {
	if d.Dyn {
		return dynReportLimit
	}
	conf := s.decks.ConfForDid(d.ID)
	lim := max(0, conf.Rev.PerDay-d.RevToday.Count())

	if s.version == V2 {
		if parentLimit >= 0 {
			lim = min(parentLimit, lim)
		} else if strings.Contains(d.Name, ".") {
			for _, p := range s.decks.Parents(d.ID) {
				lim = min(lim, s.deckRevLimitSingle(p, -1, considerCurrent))
			}
		}
	}

	if considerCurrent && s.currentCardInQueueWithDeck(domain.QueueReview, d.ID) {
		lim--
	}
	return lim
}

// currentRevLimit is the selected deck's review allowance, used to bound
// review queue fills across the whole active set.
func (s *Scheduler) currentRevLimit(considerCurrent bool) int {
	d := s.decks.Get(s.decks.Selected())
	if d == nil {
		return 0
	}
	return s.deckRevLimitSingle(d, -1, considerCurrent)
}
