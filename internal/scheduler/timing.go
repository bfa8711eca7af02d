package scheduler

import (
	"log/slog"

	"github.com/tempodeck/tempo/internal/domain"
)

// updateCutoff recomputes today and the day cutoff from the time provider.
// When the day has advanced it rolls every deck's daily counters and unburies
// sibling-buried cards left over from previous days.
func (s *Scheduler) updateCutoff() {
	oldToday := s.today
	timing := s.clock.TimingToday()
	s.today = timing.DaysElapsed
	s.dayCutoff = timing.NextDayAt

	if oldToday != s.today {
		slog.Debug("day rolled over", "today", s.today, "cutoff", s.dayCutoff)
	}

	for _, deck := range s.decks.All() {
		s.rollDeckCounters(deck)
	}

	// Unbury sibling-buried cards once per day.
	if s.conf.GetInt(confKeyLastUnburied, 0) < s.today {
		if err := s.unburySiblingsOnRollover(); err != nil {
			slog.Warn("rollover unbury failed", "error", err)
			return
		}
		if err := s.conf.SetInt(confKeyLastUnburied, s.today); err != nil {
			slog.Warn("persisting lastUnburied failed", "error", err)
		}
	}
}

// rollDeckCounters moves any counter stamped with a previous day to
// [today, 0].
func (s *Scheduler) rollDeckCounters(deck *domain.Deck) {
	dirty := false
	for _, counter := range []*domain.DayCount{
		&deck.NewToday, &deck.RevToday, &deck.LrnToday, &deck.TimeToday,
	} {
		if counter[0] != s.today {
			counter[0] = s.today
			counter[1] = 0
			dirty = true
		}
	}
	if dirty {
		if err := s.decks.Save(deck); err != nil {
			slog.Warn("saving rolled deck counters failed", "deck", deck.ID, "error", err)
		}
	}
}

// unburySiblingsOnRollover restores only sibling-buried cards; manually
// buried cards stay buried until explicitly unburied.
func (s *Scheduler) unburySiblingsOnRollover() error {
	return s.store.Execute(
		"UPDATE cards SET "+restoreQueueSnippet+", mod = ?, usn = ? WHERE queue = ?",
		s.clock.IntTime(), s.usn(), int(domain.QueueSiblingBuried),
	)
}

// updateStats adds cnt to the named daily counter of the card's deck and all
// its ancestors.
func (s *Scheduler) updateStats(card *domain.Card, counter string, cnt int) {
	decks := append([]*domain.Deck{}, s.decks.Parents(card.DID)...)
	if d := s.decks.Get(card.DID); d != nil {
		decks = append(decks, d)
	}
	for _, deck := range decks {
		var c *domain.DayCount
		switch counter {
		case "new":
			c = &deck.NewToday
		case "rev":
			c = &deck.RevToday
		case "lrn":
			c = &deck.LrnToday
		case "time":
			c = &deck.TimeToday
		default:
			continue
		}
		c[1] += cnt
		if err := s.decks.Save(deck); err != nil {
			slog.Warn("saving deck stats failed", "deck", deck.ID, "error", err)
		}
	}
}
