package scheduler

import "github.com/tempodeck/tempo/internal/domain"

// cardConf returns the config of the deck the card currently resides in. For
// a filtered deck this is the synthesized dyn config.
func (s *Scheduler) cardConf(card *domain.Card) *domain.DeckConfig {
	return s.decks.ConfForDid(card.DID)
}

// newConf resolves the new-card config for the card. In a filtered deck the
// steps, graduating intervals, starting factor, and bury flag come from the
// card's original deck, while ordering and the daily cap are the filtered
// deck's.
func (s *Scheduler) newConf(card *domain.Card) domain.NewConf {
	conf := s.cardConf(card)
	if !card.InFilteredDeck() {
		return conf.New
	}
	oconf := s.decks.ConfForDid(card.ODid)
	return domain.NewConf{
		// From the original deck.
		Delays:        oconf.New.Delays,
		Ints:          oconf.New.Ints,
		InitialFactor: oconf.New.InitialFactor,
		Bury:          oconf.New.Bury,
		// Overridden by the filtered deck.
		Separate: conf.New.Separate,
		Order:    domain.NewCardsDue,
		PerDay:   reportLimit,
	}
}

// lapseConf resolves the lapse config for the card, overlaying the filtered
// deck's resched flag over the original deck's relearning settings.
func (s *Scheduler) lapseConf(card *domain.Card) domain.LapseConf {
	conf := s.cardConf(card)
	if !card.InFilteredDeck() {
		lc := conf.Lapse
		lc.Resched = true
		return lc
	}
	oconf := s.decks.ConfForDid(card.ODid)
	return domain.LapseConf{
		// From the original deck.
		Delays:      oconf.Lapse.Delays,
		Mult:        oconf.Lapse.Mult,
		MinInt:      oconf.Lapse.MinInt,
		LeechFails:  oconf.Lapse.LeechFails,
		LeechAction: oconf.Lapse.LeechAction,
		// Overridden by the filtered deck.
		Resched: conf.Resched,
	}
}

// revConf resolves the review config for the card. Filtered decks never
// override review settings; the original deck's apply verbatim.
func (s *Scheduler) revConf(card *domain.Card) domain.RevConf {
	conf := s.cardConf(card)
	if !card.InFilteredDeck() {
		return conf.Rev
	}
	return s.decks.ConfForDid(card.ODid).Rev
}

// lrnConf picks the step schedule for a learning card: lapse steps while
// relearning, new-card steps otherwise.
func (s *Scheduler) lrnConf(card *domain.Card) stepsConf {
	if card.Type == domain.CardTypeReview || card.Type == domain.CardTypeRelearning {
		lc := s.lapseConf(card)
		return stepsConf{Delays: lc.Delays}
	}
	nc := s.newConf(card)
	return stepsConf{Delays: nc.Delays}
}

// stepsConf is the slice of learning-step delays a card is currently walking
// through, in minutes.
type stepsConf struct {
	Delays []float64
}

// previewingCard reports whether the card is shown in preview mode: a
// filtered deck that does not reschedule.
func (s *Scheduler) previewingCard(card *domain.Card) bool {
	conf := s.cardConf(card)
	return conf.Dyn && !conf.Resched
}

// previewDelaySeconds returns the delay before a previewed card is shown
// again.
func (s *Scheduler) previewDelaySeconds(card *domain.Card) int64 {
	conf := s.cardConf(card)
	delay := conf.PreviewDelay
	if delay == 0 {
		delay = 10
	}
	return int64(delay) * 60
}
