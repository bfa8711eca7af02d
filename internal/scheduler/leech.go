package scheduler

import (
	"log/slog"

	"github.com/tempodeck/tempo/internal/domain"
)

// LeechTag is added to a note whose card keeps lapsing.
const LeechTag = "leech"

// checkLeech tags and optionally suspends a card whose lapse count has
// crossed the configured threshold. After the first detection it fires again
// every half-threshold lapses. Returns true iff a leech was detected.
func (s *Scheduler) checkLeech(card *domain.Card, conf domain.LapseConf) bool {
	lf := conf.LeechFails
	if lf == 0 {
		return false
	}
	if card.Lapses < lf || (card.Lapses-lf)%max(lf/2, 1) != 0 {
		return false
	}

	if err := s.notes.AddTag(card.NID, LeechTag); err != nil {
		slog.Warn("tagging leech note failed", "nid", card.NID, "error", err)
	}
	if conf.LeechAction == domain.LeechSuspend {
		card.Queue = domain.QueueSuspended
	}
	if s.onLeech != nil {
		s.onLeech(card)
	}
	return true
}
