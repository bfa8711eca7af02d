package scheduler

import (
	"log/slog"
	"time"

	"github.com/tempodeck/tempo/internal/domain"
)

// log appends a revision-log row keyed by the current millisecond. Two
// answers within the same millisecond collide on the primary key; the retry
// waits out the clock and stamps afresh.
func (s *Scheduler) log(cid int64, usn, ease, ivl, lastIvl, factor int, timeTaken int64, typ domain.RevlogType) {
	err := s.store.Execute(
		"INSERT INTO revlog VALUES (?,?,?,?,?,?,?,?,?)",
		s.clock.IntTimeMS(), cid, usn, ease, ivl, lastIvl, factor, timeTaken, int(typ))
	if err == nil {
		return
	}
	time.Sleep(10 * time.Millisecond)
	err = s.store.Execute(
		"INSERT INTO revlog VALUES (?,?,?,?,?,?,?,?,?)",
		s.clock.IntTimeMS(), cid, usn, ease, ivl, lastIvl, factor, timeTaken, int(typ))
	if err != nil {
		slog.Error("appending revlog entry failed", "cid", cid, "error", err)
	}
}

// logLrn records a learning answer. Intervals still inside the step schedule
// are stored as negative seconds to distinguish them from day intervals.
func (s *Scheduler) logLrn(card *domain.Card, ease int, conf stepsConf, leaving bool, typ domain.RevlogType, lastLeft int) {
	lastIvl := -int(delayForGrade(conf, lastLeft))
	ivl := card.Ivl
	if !leaving {
		ivl = -int(delayForGrade(conf, card.Left))
	}
	s.log(card.ID, s.usn(), ease, ivl, lastIvl, card.Factor,
		card.TimeTaken(s.clock.IntTimeMS()), typ)
}

// logRev records a review answer. A lapse into relearning stores the
// relearning delay as a negative interval.
func (s *Scheduler) logRev(card *domain.Card, ease int, delay int64, typ domain.RevlogType) {
	ivl := card.Ivl
	if delay != 0 {
		ivl = -int(delay)
	}
	s.log(card.ID, s.usn(), ease, ivl, card.LastIvl, card.Factor,
		card.TimeTaken(s.clock.IntTimeMS()), typ)
}
