package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/tempodeck/tempo/internal/domain"
)

// lrnCard is a sub-day learning queue entry.
type lrnCard struct {
	due int64
	id  int64
}

// lrnQueue holds sub-day learning cards ordered by due. filled distinguishes
// an empty-because-drained queue from a never-filled one, so rescheduled
// cards are only sort-inserted into a live queue.
type lrnQueue struct {
	cards  []lrnCard
	filled bool
}

func (q *lrnQueue) isEmpty() bool { return len(q.cards) == 0 }

func (q *lrnQueue) clear() {
	q.cards = q.cards[:0]
	q.filled = false
}

func (q *lrnQueue) firstDue() int64 { return q.cards[0].due }

func (q *lrnQueue) removeFirst() int64 {
	id := q.cards[0].id
	q.cards = q.cards[1:]
	return id
}

func (q *lrnQueue) remove(id int64) {
	for i, c := range q.cards {
		if c.id == id {
			q.cards = append(q.cards[:i], q.cards[i+1:]...)
			return
		}
	}
}

func (q *lrnQueue) add(due, id int64) {
	q.cards = append(q.cards, lrnCard{due: due, id: id})
}

func (q *lrnQueue) sort() {
	sort.SliceStable(q.cards, func(i, j int) bool {
		return q.cards[i].due < q.cards[j].due
	})
}

// sortInto inserts the card at its sorted position.
func (q *lrnQueue) sortInto(due, id int64) {
	i := sort.Search(len(q.cards), func(i int) bool {
		return q.cards[i].due > due
	})
	q.cards = append(q.cards, lrnCard{})
	copy(q.cards[i+1:], q.cards[i:])
	q.cards[i] = lrnCard{due: due, id: id}
}

// ids2str renders an id list as a SQL "(1,2,3)" tuple.
func ids2str(ids []int64) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", id)
	}
	b.WriteByte(')')
	return b.String()
}

func (s *Scheduler) activeDeckSet() string {
	return ids2str(s.decks.Active())
}

// --- counts ---

func (s *Scheduler) resetLrnCount(ctx context.Context) error {
	cutoff := s.clock.IntTime() + s.collapseTime()
	deckSet := s.activeDeckSet()
	cur := s.currentCardID()

	// Sub-day learning.
	subDay, err := s.store.QueryScalar(
		"SELECT count() FROM cards WHERE did IN "+deckSet+" AND queue = ? AND due < ? AND id != ?",
		int(domain.QueueLearning), cutoff, cur)
	if err != nil {
		return fmt.Errorf("counting learning cards: %w", err)
	}
	if ctx.Err() != nil {
		return ErrCancelled
	}

	// Day learning.
	day, err := s.store.QueryScalar(
		"SELECT count() FROM cards WHERE did IN "+deckSet+" AND queue = ? AND due <= ? AND id != ?",
		int(domain.QueueDayLearn), s.today, cur)
	if err != nil {
		return fmt.Errorf("counting day-learning cards: %w", err)
	}
	if ctx.Err() != nil {
		return ErrCancelled
	}

	// Previews.
	previews, err := s.store.QueryScalar(
		"SELECT count() FROM cards WHERE did IN "+deckSet+" AND queue = ? AND id != ?",
		int(domain.QueuePreview), cur)
	if err != nil {
		return fmt.Errorf("counting preview cards: %w", err)
	}

	s.lrnCount = int(subDay + day + previews)
	return nil
}

func (s *Scheduler) resetRevCount(ctx context.Context) error {
	cnt, err := s.walkingCount(ctx,
		func(d *domain.Deck) int { return s.deckRevLimitSingle(d, -1, true) },
		s.cntFnRev)
	if err != nil {
		return err
	}
	s.revCount = cnt
	return nil
}

func (s *Scheduler) cntFnRev(did int64, lim int) (int, error) {
	n, err := s.store.QueryScalar(
		"SELECT count() FROM (SELECT id FROM cards WHERE did = ? AND queue = ? AND due <= ? AND id != ? LIMIT ?)",
		did, int(domain.QueueReview), s.today, s.currentCardID(), lim)
	if err != nil {
		return 0, fmt.Errorf("counting review cards in deck %d: %w", did, err)
	}
	return int(n), nil
}

func (s *Scheduler) resetNewCount(ctx context.Context) error {
	cnt, err := s.walkingCount(ctx,
		func(d *domain.Deck) int { return s.deckNewLimitSingle(d, true) },
		s.cntFnNew)
	if err != nil {
		return err
	}
	s.newCount = cnt
	return nil
}

func (s *Scheduler) cntFnNew(did int64, lim int) (int, error) {
	n, err := s.store.QueryScalar(
		"SELECT count() FROM (SELECT 1 FROM cards WHERE did = ? AND queue = ? AND id != ? LIMIT ?)",
		did, int(domain.QueueNew), s.currentCardID(), lim)
	if err != nil {
		return 0, fmt.Errorf("counting new cards in deck %d: %w", did, err)
	}
	return int(n), nil
}

// --- queue resets ---

func (s *Scheduler) resetLrnQueue() {
	s.lrnQueue.clear()
	s.lrnDayQueue = s.lrnDayQueue[:0]
	s.lrnDids = append([]int64{}, s.decks.Active()...)
	s.lrnCutoff = s.clock.IntTime() + s.collapseTime()
}

func (s *Scheduler) resetRevQueue() {
	s.revQueue = s.revQueue[:0]
}

func (s *Scheduler) resetNewQueue() {
	s.newQueue = s.newQueue[:0]
	s.newDids = append([]int64{}, s.decks.Active()...)
	s.updateNewCardModulus()
}

// updateNewCardModulus recomputes the distribution modulus for interleaving
// new cards between reviews.
func (s *Scheduler) updateNewCardModulus() {
	if s.conf.GetInt(confKeyNewSpread, NewCardsDistribute) == NewCardsDistribute && s.newCount != 0 {
		s.newCardModulus = (s.newCount + s.revCount) / s.newCount
		if s.revCount != 0 {
			s.newCardModulus = max(2, s.newCardModulus)
		}
	} else {
		s.newCardModulus = 0
	}
}

// --- fills ---

// fillNew walks the active decks looking for new cards within limits.
// Siblings of the current card are excluded; if that exclusion empties the
// queue while the count says cards remain, the fill retries excluding only
// the current card itself.
func (s *Scheduler) fillNew(allowSibling bool) (bool, error) {
	if len(s.newQueue) > 0 {
		return true, nil
	}
	if s.haveCounts && s.newCount == 0 {
		return false, nil
	}
	for len(s.newDids) > 0 {
		did := s.newDids[0]
		lim := min(queueLimit, s.deckNewLimit(did, true))
		if lim != 0 {
			idCol, excluded := "nid", s.currentCardNID()
			if allowSibling {
				idCol, excluded = "id", s.currentCardID()
			}
			ids, err := s.store.QueryLongList(
				"SELECT id FROM cards WHERE did = ? AND queue = ? AND "+idCol+" != ? ORDER BY due, ord LIMIT ?",
				did, int(domain.QueueNew), excluded, lim)
			if err != nil {
				return false, fmt.Errorf("filling new queue: %w", err)
			}
			if len(ids) > 0 {
				s.newQueue = ids
				return true, nil
			}
		}
		// Deck exhausted for today; move to the next one.
		s.newDids = s.newDids[1:]
	}
	if !allowSibling && s.haveCounts && s.newCount != 0 {
		// Cards remain but every deck filtered to nothing: the exclusion
		// was too strict. Retry once allowing same-note siblings.
		s.resetNewQueue()
		return s.fillNew(true)
	}
	return false, nil
}

func (s *Scheduler) getNewCard() (*domain.Card, error) {
	ok, err := s.fillNew(false)
	if err != nil || !ok {
		return nil, err
	}
	id := s.newQueue[0]
	s.newQueue = s.newQueue[1:]
	return s.store.GetCard(id)
}

// updateLrnCutoff advances the learning cutoff when it has drifted by more
// than a minute, forcing a queue rebuild so newly-due cards surface.
func (s *Scheduler) updateLrnCutoff(force bool) bool {
	next := s.clock.IntTime() + s.collapseTime()
	if next-s.lrnCutoff > 60 || force {
		s.lrnCutoff = next
		return true
	}
	return false
}

func (s *Scheduler) maybeResetLrn(force bool) {
	if s.updateLrnCutoff(force) {
		s.resetLrnQueue()
	}
}

func (s *Scheduler) fillLrn() (bool, error) {
	if s.haveCounts && s.lrnCount == 0 {
		return false, nil
	}
	if !s.lrnQueue.isEmpty() {
		return true, nil
	}
	cutoff := s.clock.IntTime() + s.collapseTime()
	rows, err := s.store.Query(
		"SELECT due, id FROM cards WHERE did IN "+s.activeDeckSet()+
			" AND queue IN (?, ?) AND due < ? AND id != ? LIMIT ?",
		int(domain.QueueLearning), int(domain.QueuePreview), cutoff, s.currentCardID(), reportLimit)
	if err != nil {
		return false, fmt.Errorf("filling learning queue: %w", err)
	}
	defer rows.Close()
	s.lrnQueue.clear()
	for rows.Next() {
		var due, id int64
		if err := rows.Scan(&due, &id); err != nil {
			return false, fmt.Errorf("scanning learning card: %w", err)
		}
		s.lrnQueue.add(due, id)
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("filling learning queue: %w", err)
	}
	s.lrnQueue.sort()
	s.lrnQueue.filled = true
	return !s.lrnQueue.isEmpty(), nil
}

func (s *Scheduler) getLrnCard(collapse bool) (*domain.Card, error) {
	s.maybeResetLrn(collapse && s.lrnCount == 0)
	ok, err := s.fillLrn()
	if err != nil || !ok {
		return nil, err
	}
	cutoff := s.clock.IntTime()
	if collapse {
		cutoff += s.collapseTime()
	}
	if s.lrnQueue.firstDue() < cutoff {
		return s.store.GetCard(s.lrnQueue.removeFirst())
	}
	return nil, nil
}

// fillLrnDay fetches today's day-learning cards deck by deck, shuffled
// deterministically by the day index.
func (s *Scheduler) fillLrnDay() (bool, error) {
	if s.haveCounts && s.lrnCount == 0 {
		return false, nil
	}
	if len(s.lrnDayQueue) > 0 {
		return true, nil
	}
	for len(s.lrnDids) > 0 {
		did := s.lrnDids[0]
		ids, err := s.store.QueryLongList(
			"SELECT id FROM cards WHERE did = ? AND queue = ? AND due <= ? AND id != ? LIMIT ?",
			did, int(domain.QueueDayLearn), s.today, s.currentCardID(), queueLimit)
		if err != nil {
			return false, fmt.Errorf("filling day-learning queue: %w", err)
		}
		if len(ids) > 0 {
			// Reproducible order for the day.
			r := rand.New(rand.NewSource(int64(s.today)))
			r.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
			s.lrnDayQueue = ids
			if len(ids) < queueLimit {
				// Deck is drained; advance the rotation.
				s.lrnDids = s.lrnDids[1:]
			}
			return true, nil
		}
		s.lrnDids = s.lrnDids[1:]
	}
	return false, nil
}

func (s *Scheduler) getLrnDayCard() (*domain.Card, error) {
	ok, err := s.fillLrnDay()
	if err != nil || !ok {
		return nil, err
	}
	id := s.lrnDayQueue[len(s.lrnDayQueue)-1]
	s.lrnDayQueue = s.lrnDayQueue[:len(s.lrnDayQueue)-1]
	return s.store.GetCard(id)
}

// fillRev fetches due review cards across the whole active set, bounded by
// the selected deck's limit, ordered by due with random tie-break.
func (s *Scheduler) fillRev(allowSibling bool) (bool, error) {
	if len(s.revQueue) > 0 {
		return true, nil
	}
	if s.haveCounts && s.revCount == 0 {
		return false, nil
	}
	lim := min(queueLimit, s.currentRevLimit(true))
	if lim != 0 {
		idCol, excluded := "nid", s.currentCardNID()
		if allowSibling {
			idCol, excluded = "id", s.currentCardID()
		}
		ids, err := s.store.QueryLongList(
			"SELECT id FROM cards WHERE did IN "+s.activeDeckSet()+
				" AND queue = ? AND due <= ? AND "+idCol+" != ? ORDER BY due, random() LIMIT ?",
			int(domain.QueueReview), s.today, excluded, lim)
		if err != nil {
			return false, fmt.Errorf("filling review queue: %w", err)
		}
		if len(ids) > 0 {
			s.revQueue = ids
			return true, nil
		}
	}
	if !allowSibling && s.haveCounts && s.revCount != 0 {
		s.resetRevQueue()
		return s.fillRev(true)
	}
	return false, nil
}

func (s *Scheduler) getRevCard() (*domain.Card, error) {
	ok, err := s.fillRev(false)
	if err != nil || !ok {
		return nil, err
	}
	id := s.revQueue[0]
	s.revQueue = s.revQueue[1:]
	return s.store.GetCard(id)
}

// removeFromQueues drops the card id from every in-memory buffer.
func (s *Scheduler) removeFromQueues(id int64) {
	for i, cid := range s.newQueue {
		if cid == id {
			s.newQueue = append(s.newQueue[:i], s.newQueue[i+1:]...)
			break
		}
	}
	s.lrnQueue.remove(id)
	for i, cid := range s.lrnDayQueue {
		if cid == id {
			s.lrnDayQueue = append(s.lrnDayQueue[:i], s.lrnDayQueue[i+1:]...)
			break
		}
	}
	for i, cid := range s.revQueue {
		if cid == id {
			s.revQueue = append(s.revQueue[:i], s.revQueue[i+1:]...)
			break
		}
	}
}
