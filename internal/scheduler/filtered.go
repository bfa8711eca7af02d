package scheduler

import (
	"fmt"
	"strings"

	"github.com/tempodeck/tempo/internal/domain"
)

// dynStartDue is the first due position assigned to gathered cards, far below
// any real new-card position so gathered order wins.
const dynStartDue = -100000

// RebuildDyn empties and regathers a filtered deck, then selects it. Returns
// the number of cards gathered.
func (s *Scheduler) RebuildDyn(did int64) (int, error) {
	deck := s.decks.Get(did)
	if deck == nil || !deck.Dyn {
		return 0, fmt.Errorf("%w: deck=%d", ErrNotDynamic, did)
	}
	if err := s.EmptyDyn(did); err != nil {
		return 0, err
	}
	cnt, err := s.fillDyn(deck)
	if err != nil {
		return 0, err
	}
	if cnt == 0 {
		return 0, nil
	}
	if err := s.decks.Select(did); err != nil {
		return 0, fmt.Errorf("selecting rebuilt deck: %w", err)
	}
	return cnt, nil
}

// fillDyn runs each gathering term in sequence, assigning consecutive due
// positions across terms.
func (s *Scheduler) fillDyn(deck *domain.Deck) (int, error) {
	start := dynStartDue
	total := 0
	for _, term := range deck.Terms {
		search := strings.TrimSpace(term.Search)
		if search != "" {
			search = "(" + search + ")"
		}
		search += " -is:suspended -is:buried -deck:filtered"

		ids, err := s.store.FindCards(search, s.dynOrder(term.Order), term.Limit)
		if err != nil {
			return total, fmt.Errorf("gathering filtered deck %d: %w", deck.ID, err)
		}
		if len(ids) == 0 {
			return total, nil
		}
		if err := s.moveToDyn(deck, ids, start+total); err != nil {
			return total, err
		}
		total += len(ids)
	}
	return total, nil
}

// dynOrder renders the order clause for a gathering term. DuePriority ranks
// overdue reviews by urgency (small interval, long overdue first) and pushes
// everything else behind them.
func (s *Scheduler) dynOrder(order domain.FilterOrder) string {
	switch order {
	case domain.OrderOldestMod:
		return "c.mod"
	case domain.OrderRandom:
		return "random()"
	case domain.OrderIvlAsc:
		return "ivl"
	case domain.OrderIvlDesc:
		return "ivl DESC"
	case domain.OrderLapsesDesc:
		return "lapses DESC"
	case domain.OrderNoteIDAsc:
		return "n.id"
	case domain.OrderNoteIDDesc:
		return "n.id DESC"
	case domain.OrderDuePriority:
		return fmt.Sprintf(
			"(CASE WHEN queue = %d AND due <= %d THEN (ivl / CAST(%d - due + 0.001 AS real)) ELSE 100000 + due END)",
			int(domain.QueueReview), s.today, s.today)
	default:
		// OrderDue.
		return "c.due"
	}
}

// moveToDyn relocates the gathered cards into the filtered deck, remembering
// their original deck and due. Cards with non-positive due (new-card
// positions) keep it; others take the assigned gathering position. In a
// non-rescheduling deck every card is shown as a review.
func (s *Scheduler) moveToDyn(deck *domain.Deck, ids []int64, start int) error {
	queueClause := ""
	if !deck.Resched {
		queueClause = fmt.Sprintf(", queue = %d", int(domain.QueueReview))
	}
	u := s.usn()
	due := start
	sets := make([][]any, 0, len(ids))
	for _, id := range ids {
		sets = append(sets, []any{deck.ID, due, u, id})
		due++
	}
	err := s.store.ExecuteMany(
		"UPDATE cards SET odid = did, odue = due, did = ?, "+
			"due = (CASE WHEN due <= 0 THEN due ELSE ? END), usn = ?"+queueClause+" WHERE id = ?",
		sets)
	if err != nil {
		return fmt.Errorf("moving cards into filtered deck %d: %w", deck.ID, err)
	}
	return nil
}

// EmptyDyn returns every card in the filtered deck to its original deck.
func (s *Scheduler) EmptyDyn(did int64) error {
	deck := s.decks.Get(did)
	if deck == nil || !deck.Dyn {
		return fmt.Errorf("%w: deck=%d", ErrNotDynamic, did)
	}
	return s.emptyDynWhere(fmt.Sprintf("did = %d", did))
}

// emptyDynWhere restores all filtered cards matching the condition: original
// deck and due come back, and the queue is reconstructed from type and due.
func (s *Scheduler) emptyDynWhere(cond string) error {
	err := s.store.Execute(
		"UPDATE cards SET did = odid, "+restoreQueueSnippet+", "+
			"due = (CASE WHEN odue > 0 THEN odue ELSE due END), "+
			"odue = 0, odid = 0, usn = ? WHERE "+cond,
		s.usn())
	if err != nil {
		return fmt.Errorf("emptying filtered cards: %w", err)
	}
	return nil
}

// removeCardsFromDyn sends specific cards home from whatever filtered decks
// hold them.
func (s *Scheduler) removeCardsFromDyn(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.emptyDynWhere("id IN " + ids2str(ids) + " AND odid != 0")
}
