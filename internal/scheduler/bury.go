package scheduler

import (
	"fmt"

	"github.com/tempodeck/tempo/internal/domain"
)

// restoreQueueSnippet reconstructs a card's queue from its type and due:
// (re)learning cards go back to the sub-day queue when their (original) due
// is an epoch second, to the day-learning queue otherwise; all other types
// map straight to the queue of the same value.
const restoreQueueSnippet = "queue = (CASE WHEN type IN (1,3) THEN " +
	"(CASE WHEN (CASE WHEN odue THEN odue ELSE due END) > 1000000000 THEN 1 ELSE 3 END) " +
	"ELSE type END)"

// queueIsBuriedSnippet matches both bury queues.
const queueIsBuriedSnippet = "queue IN (-2, -3)"

// UnburyKind selects which buried cards an unbury operation touches.
type UnburyKind int

const (
	UnburyAll UnburyKind = iota
	UnburyManual
	UnburySiblings
)

// BuryCards moves the cards out of their queues until unburied; manual burial
// survives day rollover, sibling burial does not.
func (s *Scheduler) BuryCards(ids []int64, manual bool) error {
	if len(ids) == 0 {
		return nil
	}
	queue := domain.QueueSiblingBuried
	if manual {
		queue = domain.QueueManuallyBuried
	}
	// v1 has a single bury queue.
	if s.version == V1 {
		queue = domain.QueueSiblingBuried
	}
	for _, id := range ids {
		s.removeFromQueues(id)
	}
	err := s.store.Execute(
		"UPDATE cards SET queue = ?, mod = ?, usn = ? WHERE id IN "+ids2str(ids),
		int(queue), s.clock.IntTime(), s.usn())
	if err != nil {
		return fmt.Errorf("burying cards: %w", err)
	}
	return nil
}

// BuryNote buries every reviewable card of the note.
func (s *Scheduler) BuryNote(nid int64) error {
	ids, err := s.store.QueryLongList(
		"SELECT id FROM cards WHERE nid = ? AND queue >= ?", nid, int(domain.QueueNew))
	if err != nil {
		return fmt.Errorf("finding note cards to bury: %w", err)
	}
	return s.BuryCards(ids, true)
}

// SuspendCards takes the cards out of circulation until unsuspended.
func (s *Scheduler) SuspendCards(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		s.removeFromQueues(id)
	}
	err := s.store.Execute(
		"UPDATE cards SET queue = ?, mod = ?, usn = ? WHERE id IN "+ids2str(ids),
		int(domain.QueueSuspended), s.clock.IntTime(), s.usn())
	if err != nil {
		return fmt.Errorf("suspending cards: %w", err)
	}
	return nil
}

// UnsuspendCards returns suspended cards to the queue their type and due
// imply.
func (s *Scheduler) UnsuspendCards(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.store.Execute(
		"UPDATE cards SET "+restoreQueueSnippet+", mod = ?, usn = ? WHERE queue = ? AND id IN "+ids2str(ids),
		s.clock.IntTime(), s.usn(), int(domain.QueueSuspended))
	if err != nil {
		return fmt.Errorf("unsuspending cards: %w", err)
	}
	return nil
}

// UnburyCardsForDeck restores buried cards of the given kind in the decks.
func (s *Scheduler) UnburyCardsForDeck(kind UnburyKind, dids []int64) error {
	var cond string
	switch kind {
	case UnburyAll:
		cond = queueIsBuriedSnippet
	case UnburyManual:
		cond = fmt.Sprintf("queue = %d", int(domain.QueueManuallyBuried))
	case UnburySiblings:
		cond = fmt.Sprintf("queue = %d", int(domain.QueueSiblingBuried))
	default:
		return fmt.Errorf("unknown unbury kind %d", kind)
	}
	err := s.store.Execute(
		"UPDATE cards SET "+restoreQueueSnippet+", mod = ?, usn = ? WHERE "+cond+" AND did IN "+ids2str(dids),
		s.clock.IntTime(), s.usn())
	if err != nil {
		return fmt.Errorf("unburying cards: %w", err)
	}
	return nil
}

// HaveBuried reports whether any active deck holds buried cards.
func (s *Scheduler) HaveBuried() (bool, error) {
	cnt, err := s.store.QueryScalar(
		"SELECT count() FROM cards WHERE "+queueIsBuriedSnippet+" AND did IN "+s.activeDeckSet()+" LIMIT 1")
	if err != nil {
		return false, fmt.Errorf("checking for buried cards: %w", err)
	}
	return cnt > 0, nil
}
