package scheduler

import (
	"fmt"

	"github.com/tempodeck/tempo/internal/domain"
)

// MoveToV1 rewrites the collection's card state for the v1 scheduler: all
// filtered decks are emptied, relearning collapses back into the review
// type, the two bury queues merge into one, and learning-phase revlog eases
// shift down to the three-button scale.
func (s *Scheduler) MoveToV1() error {
	if err := s.emptyAllFiltered(); err != nil {
		return err
	}
	err := s.store.Execute(
		"UPDATE cards SET type = ? WHERE type = ?",
		int(domain.CardTypeReview), int(domain.CardTypeRelearning))
	if err != nil {
		return fmt.Errorf("converting relearning cards: %w", err)
	}
	err = s.store.Execute(
		"UPDATE cards SET queue = ? WHERE queue = ?",
		int(domain.QueueSiblingBuried), int(domain.QueueManuallyBuried))
	if err != nil {
		return fmt.Errorf("merging bury queues: %w", err)
	}
	err = s.store.Execute(
		"UPDATE revlog SET ease = ease - 1 WHERE type IN (?, ?) AND ease IN (3, 4)",
		int(domain.RevlogLearn), int(domain.RevlogRelearn))
	if err != nil {
		return fmt.Errorf("shifting revlog eases: %w", err)
	}
	s.version = V1
	s.DeferReset(nil)
	return nil
}

// MoveToV2 is the inverse conversion: lapsed cards in the learning queues
// become the relearning type and learning-phase revlog eases shift up to the
// four-button scale. Buried cards stay sibling-buried and release on the
// next rollover.
func (s *Scheduler) MoveToV2() error {
	if err := s.emptyAllFiltered(); err != nil {
		return err
	}
	err := s.store.Execute(
		"UPDATE cards SET type = ? WHERE type = ? AND queue IN (?, ?)",
		int(domain.CardTypeRelearning), int(domain.CardTypeReview),
		int(domain.QueueLearning), int(domain.QueueDayLearn))
	if err != nil {
		return fmt.Errorf("converting lapsed cards: %w", err)
	}
	err = s.store.Execute(
		"UPDATE revlog SET ease = ease + 1 WHERE type IN (?, ?) AND ease IN (2, 3)",
		int(domain.RevlogLearn), int(domain.RevlogRelearn))
	if err != nil {
		return fmt.Errorf("shifting revlog eases: %w", err)
	}
	s.version = V2
	s.DeferReset(nil)
	return nil
}

// emptyAllFiltered sends every filtered card home, reconstructing both type
// and queue for cards caught mid-learning.
func (s *Scheduler) emptyAllFiltered() error {
	err := s.store.Execute(
		"UPDATE cards SET did = odid, "+
			"queue = (CASE WHEN type = 1 THEN 0 WHEN type = 3 THEN 2 ELSE type END), "+
			"type = (CASE WHEN type = 1 THEN 0 WHEN type = 3 THEN 2 ELSE type END), "+
			"due = odue, odue = 0, odid = 0, usn = ? WHERE odid != 0",
		s.usn())
	if err != nil {
		return fmt.Errorf("emptying filtered decks: %w", err)
	}
	return nil
}
