package scheduler

import (
	"fmt"

	"github.com/tempodeck/tempo/internal/domain"
)

// burySiblings spaces out cards of the same note: every new or due-review
// sibling is pulled from the in-memory queues so it cannot appear today, and
// additionally buried when the deck config asks for it.
func (s *Scheduler) burySiblings(card *domain.Card) error {
	buryNew := s.newConf(card).Bury
	buryRev := s.revConf(card).Bury

	rows, err := s.store.Query(
		"SELECT id, queue FROM cards WHERE nid = ? AND id != ? AND (queue = ? OR (queue = ? AND due <= ?))",
		card.NID, card.ID, int(domain.QueueNew), int(domain.QueueReview), s.today)
	if err != nil {
		return fmt.Errorf("scanning siblings: %w", err)
	}
	defer rows.Close()

	var toBury []int64
	for rows.Next() {
		var cid int64
		var queue int
		if err := rows.Scan(&cid, &queue); err != nil {
			return fmt.Errorf("scanning sibling: %w", err)
		}
		if domain.CardQueue(queue) == domain.QueueReview {
			if buryRev {
				toBury = append(toBury, cid)
			}
			for i, id := range s.revQueue {
				if id == cid {
					s.revQueue = append(s.revQueue[:i], s.revQueue[i+1:]...)
					break
				}
			}
		} else {
			if buryNew {
				toBury = append(toBury, cid)
			}
			for i, id := range s.newQueue {
				if id == cid {
					s.newQueue = append(s.newQueue[:i], s.newQueue[i+1:]...)
					break
				}
			}
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("scanning siblings: %w", err)
	}

	if len(toBury) > 0 {
		return s.BuryCards(toBury, false)
	}
	return nil
}
