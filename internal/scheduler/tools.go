package scheduler

import (
	"fmt"

	"github.com/tempodeck/tempo/internal/domain"
)

// ForgetCards resets the cards to brand-new state and places them at the end
// of the new-card queue.
func (s *Scheduler) ForgetCards(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.removeCardsFromDyn(ids); err != nil {
		return err
	}
	err := s.store.Execute(
		"UPDATE cards SET type = ?, queue = ?, ivl = 0, due = 0, odue = 0, factor = ? WHERE id IN "+ids2str(ids),
		int(domain.CardTypeNew), int(domain.QueueNew), domain.StartingFactor)
	if err != nil {
		return fmt.Errorf("forgetting cards: %w", err)
	}
	maxDue, err := s.store.QueryScalar(
		"SELECT max(due) FROM cards WHERE type = ?", int(domain.CardTypeNew))
	if err != nil {
		return fmt.Errorf("finding max new position: %w", err)
	}
	return s.SortCards(ids, int(maxDue)+1, 1, false, false)
}

// ReschedCards turns the cards into review cards due a uniformly random
// number of days from today within [imin, imax].
func (s *Scheduler) ReschedCards(ids []int64, imin, imax int) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.removeCardsFromDyn(ids); err != nil {
		return err
	}
	mod := s.clock.IntTime()
	u := s.usn()
	sets := make([][]any, 0, len(ids))
	for _, id := range ids {
		r := imin
		if imax > imin {
			r += s.rng.Intn(imax - imin + 1)
		}
		sets = append(sets, []any{max(1, r), r + s.today, u, mod, domain.StartingFactor, id})
	}
	err := s.store.ExecuteMany(
		"UPDATE cards SET type = ?, queue = ?, ivl = ?, due = ?, odue = 0, usn = ?, mod = ?, factor = ? WHERE id = ?",
		prepend(sets, int(domain.CardTypeReview), int(domain.QueueReview)))
	if err != nil {
		return fmt.Errorf("rescheduling cards: %w", err)
	}
	return nil
}

// prepend adds fixed leading arguments to every arg set.
func prepend(sets [][]any, lead ...any) [][]any {
	out := make([][]any, len(sets))
	for i, set := range sets {
		row := make([]any, 0, len(lead)+len(set))
		row = append(row, lead...)
		row = append(row, set...)
		out[i] = row
	}
	return out
}

// SortCards repositions new cards. Cards are grouped by note in first-seen
// order; each note gets a due of start + i*step, optionally shuffled. With
// shift, existing new cards at or past start (and not in the set) are pushed
// up out of the way.
func (s *Scheduler) SortCards(cids []int64, start, step int, shuffle, shift bool) error {
	if len(cids) == 0 {
		return nil
	}
	scids := ids2str(cids)
	now := s.clock.IntTime()
	u := s.usn()

	// Note ids in the order their first card appears.
	type cardNote struct{ id, nid int64 }
	var cards []cardNote
	var nids []int64
	seen := map[int64]bool{}
	rows, err := s.store.Query(
		"SELECT id, nid FROM cards WHERE type = ? AND id IN "+scids+" ORDER BY nid",
		int(domain.CardTypeNew))
	if err != nil {
		return fmt.Errorf("loading cards to sort: %w", err)
	}
	defer rows.Close()
	byID := map[int64]int64{}
	for rows.Next() {
		var cn cardNote
		if err := rows.Scan(&cn.id, &cn.nid); err != nil {
			return fmt.Errorf("scanning card to sort: %w", err)
		}
		byID[cn.id] = cn.nid
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("loading cards to sort: %w", err)
	}
	for _, cid := range cids {
		nid, ok := byID[cid]
		if !ok {
			continue
		}
		cards = append(cards, cardNote{id: cid, nid: nid})
		if !seen[nid] {
			seen[nid] = true
			nids = append(nids, nid)
		}
	}
	if len(nids) == 0 {
		// No new cards in the set.
		return nil
	}

	if shuffle {
		s.rng.Shuffle(len(nids), func(i, j int) { nids[i], nids[j] = nids[j], nids[i] })
	}
	due := map[int64]int{}
	for i, nid := range nids {
		due[nid] = start + i*step
	}
	high := start + step*(len(nids)-1)

	if shift {
		low, err := s.store.QueryScalar(
			"SELECT coalesce(min(due), 0) FROM cards WHERE due >= ? AND type = ? AND id NOT IN "+scids,
			start, int(domain.CardTypeNew))
		if err != nil {
			return fmt.Errorf("finding shift point: %w", err)
		}
		if low != 0 {
			shiftBy := high - int(low) + 1
			err := s.store.Execute(
				"UPDATE cards SET mod = ?, usn = ?, due = due + ? WHERE id NOT IN "+scids+" AND due >= ? AND type = ?",
				now, u, shiftBy, low, int(domain.CardTypeNew))
			if err != nil {
				return fmt.Errorf("shifting existing cards: %w", err)
			}
		}
	}

	sets := make([][]any, 0, len(cards))
	for _, cn := range cards {
		sets = append(sets, []any{due[cn.nid], now, u, cn.id})
	}
	if err := s.store.ExecuteMany(
		"UPDATE cards SET due = ?, mod = ?, usn = ? WHERE id = ?", sets); err != nil {
		return fmt.Errorf("sorting cards: %w", err)
	}
	return nil
}

// RandomizeCards shuffles the new-card order of a deck.
func (s *Scheduler) RandomizeCards(did int64) error {
	return s.sortDeck(did, true)
}

// OrderCards sorts a deck's new cards by note id.
func (s *Scheduler) OrderCards(did int64) error {
	return s.sortDeck(did, false)
}

func (s *Scheduler) sortDeck(did int64, shuffle bool) error {
	cids, err := s.store.QueryLongList(
		"SELECT id FROM cards WHERE type = ? AND did = ? ORDER BY nid",
		int(domain.CardTypeNew), did)
	if err != nil {
		return fmt.Errorf("loading deck cards to sort: %w", err)
	}
	return s.SortCards(cids, 1, 1, shuffle, false)
}

// ResortConf reorders the new cards of every deck using the config when its
// new-card order changes.
func (s *Scheduler) ResortConf(conf *domain.DeckConfig) error {
	for _, deck := range s.decks.All() {
		if deck.Dyn || deck.ConfID != conf.ID {
			continue
		}
		var err error
		if conf.New.Order == domain.NewCardsRandom {
			err = s.RandomizeCards(deck.ID)
		} else {
			err = s.OrderCards(deck.ID)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
