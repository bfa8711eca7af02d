package scheduler

import (
	"fmt"

	"github.com/tempodeck/tempo/internal/domain"
)

// AnswerCard applies the learner's rating to the card: the card's scheduling
// state is updated in memory and flushed, siblings are spaced, daily counters
// advance, and a revlog row is appended.
func (s *Scheduler) AnswerCard(card *domain.Card, ease int) error {
	if ease < ButtonAgain || ease > ButtonEasy {
		return fmt.Errorf("%w: ease=%d", ErrInvalidTransition, ease)
	}
	s.discardCurrentCard()

	if err := s.burySiblings(card); err != nil {
		return err
	}
	if err := s.answerCard(card, ease); err != nil {
		return err
	}

	s.updateStats(card, "time", int(card.TimeTaken(s.clock.IntTimeMS())))
	card.Mod = s.clock.IntTime()
	card.USN = s.usn()
	if err := s.store.FlushCard(card); err != nil {
		return fmt.Errorf("flushing answered card: %w", err)
	}
	return nil
}

func (s *Scheduler) answerCard(card *domain.Card, ease int) error {
	if s.previewingCard(card) {
		return s.answerCardPreview(card, ease)
	}

	card.Reps++

	if card.Queue == domain.QueueNew {
		// Moving from the new queue into learning.
		card.Queue = domain.QueueLearning
		card.Type = domain.CardTypeLearning
		card.Left = s.startingLeft(card)
		s.updateStats(card, "new", 1)
	}

	switch card.Queue {
	case domain.QueueLearning, domain.QueueDayLearn:
		if err := s.answerLrnCard(card, ease); err != nil {
			return err
		}
	case domain.QueueReview:
		if err := s.answerRevCard(card, ease); err != nil {
			return err
		}
		s.updateStats(card, "rev", 1)
	default:
		return fmt.Errorf("%w: queue=%s", ErrInvalidTransition, card.Queue)
	}

	// Once answered, the original due no longer applies.
	if card.ODue > 0 {
		card.ODue = 0
	}
	return nil
}

// answerCardPreview handles a card shown in a non-rescheduling filtered deck:
// Again cycles it back after the preview delay, Hard exits the preview.
func (s *Scheduler) answerCardPreview(card *domain.Card, ease int) error {
	switch ease {
	case ButtonAgain:
		card.Queue = domain.QueuePreview
		card.Due = s.clock.IntTime() + s.previewDelaySeconds(card)
		s.lrnCount++
	case ButtonHard:
		if err := s.restorePreviewCard(card); err != nil {
			return err
		}
		removeFromFiltered(card)
	default:
		return fmt.Errorf("%w: preview ease=%d", ErrInvalidTransition, ease)
	}
	return nil
}

// restorePreviewCard puts a previewed card back into the state it held in its
// original deck.
func (s *Scheduler) restorePreviewCard(card *domain.Card) error {
	if !card.InFilteredDeck() {
		return fmt.Errorf("%w: id=%d", ErrInvalidPreviewState, card.ID)
	}
	card.Due = card.ODue
	if card.Type == domain.CardTypeLearning || card.Type == domain.CardTypeRelearning {
		if card.ODue > 1_000_000_000 {
			// Epoch second due: still an intraday learning card.
			card.Queue = domain.QueueLearning
		} else {
			card.Queue = domain.QueueDayLearn
		}
	} else {
		card.Queue = domain.CardQueue(card.Type)
	}
	return nil
}

// --- learning cards ---

func (s *Scheduler) answerLrnCard(card *domain.Card, ease int) error {
	conf := s.lrnConf(card)
	var logType domain.RevlogType
	if card.Type == domain.CardTypeReview || card.Type == domain.CardTypeRelearning {
		logType = domain.RevlogRelearn
	} else {
		logType = domain.RevlogLearn
	}

	leaving := false
	lastLeft := card.Left

	switch ease {
	case ButtonEasy:
		// Immediate graduation.
		s.rescheduleAsRev(card, true)
		leaving = true
	case ButtonGood:
		if (card.Left%1000)-1 <= 0 {
			// Last step done.
			s.rescheduleAsRev(card, false)
			leaving = true
		} else {
			s.moveToNextStep(card, conf)
		}
	case ButtonHard:
		s.repeatStep(card, conf)
	default:
		s.moveToFirstStep(card)
	}

	s.logLrn(card, ease, conf, leaving, logType, lastLeft)
	return nil
}

func (s *Scheduler) moveToNextStep(card *domain.Card, conf stepsConf) {
	left := (card.Left % 1000) - 1
	card.Left = s.leftToday(conf.Delays, left, 0)*1000 + left
	s.rescheduleLrnCard(card, conf, 0)
}

func (s *Scheduler) repeatStep(card *domain.Card, conf stepsConf) {
	delay := delayForRepeatingGrade(conf, card.Left)
	s.rescheduleLrnCard(card, conf, delay)
}

// moveToFirstStep resets the card to the start of its step schedule. A
// relearning card's review interval takes the lapse penalty here. Returns
// the delay until the first step in seconds.
func (s *Scheduler) moveToFirstStep(card *domain.Card) int64 {
	card.Left = s.startingLeft(card)
	if card.Type == domain.CardTypeRelearning {
		s.updateRevIvlOnFail(card)
	}
	return s.rescheduleLrnCard(card, s.lrnConf(card), 0)
}

func (s *Scheduler) updateRevIvlOnFail(card *domain.Card) {
	conf := s.lapseConf(card)
	card.LastIvl = card.Ivl
	card.Ivl = lapseIvl(card, conf)
}

// rescheduleLrnCard sets the card's next showing. Same-day steps stay in the
// sub-day queue with a little fuzz; steps crossing the day boundary move to
// the day-learning queue.
func (s *Scheduler) rescheduleLrnCard(card *domain.Card, conf stepsConf, delay int64) int64 {
	if delay == 0 {
		delay = delayForGrade(conf, card.Left)
	}
	card.Due = s.clock.IntTime() + delay

	if card.Due < s.dayCutoff {
		// Spread same-step cards a little so they don't clump.
		maxExtra := min(int64(300), delay/4)
		fuzz := s.rng.Int63n(max(maxExtra, 1))
		card.Due = min(s.dayCutoff-1, card.Due+fuzz)
		card.Queue = domain.QueueLearning
		if card.Due < s.clock.IntTime()+s.collapseTime() {
			s.lrnCount++
			// Avoid showing the same card twice in a row when it is the
			// only one left.
			if !s.lrnQueue.isEmpty() && s.revCount == 0 && s.newCount == 0 {
				smallest := s.lrnQueue.firstDue()
				card.Due = max(card.Due, smallest+1)
			}
			if s.lrnQueue.filled {
				s.lrnQueue.sortInto(card.Due, card.ID)
			}
		}
	} else {
		ahead := (card.Due-s.dayCutoff)/secondsPerDay + 1
		card.Due = int64(s.today) + ahead
		card.Queue = domain.QueueDayLearn
	}
	return delay
}

// rescheduleAsRev graduates a card out of the learning queues into review.
func (s *Scheduler) rescheduleAsRev(card *domain.Card, early bool) {
	if card.Type == domain.CardTypeReview || card.Type == domain.CardTypeRelearning {
		s.rescheduleGraduatingLapse(card, early)
	} else {
		s.rescheduleNew(card, early)
	}
	if card.InFilteredDeck() {
		removeFromFiltered(card)
	}
}

func (s *Scheduler) rescheduleGraduatingLapse(card *domain.Card, early bool) {
	if early {
		card.Ivl++
	}
	card.Due = int64(s.today + card.Ivl)
	card.Queue = domain.QueueReview
	card.Type = domain.CardTypeReview
}

func (s *Scheduler) rescheduleNew(card *domain.Card, early bool) {
	conf := s.newConf(card)
	card.Ivl = s.graduatingIvl(card, conf, early, true)
	card.Due = int64(s.today + card.Ivl)
	card.Factor = conf.InitialFactor
	card.Type = domain.CardTypeReview
	card.Queue = domain.QueueReview
}

// removeFromFiltered sends the card home from a filtered deck.
func removeFromFiltered(card *domain.Card) {
	if card.InFilteredDeck() {
		card.DID = card.ODid
		card.ODue = 0
		card.ODid = 0
	}
}

// --- review cards ---

func (s *Scheduler) answerRevCard(card *domain.Card, ease int) error {
	early := card.InFilteredDeck() && card.ODue > int64(s.today)
	logType := domain.RevlogReview
	if early {
		logType = domain.RevlogEarlyReview
	}

	var delay int64
	if ease == ButtonAgain {
		delay = s.rescheduleLapse(card)
	} else {
		if err := s.rescheduleRev(card, ease, early); err != nil {
			return err
		}
	}
	s.logRev(card, ease, delay, logType)
	return nil
}

// rescheduleLapse handles Again on a review card: lapse counting, ease
// penalty, leech detection, and either relearning steps or a direct
// reschedule when no steps are configured. Returns the relearning delay in
// seconds (0 when no relearning happens).
func (s *Scheduler) rescheduleLapse(card *domain.Card) int64 {
	conf := s.lapseConf(card)

	card.Lapses++
	card.Factor = max(1300, card.Factor-200)

	suspended := s.checkLeech(card, conf) && card.Queue == domain.QueueSuspended

	if len(conf.Delays) != 0 && !suspended {
		card.Type = domain.CardTypeRelearning
		return s.moveToFirstStep(card)
	}

	// No relearning steps: reschedule directly as a review.
	s.updateRevIvlOnFail(card)
	s.rescheduleAsRev(card, false)
	if suspended {
		card.Queue = domain.QueueSuspended
	}
	return 0
}

func (s *Scheduler) rescheduleRev(card *domain.Card, ease int, early bool) error {
	card.LastIvl = card.Ivl
	if early {
		ivl, err := s.earlyReviewIvl(card, ease)
		if err != nil {
			return err
		}
		card.Ivl = ivl
	} else {
		card.Ivl = s.nextRevIvl(card, ease, true)
	}

	card.Factor = max(1300, card.Factor+factorAdditions[ease-2])
	card.Due = int64(s.today + card.Ivl)

	removeFromFiltered(card)
	return nil
}
