package scheduler

import (
	"fmt"
	"log/slog"

	"github.com/tempodeck/tempo/internal/domain"
)

// fuzzRange returns the inclusive [min, max] interval band an interval may be
// perturbed within. Tiny intervals get no or minimal fuzz; wider intervals a
// progressively smaller fraction, never less than a day.
func fuzzRange(ivl int) (int, int) {
	if ivl < 2 {
		return 1, 1
	}
	if ivl == 2 {
		return 2, 3
	}
	var fuzz float64
	switch {
	case ivl < 7:
		fuzz = float64(ivl) * 0.25
	case ivl < 30:
		fuzz = max(2, float64(ivl)*0.15)
	default:
		fuzz = max(4, float64(ivl)*0.05)
	}
	fuzz = max(fuzz, 1)
	return ivl - int(fuzz), ivl + int(fuzz)
}

// fuzzedIvl samples a uniformly random interval from the card's fuzz range.
func (s *Scheduler) fuzzedIvl(ivl int) int {
	lo, hi := fuzzRange(ivl)
	if hi <= lo {
		return lo
	}
	return lo + s.rng.Intn(hi-lo+1)
}

// constrainedIvl scales the raw interval by the deck's interval factor,
// optionally fuzzes it, forces it past the previous interval, and caps it at
// the deck maximum.
func (s *Scheduler) constrainedIvl(rawIvl float64, conf domain.RevConf, prev int, fuzz bool) int {
	fct := conf.IvlFct
	if fct == 0 {
		fct = 1
	}
	ivl := int(rawIvl * fct)
	if fuzz {
		ivl = s.fuzzedIvl(ivl)
	}
	ivl = max(ivl, prev+1, 1)
	ivl = min(ivl, conf.MaxIvl)
	return ivl
}

// daysLate returns how many days overdue the card is. For a card in a
// filtered deck the original due applies.
func (s *Scheduler) daysLate(card *domain.Card) int64 {
	due := card.Due
	if card.InFilteredDeck() {
		due = card.ODue
	}
	return max(0, int64(s.today)-due)
}

// nextRevIvl computes the next interval for a successful review. Each ease's
// interval is constrained to exceed the previous ease's, so intervals are
// non-decreasing in ease.
func (s *Scheduler) nextRevIvl(card *domain.Card, ease int, fuzz bool) int {
	delay := s.daysLate(card)
	conf := s.revConf(card)
	fct := float64(card.Factor) / 1000

	hardFactor := conf.HardFactor
	if hardFactor == 0 {
		hardFactor = 1.2
	}
	hardMin := 0
	if hardFactor > 1 {
		hardMin = card.Ivl
	}

	ivl2 := s.constrainedIvl(float64(card.Ivl)*hardFactor, conf, hardMin, fuzz)
	if ease == ButtonHard {
		return ivl2
	}

	ivl3 := s.constrainedIvl((float64(card.Ivl)+float64(delay)/2)*fct, conf, ivl2, fuzz)
	if ease == ButtonGood {
		return ivl3
	}

	return s.constrainedIvl((float64(card.Ivl)+float64(delay))*fct*conf.Ease4, conf, ivl3, fuzz)
}

// lapseIvl computes the post-lapse interval: the old interval scaled down by
// the lapse multiplier, floored by the configured minimum and one day.
func lapseIvl(card *domain.Card, conf domain.LapseConf) int {
	ivl := max(1, conf.MinInt, int(float64(card.Ivl)*conf.Mult))
	return ivl
}

// graduatingIvl computes the first review interval for a card leaving the
// learning queues. Relearning cards resume their old interval (plus one when
// graduating early); new cards take the configured graduate or easy interval.
func (s *Scheduler) graduatingIvl(card *domain.Card, conf domain.NewConf, early bool, fuzz bool) int {
	if card.Type == domain.CardTypeReview || card.Type == domain.CardTypeRelearning {
		bonus := 0
		if early {
			bonus = 1
		}
		return card.Ivl + bonus
	}
	var ideal int
	if !early {
		// Graduate.
		ideal = intsAt(conf.Ints, 0, 1)
	} else {
		// Early removal (Easy).
		ideal = intsAt(conf.Ints, 1, 4)
	}
	if fuzz {
		ideal = s.fuzzedIvl(ideal)
	}
	return ideal
}

// intsAt reads conf.ints[idx], degrading to the given default.
func intsAt(ints []int, idx, def int) int {
	if idx < len(ints) {
		return ints[idx]
	}
	slog.Warn("deck config ints too short", "len", len(ints), "idx", idx)
	return def
}

// earlyReviewIvl computes the interval for a review answered ahead of
// schedule in a rescheduling filtered deck. The elapsed portion of the old
// interval earns credit scaled by the ease.
func (s *Scheduler) earlyReviewIvl(card *domain.Card, ease int) (int, error) {
	if !card.InFilteredDeck() || card.Type != domain.CardTypeReview || card.Factor == 0 {
		return 0, fmt.Errorf("%w: id=%d", ErrInvalidEarlyReview, card.ID)
	}
	if ease <= ButtonAgain {
		return 0, fmt.Errorf("%w: ease=%d", ErrInvalidEarlyReview, ease)
	}

	elapsed := card.Ivl - int(card.ODue-int64(s.today))
	conf := s.revConf(card)

	easyBonus := 1.0
	minNewIvl := 1.0
	var factor float64
	switch ease {
	case ButtonHard:
		factor = conf.HardFactor
		if factor == 0 {
			factor = 1.2
		}
		// Early hard reviews shouldn't grow the interval much.
		minNewIvl = factor / 2
	case ButtonGood:
		factor = float64(card.Factor) / 1000
	default:
		factor = float64(card.Factor) / 1000
		ease4 := conf.Ease4
		// Reduced bonus: the full easy bonus is not yet earned.
		easyBonus = ease4 - (ease4-1)/2
	}

	ivl := max(float64(elapsed)*factor, 1)
	ivl = max(float64(card.Ivl)*minNewIvl, ivl) * easyBonus

	return s.constrainedIvl(ivl, conf, 0, false), nil
}

// startingLeft packs the full step count and the portion completable today
// into the composite left encoding.
func (s *Scheduler) startingLeft(card *domain.Card) int {
	var delays []float64
	if card.Type == domain.CardTypeReview || card.Type == domain.CardTypeRelearning {
		delays = s.lapseConf(card).Delays
	} else {
		delays = s.newConf(card).Delays
	}
	tot := len(delays)
	tod := s.leftToday(delays, tot, 0)
	return tot + tod*1000
}

// leftToday simulates scheduling the remaining steps from now and counts how
// many complete before the day cutoff. Always at least 1.
func (s *Scheduler) leftToday(delays []float64, left int, now int64) int {
	if now == 0 {
		now = s.clock.IntTime()
	}
	ok := 0
	offset := min(left, len(delays))
	for i := 0; i < offset; i++ {
		now += int64(delays[len(delays)-offset+i] * 60)
		if now > s.dayCutoff {
			break
		}
		ok = i
	}
	return ok + 1
}

// delayForGrade returns the seconds until the next showing for a card with
// the given packed left value. Missing step entries degrade to the first
// step, then to one minute.
func delayForGrade(conf stepsConf, left int) int64 {
	left = left % 1000
	delay := 1.0
	idx := len(conf.Delays) - left
	switch {
	case idx >= 0 && idx < len(conf.Delays):
		delay = conf.Delays[idx]
	case len(conf.Delays) > 0:
		slog.Warn("learning step index out of range, using first step", "left", left, "steps", len(conf.Delays))
		delay = conf.Delays[0]
	default:
		slog.Warn("deck config has no learning steps, using one minute")
	}
	return int64(delay * 60)
}

// delayForRepeatingGrade returns the delay for repeating the current step
// (Hard): the average of the current delay and the next one, with the next
// doubling as twice the current for single-step schedules.
func delayForRepeatingGrade(conf stepsConf, left int) int64 {
	delay1 := delayForGrade(conf, left)
	var delay2 int64
	if len(conf.Delays) > 1 {
		delay2 = delayForGrade(conf, left-1)
	} else {
		delay2 = delay1 * 2
	}
	return (delay1 + max(delay1, delay2)) / 2
}
