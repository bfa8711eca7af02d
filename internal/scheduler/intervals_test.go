package scheduler

import (
	"math/rand"
	"testing"

	"github.com/tempodeck/tempo/internal/domain"
)

func TestFuzzRange(t *testing.T) {
	tests := []struct {
		ivl      int
		lo, hi   int
	}{
		// ivl < 2: no fuzz
		{0, 1, 1},
		{1, 1, 1},
		// ivl == 2: [2, 3]
		{2, 2, 3},
		// ivl < 7: +-25%, min 1. ivl=4 -> fuzz=1 -> [3, 5]
		{4, 3, 5},
		// ivl=6 -> fuzz=1.5 -> int cut -> [5, 7] (6-1=5, 6+1=7)
		{6, 5, 7},
		// ivl < 30: +-max(2, 15%). ivl=10 -> fuzz=2 -> [8, 12]
		{10, 8, 12},
		// ivl=20 -> fuzz=3 -> [17, 23]
		{20, 17, 23},
		// ivl >= 30: +-max(4, 5%). ivl=30 -> fuzz=4 -> [26, 34]
		{30, 26, 34},
		// ivl=100 -> fuzz=5 -> [95, 105]
		{100, 95, 105},
	}
	for _, tt := range tests {
		lo, hi := fuzzRange(tt.ivl)
		if lo != tt.lo || hi != tt.hi {
			t.Errorf("fuzzRange(%d) = [%d, %d], want [%d, %d]", tt.ivl, lo, hi, tt.lo, tt.hi)
		}
		if tt.ivl >= 2 && (lo > tt.ivl || hi < tt.ivl) {
			t.Errorf("fuzzRange(%d) does not contain the interval", tt.ivl)
		}
	}
}

func TestFuzzedIvlWithinRange(t *testing.T) {
	s := &Scheduler{rng: rand.New(rand.NewSource(7))}
	for _, ivl := range []int{1, 2, 5, 14, 60} {
		lo, hi := fuzzRange(ivl)
		for i := 0; i < 50; i++ {
			got := s.fuzzedIvl(ivl)
			if got < lo || got > hi {
				t.Fatalf("fuzzedIvl(%d) = %d, outside [%d, %d]", ivl, got, lo, hi)
			}
		}
	}
}

func TestConstrainedIvl(t *testing.T) {
	s := &Scheduler{rng: rand.New(rand.NewSource(7))}
	conf := domain.RevConf{IvlFct: 1, MaxIvl: 100}

	t.Run("exceeds previous", func(t *testing.T) {
		// raw 5 with prev 10 must land at 11.
		if got := s.constrainedIvl(5, conf, 10, false); got != 11 {
			t.Errorf("constrainedIvl(5, prev=10) = %d, want 11", got)
		}
	})
	t.Run("caps at max", func(t *testing.T) {
		if got := s.constrainedIvl(500, conf, 0, false); got != 100 {
			t.Errorf("constrainedIvl(500) = %d, want 100", got)
		}
	})
	t.Run("at least one day", func(t *testing.T) {
		if got := s.constrainedIvl(0.2, conf, 0, false); got != 1 {
			t.Errorf("constrainedIvl(0.2) = %d, want 1", got)
		}
	})
	t.Run("interval factor scales", func(t *testing.T) {
		scaled := domain.RevConf{IvlFct: 0.5, MaxIvl: 100}
		// 20 * 0.5 = 10
		if got := s.constrainedIvl(20, scaled, 0, false); got != 10 {
			t.Errorf("constrainedIvl(20, fct=0.5) = %d, want 10", got)
		}
	})
	t.Run("bounds hold for a sweep", func(t *testing.T) {
		for prev := 0; prev < 50; prev += 7 {
			got := s.constrainedIvl(float64(prev), conf, prev, false)
			if got < prev+1 || got > conf.MaxIvl {
				t.Errorf("constrainedIvl(prev=%d) = %d, outside [%d, %d]", prev, got, prev+1, conf.MaxIvl)
			}
		}
	})
}

func TestNextRevIvlNonDecreasingInEase(t *testing.T) {
	e := newEnv(t)
	card := e.addCard(t, domain.Card{
		Type: domain.CardTypeReview, Queue: domain.QueueReview,
		Due: int64(e.sched.Today() - 3), Ivl: 8, Factor: 2500,
	})
	e.reset(t)

	hard := e.sched.nextRevIvl(card, ButtonHard, false)
	good := e.sched.nextRevIvl(card, ButtonGood, false)
	easy := e.sched.nextRevIvl(card, ButtonEasy, false)
	if !(hard <= good && good <= easy) {
		t.Errorf("intervals not non-decreasing: hard=%d good=%d easy=%d", hard, good, easy)
	}
	// delay = 3 days late; fct = 2.5
	// hard: 8 * 1.2 = 9.6 -> 9
	if hard != 9 {
		t.Errorf("hard = %d, want 9", hard)
	}
	// good: (8 + 3/2) * 2.5 = 23.75 -> 23
	if good != 23 {
		t.Errorf("good = %d, want 23", good)
	}
	// easy: (8 + 3) * 2.5 * 1.3 = 35.75 -> 35
	if easy != 35 {
		t.Errorf("easy = %d, want 35", easy)
	}
}

func TestLapseIvl(t *testing.T) {
	card := &domain.Card{Ivl: 30}
	t.Run("scaled by mult", func(t *testing.T) {
		conf := domain.LapseConf{Mult: 0.5, MinInt: 1}
		if got := lapseIvl(card, conf); got != 15 {
			t.Errorf("lapseIvl = %d, want 15", got)
		}
	})
	t.Run("floored by minInt", func(t *testing.T) {
		conf := domain.LapseConf{Mult: 0.1, MinInt: 5}
		// 30 * 0.1 = 3 < minInt 5
		if got := lapseIvl(card, conf); got != 5 {
			t.Errorf("lapseIvl = %d, want 5", got)
		}
	})
	t.Run("at least one day", func(t *testing.T) {
		conf := domain.LapseConf{Mult: 0, MinInt: 0}
		if got := lapseIvl(card, conf); got != 1 {
			t.Errorf("lapseIvl = %d, want 1", got)
		}
	})
}

func TestDelayForGrade(t *testing.T) {
	conf := stepsConf{Delays: []float64{1, 10}}
	t.Run("current step", func(t *testing.T) {
		// left=2 -> idx = 2-2 = 0 -> 1 minute
		if got := delayForGrade(conf, 2); got != 60 {
			t.Errorf("delayForGrade(left=2) = %d, want 60", got)
		}
		// left=1 -> idx = 2-1 = 1 -> 10 minutes
		if got := delayForGrade(conf, 1); got != 600 {
			t.Errorf("delayForGrade(left=1) = %d, want 600", got)
		}
	})
	t.Run("composite left", func(t *testing.T) {
		// 2002 -> left mod 1000 = 2
		if got := delayForGrade(conf, 2002); got != 60 {
			t.Errorf("delayForGrade(left=2002) = %d, want 60", got)
		}
	})
	t.Run("out of range falls back to first step", func(t *testing.T) {
		if got := delayForGrade(conf, 5); got != 60 {
			t.Errorf("delayForGrade(left=5) = %d, want 60", got)
		}
	})
	t.Run("no steps falls back to a minute", func(t *testing.T) {
		if got := delayForGrade(stepsConf{}, 1); got != 60 {
			t.Errorf("delayForGrade(no steps) = %d, want 60", got)
		}
	})
}

func TestDelayForRepeatingGrade(t *testing.T) {
	t.Run("averages current and next", func(t *testing.T) {
		conf := stepsConf{Delays: []float64{1, 10}}
		// left=2: current = 60s, next (left=1) = 600s
		// (60 + max(60, 600)) / 2 = 330
		if got := delayForRepeatingGrade(conf, 2); got != 330 {
			t.Errorf("delayForRepeatingGrade = %d, want 330", got)
		}
	})
	t.Run("single step repeats at 1.5x", func(t *testing.T) {
		conf := stepsConf{Delays: []float64{10}}
		// current = 600; doubled = 1200; (600 + 1200) / 2 = 900
		if got := delayForRepeatingGrade(conf, 1); got != 900 {
			t.Errorf("delayForRepeatingGrade = %d, want 900", got)
		}
	})
}

func TestLeftToday(t *testing.T) {
	e := newEnv(t)
	t.Run("all steps fit", func(t *testing.T) {
		// Two short steps early in the day.
		got := e.sched.leftToday([]float64{1, 10}, 2, e.clock.now)
		if got != 2 {
			t.Errorf("leftToday = %d, want 2", got)
		}
	})
	t.Run("late steps cross cutoff", func(t *testing.T) {
		// 30 seconds before cutoff only the result floor of 1 remains.
		nearCutoff := e.sched.DayCutoff() - 30
		got := e.sched.leftToday([]float64{1, 10}, 2, nearCutoff)
		if got != 1 {
			t.Errorf("leftToday = %d, want 1", got)
		}
	})
	t.Run("never below one", func(t *testing.T) {
		got := e.sched.leftToday([]float64{120, 120}, 2, e.sched.DayCutoff()-1)
		if got < 1 {
			t.Errorf("leftToday = %d, want >= 1", got)
		}
	})
}

func TestStartingLeft(t *testing.T) {
	e := newEnv(t)
	card := e.addCard(t, domain.Card{Type: domain.CardTypeLearning, Queue: domain.QueueLearning})
	e.reset(t)
	// Default new delays [1, 10]: two steps, both completable early in the
	// day -> 2 + 2*1000.
	if got := e.sched.startingLeft(card); got != 2002 {
		t.Errorf("startingLeft = %d, want 2002", got)
	}
}

func TestEarlyReviewIvlPreconditions(t *testing.T) {
	e := newEnv(t)
	t.Run("not in filtered deck", func(t *testing.T) {
		card := e.addCard(t, domain.Card{Type: domain.CardTypeReview, Queue: domain.QueueReview, Ivl: 5, Factor: 2000})
		e.reset(t)
		if _, err := e.sched.earlyReviewIvl(card, ButtonGood); err == nil {
			t.Error("expected error for non-filtered card")
		}
	})
	t.Run("again not allowed", func(t *testing.T) {
		card := e.addCard(t, domain.Card{
			ODid: 1, ODue: 5, Type: domain.CardTypeReview, Queue: domain.QueueReview, Ivl: 5, Factor: 2000,
		})
		e.reset(t)
		if _, err := e.sched.earlyReviewIvl(card, ButtonAgain); err == nil {
			t.Error("expected error for ease=1")
		}
	})
}
