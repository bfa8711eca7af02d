package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/tempodeck/tempo/internal/domain"
)

func TestLrnQueueOrdering(t *testing.T) {
	var q lrnQueue
	q.add(300, 3)
	q.add(100, 1)
	q.add(200, 2)
	q.sort()

	if q.firstDue() != 100 {
		t.Errorf("firstDue = %d, want 100", q.firstDue())
	}
	q.filled = true
	q.sortInto(150, 4)
	q.sortInto(50, 5)

	var got []int64
	for !q.isEmpty() {
		got = append(got, q.removeFirst())
	}
	want := []int64{5, 1, 4, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pop order = %v, want %v", got, want)
		}
	}
}

func TestLrnQueueRemove(t *testing.T) {
	var q lrnQueue
	q.add(100, 1)
	q.add(200, 2)
	q.remove(1)
	if q.isEmpty() || q.firstDue() != 200 {
		t.Errorf("remove left queue in bad state: %+v", q)
	}
	// Removing an absent id is a no-op.
	q.remove(99)
	if len(q.cards) != 1 {
		t.Errorf("len = %d, want 1", len(q.cards))
	}
}

func TestIds2str(t *testing.T) {
	if got := ids2str([]int64{1, 2, 3}); got != "(1,2,3)" {
		t.Errorf("ids2str = %q", got)
	}
	if got := ids2str(nil); got != "()" {
		t.Errorf("ids2str(nil) = %q", got)
	}
}

func TestResetCancellation(t *testing.T) {
	e := newEnv(t)
	e.addCard(t, domain.Card{Type: domain.CardTypeNew, Queue: domain.QueueNew, Due: 0})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := e.sched.ResetContext(ctx)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if e.sched.HaveCounts() {
		t.Error("counts must stay invalid after cancellation")
	}

	// A later uncancelled reset recovers.
	if err := e.sched.Reset(); err != nil {
		t.Fatalf("recovery reset: %v", err)
	}
	if !e.sched.HaveCounts() {
		t.Error("counts should be valid after a clean reset")
	}
}

func TestNewCardModulusDistribution(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 2; i++ {
		e.addCard(t, domain.Card{Type: domain.CardTypeNew, Queue: domain.QueueNew, Due: int64(i)})
	}
	for i := 0; i < 6; i++ {
		e.addCard(t, domain.Card{
			Type: domain.CardTypeReview, Queue: domain.QueueReview,
			Due: int64(e.sched.Today()), Ivl: 3, Factor: 2500,
		})
	}
	e.reset(t)

	// modulus = max(2, (2+6)/2) = 4
	if e.sched.newCardModulus != 4 {
		t.Errorf("newCardModulus = %d, want 4", e.sched.newCardModulus)
	}
}
