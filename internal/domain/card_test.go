package domain

import "testing"

func TestEnumNames(t *testing.T) {
	if CardTypeRelearning.String() != "Relearning" {
		t.Errorf("CardTypeRelearning = %q", CardTypeRelearning.String())
	}
	if QueueSiblingBuried.String() != "SiblingBuried" {
		t.Errorf("QueueSiblingBuried = %q", QueueSiblingBuried.String())
	}
	if CardType(9).String() != "CardType(9)" {
		t.Errorf("invalid type = %q", CardType(9).String())
	}
	if RevlogEarlyReview.String() != "EarlyReview" {
		t.Errorf("RevlogEarlyReview = %q", RevlogEarlyReview.String())
	}
}

func TestInFilteredDeck(t *testing.T) {
	c := Card{}
	if c.InFilteredDeck() {
		t.Error("zero card should not be filtered")
	}
	c.ODid = 5
	if !c.InFilteredDeck() {
		t.Error("card with odid should be filtered")
	}
}

func TestTimeTaken(t *testing.T) {
	c := Card{}
	if got := c.TimeTaken(5000); got != 0 {
		t.Errorf("unstarted timer = %d, want 0", got)
	}
	c.StartTimer(1000)
	if got := c.TimeTaken(5500); got != 4500 {
		t.Errorf("TimeTaken = %d, want 4500", got)
	}
	// Capped at a minute.
	if got := c.TimeTaken(1000 + 120_000); got != 60_000 {
		t.Errorf("TimeTaken = %d, want capped 60000", got)
	}
}

func TestDefaultDeckConfig(t *testing.T) {
	conf := DefaultDeckConfig(1, "Default")
	if conf.New.InitialFactor != StartingFactor {
		t.Errorf("initialFactor = %d, want %d", conf.New.InitialFactor, StartingFactor)
	}
	if len(conf.New.Delays) != 2 || conf.New.Delays[0] != 1 || conf.New.Delays[1] != 10 {
		t.Errorf("new delays = %v, want [1 10]", conf.New.Delays)
	}
	if conf.Rev.MaxIvl != 36500 {
		t.Errorf("maxIvl = %d, want 36500", conf.Rev.MaxIvl)
	}
	if conf.Lapse.LeechFails != 8 {
		t.Errorf("leechFails = %d, want 8", conf.Lapse.LeechFails)
	}
}
