package domain

import "encoding/json"

// DayCount is a per-day counter stored as [day_index, count]. The day index
// lets a stale counter be detected and rolled on day change.
type DayCount [2]int

// Day returns the day index the counter was last updated on.
func (d DayCount) Day() int { return d[0] }

// Count returns the accumulated count.
func (d DayCount) Count() int { return d[1] }

// FilterOrder selects the ordering clause used when gathering cards into a
// filtered deck.
type FilterOrder int

const (
	OrderOldestMod   FilterOrder = 0
	OrderRandom      FilterOrder = 1
	OrderIvlAsc      FilterOrder = 2
	OrderIvlDesc     FilterOrder = 3
	OrderLapsesDesc  FilterOrder = 4
	OrderNoteIDAsc   FilterOrder = 5
	OrderDue         FilterOrder = 6
	OrderNoteIDDesc  FilterOrder = 7
	OrderDuePriority FilterOrder = 8
)

// FilterTerm is one (search, limit, order) gathering rule of a filtered deck.
type FilterTerm struct {
	Search string      `json:"search"`
	Limit  int         `json:"limit"`
	Order  FilterOrder `json:"order"`
}

// Deck is a named collection of cards. Name is a dotted path; "Spanish.Verbs"
// is a child of "Spanish". Filtered (dynamic) decks gather cards from other
// decks by search terms and hold them temporarily.
type Deck struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Dyn    bool   `json:"dyn"`
	ConfID int64  `json:"conf"`

	NewToday  DayCount `json:"newToday"`
	RevToday  DayCount `json:"revToday"`
	LrnToday  DayCount `json:"lrnToday"`
	TimeToday DayCount `json:"timeToday"`

	// Filtered-deck fields; ignored for regular decks.
	Terms        []FilterTerm `json:"terms,omitempty"`
	Resched      bool         `json:"resched,omitempty"`
	PreviewDelay int          `json:"previewDelay,omitempty"`
}

// MarshalJSON serializes the deck for storage.
func (d *Deck) MarshalJSON() ([]byte, error) {
	type alias Deck
	return json.Marshal((*alias)(d))
}

// UnmarshalJSON deserializes a stored deck.
func (d *Deck) UnmarshalJSON(data []byte) error {
	type alias Deck
	return json.Unmarshal(data, (*alias)(d))
}

// NewConf configures how new cards are introduced.
type NewConf struct {
	PerDay        int       `json:"perDay" validate:"min=0"`
	Delays        []float64 `json:"delays"`
	Ints          []int     `json:"ints"`
	InitialFactor int       `json:"initialFactor" validate:"min=1300"`
	Bury          bool      `json:"bury"`
	Order         int       `json:"order"`
	Separate      bool      `json:"separate"`
}

// New-card introduction order within a deck.
const (
	NewCardsRandom = 0
	NewCardsDue    = 1
)

// LapseConf configures relearning after a failed review.
type LapseConf struct {
	Delays      []float64 `json:"delays"`
	Mult        float64   `json:"mult" validate:"min=0,max=1"`
	MinInt      int       `json:"minInt" validate:"min=1"`
	LeechFails  int       `json:"leechFails" validate:"min=0"`
	LeechAction int       `json:"leechAction"`

	// Resched is only meaningful on the overlay produced for cards in a
	// filtered deck.
	Resched bool `json:"resched,omitempty"`
}

// Leech actions.
const (
	LeechSuspend = 0
	LeechTagOnly = 1
)

// RevConf configures review scheduling.
type RevConf struct {
	PerDay     int     `json:"perDay" validate:"min=0"`
	HardFactor float64 `json:"hardFactor"`
	Ease4      float64 `json:"ease4" validate:"min=1"`
	IvlFct     float64 `json:"ivlFct"`
	MaxIvl     int     `json:"maxIvl" validate:"min=1"`
	Bury       bool    `json:"bury"`
}

// DeckConfig is the effective configuration a card is scheduled under. For
// cards in a filtered deck the scheduler builds an overlay merging the
// filtered deck's overrides with the original deck's config.
type DeckConfig struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`

	New   NewConf   `json:"new"`
	Lapse LapseConf `json:"lapse"`
	Rev   RevConf   `json:"rev"`

	// Filtered-deck overlay fields.
	Dyn          bool `json:"dyn,omitempty"`
	Resched      bool `json:"resched,omitempty"`
	PreviewDelay int  `json:"previewDelay,omitempty"`
}

// StartingFactor is the ease factor assigned to graduating and rescheduled
// cards, in per-mille.
const StartingFactor = 2500

// DefaultDeckConfig returns the stock configuration new decks start with.
func DefaultDeckConfig(id int64, name string) *DeckConfig {
	return &DeckConfig{
		ID:   id,
		Name: name,
		New: NewConf{
			PerDay:        20,
			Delays:        []float64{1, 10},
			Ints:          []int{1, 4},
			InitialFactor: StartingFactor,
			Bury:          true,
			Order:         NewCardsDue,
			Separate:      true,
		},
		Lapse: LapseConf{
			Delays:      []float64{10},
			Mult:        0,
			MinInt:      1,
			LeechFails:  8,
			LeechAction: LeechSuspend,
		},
		Rev: RevConf{
			PerDay:     200,
			HardFactor: 1.2,
			Ease4:      1.3,
			IvlFct:     1,
			MaxIvl:     36500,
			Bury:       true,
		},
	}
}
