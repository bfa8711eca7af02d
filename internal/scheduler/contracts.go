package scheduler

import (
	"database/sql"

	"github.com/tempodeck/tempo/internal/domain"
)

// Store is the persistent card store. The scheduler issues raw SQL through it
// and never manages transactions itself; writes within a single answer are
// expected to be atomic at per-card granularity.
type Store interface {
	QueryScalar(query string, args ...any) (int64, error)
	QueryLongList(query string, args ...any) ([]int64, error)
	Query(query string, args ...any) (*sql.Rows, error)
	Execute(query string, args ...any) error
	ExecuteMany(query string, argSets [][]any) error

	GetCard(id int64) (*domain.Card, error)
	FlushCard(c *domain.Card) error

	// FindCards runs a card search (filtered-deck gathering). orderBy is a
	// SQL order clause over the aliased tables `c` (cards) and `n` (notes).
	FindCards(search string, orderBy string, limit int) ([]int64, error)
}

// DeckManager resolves decks, their tree structure, and their configuration.
type DeckManager interface {
	// Active returns the deck ids currently being studied: the selected
	// deck and its descendants.
	Active() []int64
	// Selected returns the id of the currently selected deck.
	Selected() int64
	// Select makes the given deck the selected one.
	Select(id int64) error
	Get(id int64) *domain.Deck
	All() []*domain.Deck
	// Parents returns the ancestors of the deck, root first.
	Parents(id int64) []*domain.Deck
	// ChildDids returns the ids of all descendants of the deck.
	ChildDids(id int64) []int64
	ConfForDid(id int64) *domain.DeckConfig
	Save(d *domain.Deck) error
}

// Notes mutates note-level attributes the scheduler touches (leech tagging).
type Notes interface {
	AddTag(nid int64, tag string) error
	HasTag(nid int64, tag string) (bool, error)
}

// Timing is a day-boundary snapshot from the time provider.
type Timing struct {
	DaysElapsed int
	NextDayAt   int64
}

// Clock provides wall-clock time and the collection's day boundary.
type Clock interface {
	IntTime() int64
	IntTimeMS() int64
	TimingToday() Timing
}

// Config is the collection-level key/value configuration.
type Config interface {
	GetBool(key string, def bool) bool
	GetInt(key string, def int) int
	SetInt(key string, v int) error
}

// TaskRunner runs a deferred task outside the current call. The scheduler
// uses it for a single async re-reset after a failed fetch.
type TaskRunner interface {
	Launch(fn func())
}

// Version selects between the two scheduling variants. V2 is the default;
// the divergence points are branched explicitly.
type Version int

const (
	V1 Version = 1
	V2 Version = 2
)

// New-card spread policy.
const (
	NewCardsDistribute = 0
	NewCardsLast       = 1
	NewCardsFirst      = 2
)

// Answer buttons.
const (
	ButtonAgain = 1
	ButtonHard  = 2
	ButtonGood  = 3
	ButtonEasy  = 4
)

const (
	secondsPerDay  = 86400
	queueLimit     = 50
	reportLimit    = 99999
	dynReportLimit = 99999
)

// factorAdditions is indexed by ease-2: Hard, Good, Easy.
var factorAdditions = [3]int{-150, 0, 150}

// Collection config keys consumed by the scheduler.
const (
	confKeyDayLearnFirst = "dayLearnFirst"
	confKeyNewSpread     = "newSpread"
	confKeyCollapseTime  = "collapseTime"
	confKeyLastUnburied  = "lastUnburied"
)
