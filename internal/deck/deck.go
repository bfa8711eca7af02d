// Package deck manages the deck tree: dotted-path names, per-deck daily
// counters, shared configs, and the active set derived from the current
// selection.
package deck

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tempodeck/tempo/internal/domain"
	"github.com/tempodeck/tempo/internal/storage"
)

// Manager is an in-memory view over the decks and deck_config tables. It is
// not safe for concurrent use; the scheduler's serial calling convention
// covers it.
type Manager struct {
	db    *storage.DB
	decks map[int64]*domain.Deck
	confs map[int64]*domain.DeckConfig
}

var validate = validator.New()

// Load reads all decks and configs from the store. Invalid deck configs are
// rejected so the scheduler never sees out-of-range values.
func Load(db *storage.DB) (*Manager, error) {
	m := &Manager{
		db:    db,
		decks: map[int64]*domain.Deck{},
		confs: map[int64]*domain.DeckConfig{},
	}
	decks, err := db.LoadDecks()
	if err != nil {
		return nil, err
	}
	for _, d := range decks {
		m.decks[d.ID] = d
	}
	confs, err := db.LoadDeckConfigs()
	if err != nil {
		return nil, err
	}
	for _, c := range confs {
		if err := validate.Struct(c); err != nil {
			return nil, fmt.Errorf("deck config %d invalid: %w", c.ID, err)
		}
		m.confs[c.ID] = c
	}
	if len(m.decks) == 0 {
		return nil, fmt.Errorf("no decks in collection")
	}
	return m, nil
}

// Get returns the deck by id, or nil.
func (m *Manager) Get(id int64) *domain.Deck {
	return m.decks[id]
}

// ByName returns the deck with the given name, or nil.
func (m *Manager) ByName(name string) *domain.Deck {
	for _, d := range m.decks {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// All returns every deck, sorted by name.
func (m *Manager) All() []*domain.Deck {
	out := make([]*domain.Deck, 0, len(m.decks))
	for _, d := range m.decks {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Selected returns the id of the currently selected deck.
func (m *Manager) Selected() int64 {
	return int64(m.db.GetInt("currentDeck", 1))
}

// Select makes the deck current.
func (m *Manager) Select(id int64) error {
	if m.decks[id] == nil {
		return fmt.Errorf("no deck %d", id)
	}
	return m.db.SetInt("currentDeck", int(id))
}

// Active returns the selected deck and its descendants, sorted by name so
// parents precede children.
func (m *Manager) Active() []int64 {
	sel := m.Selected()
	d := m.decks[sel]
	if d == nil {
		return nil
	}
	type entry struct {
		name string
		id   int64
	}
	entries := []entry{{d.Name, d.ID}}
	prefix := d.Name + "."
	for _, other := range m.decks {
		if strings.HasPrefix(other.Name, prefix) {
			entries = append(entries, entry{other.Name, other.ID})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids
}

// Parents returns the ancestors of the deck, root first. Missing ancestors
// are skipped.
func (m *Manager) Parents(id int64) []*domain.Deck {
	d := m.decks[id]
	if d == nil {
		return nil
	}
	var out []*domain.Deck
	parts := strings.Split(d.Name, ".")
	for i := 1; i < len(parts); i++ {
		name := strings.Join(parts[:i], ".")
		if p := m.ByName(name); p != nil {
			out = append(out, p)
		}
	}
	return out
}

// ChildDids returns the ids of all descendants of the deck.
func (m *Manager) ChildDids(id int64) []int64 {
	d := m.decks[id]
	if d == nil {
		return nil
	}
	prefix := d.Name + "."
	var out []int64
	for _, other := range m.decks {
		if strings.HasPrefix(other.Name, prefix) {
			out = append(out, other.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ConfForDid resolves the effective config for a deck. A filtered deck acts
// as its own config, carrying the dyn overlay fields.
func (m *Manager) ConfForDid(id int64) *domain.DeckConfig {
	d := m.decks[id]
	if d == nil {
		return domain.DefaultDeckConfig(0, "missing")
	}
	if d.Dyn {
		conf := domain.DefaultDeckConfig(d.ID, d.Name)
		conf.Dyn = true
		conf.Resched = d.Resched
		conf.PreviewDelay = d.PreviewDelay
		return conf
	}
	if c := m.confs[d.ConfID]; c != nil {
		return c
	}
	return domain.DefaultDeckConfig(0, "missing")
}

// Conf returns a shared config by id, or nil.
func (m *Manager) Conf(id int64) *domain.DeckConfig {
	return m.confs[id]
}

// Save persists the deck.
func (m *Manager) Save(d *domain.Deck) error {
	m.decks[d.ID] = d
	return m.db.SaveDeckRow(d)
}

// SaveConf validates and persists a shared config.
func (m *Manager) SaveConf(c *domain.DeckConfig) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("deck config %d invalid: %w", c.ID, err)
	}
	m.confs[c.ID] = c
	return m.db.SaveDeckConfigRow(c)
}

// Create adds a regular deck with the default config, creating missing
// ancestors along the dotted path.
func (m *Manager) Create(name string) (*domain.Deck, error) {
	if d := m.ByName(name); d != nil {
		return d, nil
	}
	parts := strings.Split(name, ".")
	for i := 1; i < len(parts); i++ {
		ancestor := strings.Join(parts[:i], ".")
		if m.ByName(ancestor) == nil {
			if _, err := m.Create(ancestor); err != nil {
				return nil, err
			}
		}
	}
	d := &domain.Deck{ID: m.nextID(), Name: name, ConfID: 1}
	if err := m.Save(d); err != nil {
		return nil, err
	}
	return d, nil
}

// CreateFiltered adds a filtered deck with the given gathering terms.
func (m *Manager) CreateFiltered(name string, terms []domain.FilterTerm, resched bool) (*domain.Deck, error) {
	if m.ByName(name) != nil {
		return nil, fmt.Errorf("deck %q already exists", name)
	}
	d := &domain.Deck{
		ID:           m.nextID(),
		Name:         name,
		Dyn:          true,
		Terms:        terms,
		Resched:      resched,
		PreviewDelay: 10,
	}
	if err := m.Save(d); err != nil {
		return nil, err
	}
	return d, nil
}

// nextID picks an unused deck id. Epoch milliseconds follow the card-id
// convention and stay unique across reloads.
func (m *Manager) nextID() int64 {
	id := time.Now().UnixMilli()
	for m.decks[id] != nil {
		id++
	}
	return id
}
