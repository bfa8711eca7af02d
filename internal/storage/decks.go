package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tempodeck/tempo/internal/domain"
)

// LoadDecks reads every deck row.
func (db *DB) LoadDecks() ([]*domain.Deck, error) {
	rows, err := db.conn.Query("SELECT id, json FROM decks")
	if err != nil {
		return nil, fmt.Errorf("loading decks: %w", err)
	}
	defer rows.Close()
	var out []*domain.Deck
	for rows.Next() {
		var id int64
		var blob string
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning deck row: %w", err)
		}
		var d domain.Deck
		if err := json.Unmarshal([]byte(blob), &d); err != nil {
			return nil, fmt.Errorf("decoding deck %d: %w", id, err)
		}
		d.ID = id
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading decks: %w", err)
	}
	return out, nil
}

// SaveDeckRow upserts a deck.
func (db *DB) SaveDeckRow(d *domain.Deck) error {
	blob, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding deck %d: %w", d.ID, err)
	}
	_, err = db.conn.Exec(
		"INSERT INTO decks (id, json) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET json = excluded.json",
		d.ID, string(blob))
	if err != nil {
		return fmt.Errorf("saving deck %d: %w", d.ID, err)
	}
	return nil
}

// DeleteDeckRow removes a deck.
func (db *DB) DeleteDeckRow(id int64) error {
	if _, err := db.conn.Exec("DELETE FROM decks WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting deck %d: %w", id, err)
	}
	return nil
}

// LoadDeckConfigs reads every deck config row.
func (db *DB) LoadDeckConfigs() ([]*domain.DeckConfig, error) {
	rows, err := db.conn.Query("SELECT id, json FROM deck_config")
	if err != nil {
		return nil, fmt.Errorf("loading deck configs: %w", err)
	}
	defer rows.Close()
	var out []*domain.DeckConfig
	for rows.Next() {
		var id int64
		var blob string
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning deck config row: %w", err)
		}
		var c domain.DeckConfig
		if err := json.Unmarshal([]byte(blob), &c); err != nil {
			return nil, fmt.Errorf("decoding deck config %d: %w", id, err)
		}
		c.ID = id
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading deck configs: %w", err)
	}
	return out, nil
}

// SaveDeckConfigRow upserts a deck config.
func (db *DB) SaveDeckConfigRow(c *domain.DeckConfig) error {
	blob, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding deck config %d: %w", c.ID, err)
	}
	_, err = db.conn.Exec(
		"INSERT INTO deck_config (id, json) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET json = excluded.json",
		c.ID, string(blob))
	if err != nil {
		return fmt.Errorf("saving deck config %d: %w", c.ID, err)
	}
	return nil
}

// Source is a card origin, either a local path or a git URL, feeding cards
// into a target deck.
type Source struct {
	ID          int64
	Path        string
	Type        string
	DeckID      int64
	LastScanned sql.NullTime
}

// InsertSource registers a new source and returns its id.
func (db *DB) InsertSource(path, typ string, deckID int64) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO sources (path, type, deck_id, last_scanned) VALUES (?, ?, ?, ?)",
		path, typ, deckID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// GetAllSources retrieves all stored sources.
func (db *DB) GetAllSources() ([]Source, error) {
	rows, err := db.conn.Query("SELECT id, path, type, deck_id, last_scanned FROM sources")
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()
	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Type, &s.DeckID, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	return sources, nil
}

// DeleteSource removes a source registration.
func (db *DB) DeleteSource(id int64) error {
	if _, err := db.conn.Exec("DELETE FROM sources WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	return nil
}

// UpdateSourceLastScanned stamps the source's last successful scan.
func (db *DB) UpdateSourceLastScanned(sourceID int64) error {
	_, err := db.conn.Exec("UPDATE sources SET last_scanned = ? WHERE id = ?", time.Now(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}
