// Package storage is the SQLite persistence layer: cards, notes, the
// revision log, decks, and collection configuration.
package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // Registers the sqlite driver

	"github.com/tempodeck/tempo/internal/domain"
)

// DB wraps the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a database connection, applies the schema, and bootstraps a
// fresh collection (creation timestamp, default deck, default deck config)
// when needed.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The scheduler is single-threaded over the store, and a single
	// connection keeps an in-memory database coherent across calls.
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	db := &DB{conn: conn}
	if err := db.bootstrap(); err != nil {
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// bootstrap seeds a new collection: the creation timestamp anchored at 4am
// of the current day, and the default deck with the default config.
func (db *DB) bootstrap() error {
	if _, err := db.GetConfig("crt"); err == nil {
		return nil
	}
	now := time.Now()
	rollover := time.Date(now.Year(), now.Month(), now.Day(), 4, 0, 0, 0, now.Location())
	if rollover.After(now) {
		rollover = rollover.AddDate(0, 0, -1)
	}
	if err := db.SetConfig("crt", strconv.FormatInt(rollover.Unix(), 10)); err != nil {
		return err
	}

	conf := domain.DefaultDeckConfig(1, "Default")
	if err := db.SaveDeckConfigRow(conf); err != nil {
		return err
	}
	deck := &domain.Deck{ID: 1, Name: "Default", ConfID: 1}
	if err := db.SaveDeckRow(deck); err != nil {
		return err
	}
	return db.SetConfig("currentDeck", "1")
}

// CreationTime returns the collection's creation timestamp (the anchor for
// day-index computation).
func (db *DB) CreationTime() (int64, error) {
	v, err := db.GetConfig("crt")
	if err != nil {
		return 0, err
	}
	crt, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid crt %q: %w", v, err)
	}
	return crt, nil
}

// --- generic store contract ---

// QueryScalar runs a query expected to produce a single integer. A query
// with no rows returns 0.
func (db *DB) QueryScalar(query string, args ...any) (int64, error) {
	var v sql.NullInt64
	err := db.conn.QueryRow(query, args...).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query scalar: %w", err)
	}
	return v.Int64, nil
}

// QueryLongList runs a query producing a single integer column and collects
// the values in row order.
func (db *DB) QueryLongList(query string, args ...any) ([]int64, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query list: %w", err)
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning list row: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query list: %w", err)
	}
	return out, nil
}

// Query runs an arbitrary query and returns the cursor.
func (db *DB) Query(query string, args ...any) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// Execute runs a statement.
func (db *DB) Execute(query string, args ...any) error {
	if _, err := db.conn.Exec(query, args...); err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	return nil
}

// ExecuteMany runs the statement once per argument set inside a single
// transaction.
func (db *DB) ExecuteMany(query string, argSets [][]any) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(query)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()
	for _, args := range argSets {
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute many: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// --- cards ---

const cardColumns = "id, nid, did, ord, mod, usn, type, queue, due, ivl, factor, reps, lapses, left, odue, odid, last_ivl"

// GetCard loads a card by id. Returns nil if the card does not exist.
func (db *DB) GetCard(id int64) (*domain.Card, error) {
	row := db.conn.QueryRow("SELECT "+cardColumns+" FROM cards WHERE id = ?", id)
	var c domain.Card
	var typ, queue int
	err := row.Scan(&c.ID, &c.NID, &c.DID, &c.Ord, &c.Mod, &c.USN, &typ, &queue,
		&c.Due, &c.Ivl, &c.Factor, &c.Reps, &c.Lapses, &c.Left, &c.ODue, &c.ODid, &c.LastIvl)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading card %d: %w", id, err)
	}
	c.Type = domain.CardType(typ)
	c.Queue = domain.CardQueue(queue)
	return &c, nil
}

// AddCard inserts a card.
func (db *DB) AddCard(c *domain.Card) error {
	_, err := db.conn.Exec(
		"INSERT INTO cards ("+cardColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)",
		c.ID, c.NID, c.DID, c.Ord, c.Mod, c.USN, int(c.Type), int(c.Queue),
		c.Due, c.Ivl, c.Factor, c.Reps, c.Lapses, c.Left, c.ODue, c.ODid, c.LastIvl)
	if err != nil {
		return fmt.Errorf("inserting card %d: %w", c.ID, err)
	}
	return nil
}

// FlushCard writes a card's mutable state back.
func (db *DB) FlushCard(c *domain.Card) error {
	_, err := db.conn.Exec(
		`UPDATE cards SET nid = ?, did = ?, ord = ?, mod = ?, usn = ?, type = ?, queue = ?,
		 due = ?, ivl = ?, factor = ?, reps = ?, lapses = ?, left = ?, odue = ?, odid = ?, last_ivl = ?
		 WHERE id = ?`,
		c.NID, c.DID, c.Ord, c.Mod, c.USN, int(c.Type), int(c.Queue),
		c.Due, c.Ivl, c.Factor, c.Reps, c.Lapses, c.Left, c.ODue, c.ODid, c.LastIvl, c.ID)
	if err != nil {
		return fmt.Errorf("flushing card %d: %w", c.ID, err)
	}
	return nil
}

// DeleteCards removes cards permanently.
func (db *DB) DeleteCards(ids []int64) error {
	for _, id := range ids {
		if _, err := db.conn.Exec("DELETE FROM cards WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting card %d: %w", id, err)
		}
	}
	return nil
}
