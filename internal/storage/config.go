package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

func nowSeconds() int64 { return time.Now().Unix() }

// GetConfig reads a collection config value. Returns sql.ErrNoRows if the
// key was never set.
func (db *DB) GetConfig(key string) (string, error) {
	var v string
	err := db.conn.QueryRow("SELECT value FROM col WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("reading config %q: %w", key, err)
	}
	return v, nil
}

// SetConfig writes a collection config value.
func (db *DB) SetConfig(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO col (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("writing config %q: %w", key, err)
	}
	return nil
}

// GetBool reads a boolean config value with a default.
func (db *DB) GetBool(key string, def bool) bool {
	v, err := db.GetConfig(key)
	if err != nil {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// GetInt reads an integer config value with a default.
func (db *DB) GetInt(key string, def int) int {
	v, err := db.GetConfig(key)
	if err != nil {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// SetInt writes an integer config value.
func (db *DB) SetInt(key string, v int) error {
	return db.SetConfig(key, strconv.Itoa(v))
}
