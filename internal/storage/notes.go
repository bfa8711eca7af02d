package storage

import (
	"database/sql"
	"fmt"
	"strings"
)

// Note is the content a card asks about. Tags are stored space-separated
// with surrounding spaces so a single LIKE can match whole tags.
type Note struct {
	ID       int64
	GUID     string
	Mod      int64
	USN      int
	Tags     []string
	Front    string
	Back     string
	Context  string
	Checksum string
	SourceID sql.NullInt64
}

// AddNote inserts a note and returns its id. A zero ID lets SQLite assign
// the next free id.
func (db *DB) AddNote(n *Note) (int64, error) {
	var idArg any
	if n.ID != 0 {
		idArg = n.ID
	}
	res, err := db.conn.Exec(
		"INSERT INTO notes (id, guid, mod, usn, tags, front, back, context, csum, source_id) VALUES (?,?,?,?,?,?,?,?,?,?)",
		idArg, n.GUID, n.Mod, n.USN, joinTags(n.Tags), n.Front, n.Back, n.Context, n.Checksum, n.SourceID)
	if err != nil {
		return 0, fmt.Errorf("inserting note: %w", err)
	}
	if n.ID != 0 {
		return n.ID, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading note id: %w", err)
	}
	return id, nil
}

// GetNote loads a note by id. Returns nil if absent.
func (db *DB) GetNote(id int64) (*Note, error) {
	row := db.conn.QueryRow(
		"SELECT id, guid, mod, usn, tags, front, back, context, csum, source_id FROM notes WHERE id = ?", id)
	var n Note
	var tags string
	err := row.Scan(&n.ID, &n.GUID, &n.Mod, &n.USN, &tags, &n.Front, &n.Back, &n.Context, &n.Checksum, &n.SourceID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading note %d: %w", id, err)
	}
	n.Tags = splitTags(tags)
	return &n, nil
}

// FindNoteByChecksum returns the note with the given content checksum, or
// nil.
func (db *DB) FindNoteByChecksum(csum string) (*Note, error) {
	var id int64
	err := db.conn.QueryRow("SELECT id FROM notes WHERE csum = ?", csum).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding note by checksum: %w", err)
	}
	return db.GetNote(id)
}

// NotesBySourceID returns the ids of all notes imported from the source.
func (db *DB) NotesBySourceID(sourceID int64) ([]int64, error) {
	return db.QueryLongList("SELECT id FROM notes WHERE source_id = ?", sourceID)
}

// DeleteNote removes a note and its cards.
func (db *DB) DeleteNote(id int64) error {
	if _, err := db.conn.Exec("DELETE FROM cards WHERE nid = ?", id); err != nil {
		return fmt.Errorf("deleting cards of note %d: %w", id, err)
	}
	if _, err := db.conn.Exec("DELETE FROM notes WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting note %d: %w", id, err)
	}
	return nil
}

// AddTag adds a tag to the note if not already present.
func (db *DB) AddTag(nid int64, tag string) error {
	has, err := db.HasTag(nid, tag)
	if err != nil || has {
		return err
	}
	_, err = db.conn.Exec(
		"UPDATE notes SET tags = rtrim(tags) || ' ' || ? || ' ', mod = ? WHERE id = ?",
		tag, nowSeconds(), nid)
	if err != nil {
		return fmt.Errorf("tagging note %d: %w", nid, err)
	}
	return nil
}

// DelTag removes a tag from the note.
func (db *DB) DelTag(nid int64, tag string) error {
	n, err := db.GetNote(nid)
	if err != nil || n == nil {
		return err
	}
	kept := n.Tags[:0]
	for _, t := range n.Tags {
		if !strings.EqualFold(t, tag) {
			kept = append(kept, t)
		}
	}
	_, err = db.conn.Exec("UPDATE notes SET tags = ?, mod = ? WHERE id = ?",
		joinTags(kept), nowSeconds(), nid)
	if err != nil {
		return fmt.Errorf("untagging note %d: %w", nid, err)
	}
	return nil
}

// HasTag reports whether the note carries the tag.
func (db *DB) HasTag(nid int64, tag string) (bool, error) {
	n, err := db.GetNote(nid)
	if err != nil || n == nil {
		return false, err
	}
	for _, t := range n.Tags {
		if strings.EqualFold(t, tag) {
			return true, nil
		}
	}
	return false, nil
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return " " + strings.Join(tags, " ") + " "
}

func splitTags(s string) []string {
	return strings.Fields(s)
}
