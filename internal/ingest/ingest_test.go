package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tempodeck/tempo/internal/domain"
	"github.com/tempodeck/tempo/internal/storage"
)

func setup(t *testing.T) (*storage.DB, string, storage.Source) {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dir := t.TempDir()
	id, err := db.InsertSource(dir, "local", 1)
	require.NoError(t, err)
	return db, dir, storage.Source{ID: id, Path: dir, Type: "local", DeckID: 1}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestReconcileImportsNewCards(t *testing.T) {
	db, dir, source := setup(t)
	writeFile(t, dir, "geo.md", "Q: Capital of France?\nA: Paris\n---\nQ: Capital of Spain?\nA: Madrid\n")

	require.NoError(t, reconcile(db, source, dir))

	n, err := db.QueryScalar("SELECT count() FROM notes")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	cards, err := db.QueryLongList("SELECT id FROM cards ORDER BY due")
	require.NoError(t, err)
	require.Len(t, cards, 2)

	first, err := db.GetCard(cards[0])
	require.NoError(t, err)
	assert.Equal(t, domain.CardTypeNew, first.Type)
	assert.Equal(t, domain.QueueNew, first.Queue)
	assert.EqualValues(t, 1, first.DID)
	assert.EqualValues(t, 1, first.Due)

	note, err := db.GetNote(first.NID)
	require.NoError(t, err)
	assert.NotEmpty(t, note.GUID)
	assert.Equal(t, "Capital of France?", note.Front)
}

func TestReconcileIsIdempotent(t *testing.T) {
	db, dir, source := setup(t)
	writeFile(t, dir, "a.md", "Q: one\nA: 1\n")

	require.NoError(t, reconcile(db, source, dir))
	require.NoError(t, reconcile(db, source, dir))

	n, err := db.QueryScalar("SELECT count() FROM notes")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestReconcileDeletesOrphans(t *testing.T) {
	db, dir, source := setup(t)
	writeFile(t, dir, "a.md", "Q: keep\nA: 1\n\nQ: drop\nA: 2\n")
	require.NoError(t, reconcile(db, source, dir))

	writeFile(t, dir, "a.md", "Q: keep\nA: 1\n")
	require.NoError(t, reconcile(db, source, dir))

	n, err := db.QueryScalar("SELECT count() FROM notes")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	c, err := db.QueryScalar("SELECT count() FROM cards")
	require.NoError(t, err)
	assert.EqualValues(t, 1, c)
}

func TestGitURLToLocalPath(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/user/cards.git", filepath.Join("repos", "github.com", "user", "cards")},
		{"git@github.com:user/cards.git", filepath.Join("repos", "github.com", "user", "cards")},
	}
	for _, tt := range tests {
		got, err := gitURLToLocalPath("repos", tt.url)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := gitURLToLocalPath("repos", "not a url at all")
	assert.Error(t, err)
}
