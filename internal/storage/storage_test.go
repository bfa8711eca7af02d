package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tempodeck/tempo/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBootstrap(t *testing.T) {
	db := openTestDB(t)

	crt, err := db.CreationTime()
	require.NoError(t, err)
	assert.Greater(t, crt, int64(0))

	decks, err := db.LoadDecks()
	require.NoError(t, err)
	require.Len(t, decks, 1)
	assert.Equal(t, "Default", decks[0].Name)
	assert.EqualValues(t, 1, decks[0].ID)

	confs, err := db.LoadDeckConfigs()
	require.NoError(t, err)
	require.Len(t, confs, 1)
	assert.Equal(t, 2500, confs[0].New.InitialFactor)
}

func TestCardRoundTrip(t *testing.T) {
	db := openTestDB(t)

	card := &domain.Card{
		ID: 42, NID: 7, DID: 1, Ord: 1,
		Type: domain.CardTypeReview, Queue: domain.QueueLearning,
		Due: 1_700_000_500, Ivl: 12, Factor: 2350, Reps: 9, Lapses: 2,
		Left: 1001, ODue: 3, ODid: 5, LastIvl: 10,
	}
	require.NoError(t, db.AddCard(card))

	got, err := db.GetCard(42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, card, got)

	got.Factor = 2500
	got.Queue = domain.QueueReview
	require.NoError(t, db.FlushCard(got))

	again, err := db.GetCard(42)
	require.NoError(t, err)
	assert.Equal(t, 2500, again.Factor)
	assert.Equal(t, domain.QueueReview, again.Queue)

	missing, err := db.GetCard(999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestQueryHelpers(t *testing.T) {
	db := openTestDB(t)
	for i := int64(1); i <= 3; i++ {
		require.NoError(t, db.AddCard(&domain.Card{ID: i, NID: i, DID: 1, Due: 10 - i}))
	}

	n, err := db.QueryScalar("SELECT count() FROM cards")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	ids, err := db.QueryLongList("SELECT id FROM cards ORDER BY due")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2, 1}, ids)
}

func TestExecuteMany(t *testing.T) {
	db := openTestDB(t)
	for i := int64(1); i <= 3; i++ {
		require.NoError(t, db.AddCard(&domain.Card{ID: i, NID: i, DID: 1}))
	}
	err := db.ExecuteMany("UPDATE cards SET due = ? WHERE id = ?", [][]any{
		{100, int64(1)}, {200, int64(2)}, {300, int64(3)},
	})
	require.NoError(t, err)
	dues, err := db.QueryLongList("SELECT due FROM cards ORDER BY id")
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 200, 300}, dues)
}

func TestNoteTags(t *testing.T) {
	db := openTestDB(t)
	nid, err := db.AddNote(&Note{GUID: "g", Front: "f", Back: "b", Checksum: "c"})
	require.NoError(t, err)

	has, err := db.HasTag(nid, "leech")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, db.AddTag(nid, "leech"))
	has, err = db.HasTag(nid, "leech")
	require.NoError(t, err)
	assert.True(t, has)

	// Adding twice does not duplicate.
	require.NoError(t, db.AddTag(nid, "leech"))
	note, err := db.GetNote(nid)
	require.NoError(t, err)
	assert.Equal(t, []string{"leech"}, note.Tags)

	require.NoError(t, db.DelTag(nid, "leech"))
	has, err = db.HasTag(nid, "leech")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestFindNoteByChecksum(t *testing.T) {
	db := openTestDB(t)
	_, err := db.AddNote(&Note{GUID: "g", Front: "f", Back: "b", Checksum: "abc"})
	require.NoError(t, err)

	note, err := db.FindNoteByChecksum("abc")
	require.NoError(t, err)
	require.NotNil(t, note)
	assert.Equal(t, "f", note.Front)

	none, err := db.FindNoteByChecksum("missing")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestConfigRoundTrip(t *testing.T) {
	db := openTestDB(t)

	assert.Equal(t, 1200, db.GetInt("collapseTime", 1200))
	require.NoError(t, db.SetInt("collapseTime", 600))
	assert.Equal(t, 600, db.GetInt("collapseTime", 1200))

	assert.False(t, db.GetBool("dayLearnFirst", false))
	require.NoError(t, db.SetConfig("dayLearnFirst", "true"))
	assert.True(t, db.GetBool("dayLearnFirst", false))
}

func TestFindCards(t *testing.T) {
	db := openTestDB(t)
	nid, err := db.AddNote(&Note{GUID: "g", Front: "bonjour", Back: "hello", Checksum: "c1", Tags: []string{"french"}})
	require.NoError(t, err)
	nid2, err := db.AddNote(&Note{GUID: "g2", Front: "hola", Back: "hello", Checksum: "c2"})
	require.NoError(t, err)

	require.NoError(t, db.AddCard(&domain.Card{ID: 1, NID: nid, DID: 1, Queue: domain.QueueReview, Type: domain.CardTypeReview}))
	require.NoError(t, db.AddCard(&domain.Card{ID: 2, NID: nid2, DID: 1, Queue: domain.QueueSuspended, Type: domain.CardTypeReview}))
	require.NoError(t, db.AddCard(&domain.Card{ID: 3, NID: nid2, DID: 1, Queue: domain.QueueNew}))

	t.Run("empty matches all", func(t *testing.T) {
		ids, err := db.FindCards("", "c.id", 0)
		require.NoError(t, err)
		assert.Len(t, ids, 3)
	})
	t.Run("is:review", func(t *testing.T) {
		ids, err := db.FindCards("is:review", "", 0)
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, ids)
	})
	t.Run("negation", func(t *testing.T) {
		ids, err := db.FindCards("-is:suspended", "c.id", 0)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 3}, ids)
	})
	t.Run("tag", func(t *testing.T) {
		ids, err := db.FindCards("tag:french", "", 0)
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, ids)
	})
	t.Run("content", func(t *testing.T) {
		ids, err := db.FindCards("hola", "c.id", 0)
		require.NoError(t, err)
		assert.Equal(t, []int64{2, 3}, ids)
	})
	t.Run("deck", func(t *testing.T) {
		ids, err := db.FindCards("deck:Default", "c.id", 0)
		require.NoError(t, err)
		assert.Len(t, ids, 3)
	})
	t.Run("unknown deck matches nothing", func(t *testing.T) {
		ids, err := db.FindCards("deck:Nope", "", 0)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
	t.Run("limit", func(t *testing.T) {
		ids, err := db.FindCards("", "c.id", 2)
		require.NoError(t, err)
		assert.Len(t, ids, 2)
	})
	t.Run("bad term", func(t *testing.T) {
		_, err := db.FindCards("is:bogus", "", 0)
		assert.Error(t, err)
	})
}

func TestSources(t *testing.T) {
	db := openTestDB(t)
	id, err := db.InsertSource("/tmp/cards", "local", 1)
	require.NoError(t, err)

	sources, err := db.GetAllSources()
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "/tmp/cards", sources[0].Path)
	assert.Equal(t, "local", sources[0].Type)

	require.NoError(t, db.UpdateSourceLastScanned(id))
	require.NoError(t, db.DeleteSource(id))
	sources, err = db.GetAllSources()
	require.NoError(t, err)
	assert.Empty(t, sources)
}
