package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/tempodeck/tempo/internal/deck"
	"github.com/tempodeck/tempo/internal/domain"
	"github.com/tempodeck/tempo/internal/scheduler"
	"github.com/tempodeck/tempo/internal/storage"
	"github.com/tempodeck/tempo/internal/timeutil"
)

func newTestServer(t *testing.T) (*Server, *storage.DB) {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	decks, err := deck.Load(db)
	if err != nil {
		t.Fatalf("load decks: %v", err)
	}
	crt, err := db.CreationTime()
	if err != nil {
		t.Fatalf("crt: %v", err)
	}
	// No initial reset: the handlers reset lazily, so cards added by the
	// test are picked up on first use.
	sched := scheduler.New(db, decks, db, timeutil.New(crt), db, scheduler.Options{})
	return NewServer(db, decks, sched), db
}

func addCard(t *testing.T, db *storage.DB, front string, due int64) int64 {
	t.Helper()
	nid, err := db.AddNote(&storage.Note{GUID: front, Front: front, Back: "back", Checksum: front})
	if err != nil {
		t.Fatalf("add note: %v", err)
	}
	id := due + 100
	err = db.AddCard(&domain.Card{ID: id, NID: nid, DID: 1, Type: domain.CardTypeNew, Queue: domain.QueueNew, Due: due})
	if err != nil {
		t.Fatalf("add card: %v", err)
	}
	return id
}

func TestCounts(t *testing.T) {
	srv, db := newTestServer(t)
	addCard(t, db, "q1", 0)
	addCard(t, db, "q2", 1)

	req := httptest.NewRequest("GET", "/counts", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var counts struct{ New, Learn, Rev int }
	if err := json.NewDecoder(rec.Body).Decode(&counts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if counts.New != 2 || counts.Learn != 0 || counts.Rev != 0 {
		t.Errorf("counts = %+v, want {2 0 0}", counts)
	}
}

func TestReviewFlow(t *testing.T) {
	srv, db := newTestServer(t)
	addCard(t, db, "bonjour", 0)

	req := httptest.NewRequest("GET", "/review/next", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("next: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var card struct {
		ID      int64
		Front   string
		Buttons int
	}
	if err := json.NewDecoder(rec.Body).Decode(&card); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if card.Front != "bonjour" {
		t.Errorf("front = %q, want bonjour", card.Front)
	}
	if card.Buttons != 4 {
		t.Errorf("buttons = %d, want 4", card.Buttons)
	}

	// Answer Good; the single card moves into learning so another card
	// is not yet due.
	form := url.Values{"ease": {"3"}}
	req = httptest.NewRequest("POST", "/review/"+jsonNum(card.ID), strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK && rec.Code != http.StatusNoContent {
		t.Fatalf("answer: status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestAnswerBadEase(t *testing.T) {
	srv, db := newTestServer(t)
	id := addCard(t, db, "q", 0)

	form := url.Values{"ease": {"9"}}
	req := httptest.NewRequest("POST", "/review/"+jsonNum(id), strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSuspendEndpoint(t *testing.T) {
	srv, db := newTestServer(t)
	id := addCard(t, db, "q", 0)

	form := url.Values{"ids": {jsonNum(id)}}
	req := httptest.NewRequest("POST", "/cards/suspend", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	card, err := db.GetCard(id)
	if err != nil {
		t.Fatalf("get card: %v", err)
	}
	if card.Queue != domain.QueueSuspended {
		t.Errorf("queue = %v, want Suspended", card.Queue)
	}
}

func jsonNum(id int64) string {
	return strconv.FormatInt(id, 10)
}
