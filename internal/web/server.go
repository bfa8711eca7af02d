// Package web exposes the review loop over a small JSON API.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/tempodeck/tempo/internal/deck"
	"github.com/tempodeck/tempo/internal/scheduler"
	"github.com/tempodeck/tempo/internal/storage"
)

// Server holds the dependencies for the HTTP review surface.
type Server struct {
	db     *storage.DB
	decks  *deck.Manager
	sched  *scheduler.Scheduler
	router *http.ServeMux
}

// NewServer wires the routes.
func NewServer(db *storage.DB, decks *deck.Manager, sched *scheduler.Scheduler) *Server {
	s := &Server{db: db, decks: decks, sched: sched, router: http.NewServeMux()}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /counts", s.handleCounts)
	s.router.HandleFunc("GET /review/next", s.handleNext)
	s.router.HandleFunc("POST /review/{id}", s.handleAnswer)
	s.router.HandleFunc("POST /cards/bury", s.handleBury)
	s.router.HandleFunc("POST /cards/suspend", s.handleSuspend)
	s.router.HandleFunc("POST /decks/{id}/rebuild", s.handleRebuild)
}

type cardView struct {
	ID      int64  `json:"id"`
	Front   string `json:"front"`
	Back    string `json:"back"`
	Context string `json:"context,omitempty"`
	Buttons int    `json:"buttons"`
}

type countsView struct {
	New   int `json:"new"`
	Learn int `json:"learn"`
	Rev   int `json:"rev"`
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	if !s.sched.HaveCounts() {
		if err := s.sched.Reset(); err != nil {
			s.internalError(w, "resetting scheduler", err)
			return
		}
	}
	n, l, rv := s.sched.Counts()
	writeJSON(w, countsView{New: n, Learn: l, Rev: rv})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	card, err := s.sched.GetCard()
	if err != nil {
		s.internalError(w, "fetching next card", err)
		return
	}
	if card == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	note, err := s.db.GetNote(card.NID)
	if err != nil || note == nil {
		s.internalError(w, "loading note", err)
		return
	}
	writeJSON(w, cardView{
		ID:      card.ID,
		Front:   note.Front,
		Back:    note.Back,
		Context: note.Context,
		Buttons: s.sched.AnswerButtons(card),
	})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid card id", http.StatusBadRequest)
		return
	}
	ease, err := strconv.Atoi(r.PostFormValue("ease"))
	if err != nil {
		http.Error(w, "invalid ease", http.StatusBadRequest)
		return
	}
	card, err := s.db.GetCard(id)
	if err != nil {
		s.internalError(w, "loading card", err)
		return
	}
	if card == nil {
		http.NotFound(w, r)
		return
	}
	if err := s.sched.AnswerCard(card, ease); err != nil {
		if errors.Is(err, scheduler.ErrInvalidTransition) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.internalError(w, "answering card", err)
		return
	}
	s.handleNext(w, r)
}

func (s *Server) handleBury(w http.ResponseWriter, r *http.Request) {
	ids, ok := parseIDs(w, r)
	if !ok {
		return
	}
	if err := s.sched.BuryCards(ids, true); err != nil {
		s.internalError(w, "burying cards", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSuspend(w http.ResponseWriter, r *http.Request) {
	ids, ok := parseIDs(w, r)
	if !ok {
		return
	}
	if err := s.sched.SuspendCards(ids); err != nil {
		s.internalError(w, "suspending cards", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid deck id", http.StatusBadRequest)
		return
	}
	cnt, err := s.sched.RebuildDyn(id)
	if err != nil {
		if errors.Is(err, scheduler.ErrNotDynamic) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.internalError(w, "rebuilding filtered deck", err)
		return
	}
	s.sched.DeferReset(nil)
	writeJSON(w, map[string]int{"gathered": cnt})
}

func parseIDs(w http.ResponseWriter, r *http.Request) ([]int64, bool) {
	raw := r.PostFormValue("ids")
	if raw == "" {
		http.Error(w, "missing ids", http.StatusBadRequest)
		return nil, false
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			http.Error(w, "invalid id "+part, http.StatusBadRequest)
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
