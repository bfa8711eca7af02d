package main

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/tempodeck/tempo/internal/config"
	"github.com/tempodeck/tempo/internal/deck"
	"github.com/tempodeck/tempo/internal/ingest"
	"github.com/tempodeck/tempo/internal/scheduler"
	"github.com/tempodeck/tempo/internal/storage"
	"github.com/tempodeck/tempo/internal/timeutil"
	"github.com/tempodeck/tempo/internal/web"
)

func main() {
	fs := flag.NewFlagSet("tempo", flag.ExitOnError)
	config.Flags(fs)
	addSource := fs.String("add-source", "", "register a card source (path or git URL) and exit")
	sourceDeck := fs.String("source-deck", "Default", "deck imported cards are added to")
	if err := fs.Parse(os.Args[1:]); err != nil {
		slog.Error("parsing flags", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		slog.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	decks, err := deck.Load(db)
	if err != nil {
		slog.Error("loading decks", "error", err)
		os.Exit(1)
	}

	if *addSource != "" {
		if err := registerSource(db, decks, *addSource, *sourceDeck); err != nil {
			slog.Error("adding source", "error", err)
			os.Exit(1)
		}
		return
	}

	if cfg.Sync {
		if err := ingest.Run(db); err != nil {
			slog.Error("syncing sources", "error", err)
			os.Exit(1)
		}
	}

	crt, err := db.CreationTime()
	if err != nil {
		slog.Error("reading collection creation time", "error", err)
		os.Exit(1)
	}
	sched := scheduler.New(db, decks, db, timeutil.New(crt), db, scheduler.Options{})
	if err := sched.Reset(); err != nil {
		slog.Error("initial scheduler reset", "error", err)
		os.Exit(1)
	}

	srv := web.NewServer(db, decks, sched)
	slog.Info("serving review API", "addr", cfg.Listen, "scheduler", sched.Name())
	if err := http.ListenAndServe(cfg.Listen, srv); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// registerSource stores a new card source, inferring its type from the path.
func registerSource(db *storage.DB, decks *deck.Manager, path, deckName string) error {
	d, err := decks.Create(deckName)
	if err != nil {
		return err
	}
	typ := "local"
	if strings.HasSuffix(path, ".git") || strings.HasPrefix(path, "git@") || strings.HasPrefix(path, "https://") {
		typ = "git"
	}
	id, err := db.InsertSource(path, typ, d.ID)
	if err != nil {
		return err
	}
	slog.Info("source registered", "id", id, "type", typ, "deck", deckName)
	return nil
}
