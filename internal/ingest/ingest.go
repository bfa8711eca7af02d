// Package ingest reconciles card sources with the collection: markdown files
// from local directories or git checkouts become notes and new cards, and
// notes whose files disappeared are removed.
package ingest

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tempodeck/tempo/internal/domain"
	"github.com/tempodeck/tempo/internal/gitsource"
	"github.com/tempodeck/tempo/internal/parser"
	"github.com/tempodeck/tempo/internal/storage"
)

// ReposDir is where git sources are checked out.
const ReposDir = "repos"

// Run reconciles every registered source.
func Run(db *storage.DB) error {
	sources, err := db.GetAllSources()
	if err != nil {
		return fmt.Errorf("loading sources: %w", err)
	}
	if len(sources) == 0 {
		slog.Info("no sources configured")
		return nil
	}
	if err := os.MkdirAll(ReposDir, 0o755); err != nil {
		return fmt.Errorf("creating repos dir: %w", err)
	}

	for _, source := range sources {
		slog.Info("syncing source", "id", source.ID, "type", source.Type, "path", source.Path)
		path := source.Path
		if source.Type == "git" {
			local, err := gitURLToLocalPath(ReposDir, source.Path)
			if err != nil {
				slog.Error("resolving git source path", "url", source.Path, "error", err)
				continue
			}
			if err := gitsource.Sync(source.Path, local); err != nil {
				slog.Error("syncing git source", "url", source.Path, "error", err)
				continue
			}
			path = local
		}
		if err := reconcile(db, source, path); err != nil {
			slog.Error("reconciling source", "id", source.ID, "error", err)
		}
	}
	return nil
}

// reconcile walks the source directory, imports unseen cards, and deletes
// notes whose cards vanished from the files.
func reconcile(db *storage.DB, source storage.Source, root string) error {
	var parsed int
	var imported int
	foundChecksums := map[string]bool{}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		cards, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			slog.Warn("parsing file", "path", path, "error", parseErr)
			return nil
		}
		for _, card := range cards {
			parsed++
			csum := parser.Checksum(card)
			foundChecksums[csum] = true
			existing, err := db.FindNoteByChecksum(csum)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			if err := importCard(db, source, card, csum); err != nil {
				return err
			}
			imported++
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("walking %s: %w", root, walkErr)
	}

	// Orphans: notes imported from this source whose card no longer exists
	// in any file.
	nids, err := db.NotesBySourceID(source.ID)
	if err != nil {
		return err
	}
	orphaned := 0
	for _, nid := range nids {
		note, err := db.GetNote(nid)
		if err != nil {
			return err
		}
		if note == nil || foundChecksums[note.Checksum] {
			continue
		}
		slog.Info("deleting orphaned note", "nid", nid)
		if err := db.DeleteNote(nid); err != nil {
			return err
		}
		orphaned++
	}

	if err := db.UpdateSourceLastScanned(source.ID); err != nil {
		slog.Warn("updating source scan time", "source", source.ID, "error", err)
	}
	slog.Info("reconciliation complete",
		"path", root, "parsed", parsed, "imported", imported, "orphaned", orphaned)
	return nil
}

// importCard creates a note and a new card at the end of the new queue.
func importCard(db *storage.DB, source storage.Source, card parser.Card, csum string) error {
	now := time.Now()
	note := &storage.Note{
		GUID:     uuid.NewString(),
		Mod:      now.Unix(),
		USN:      -1,
		Front:    card.Front,
		Back:     card.Back,
		Context:  card.Context,
		Checksum: csum,
	}
	note.SourceID.Int64 = source.ID
	note.SourceID.Valid = true
	nid, err := db.AddNote(note)
	if err != nil {
		return err
	}

	pos, err := db.QueryScalar("SELECT coalesce(max(due), 0) FROM cards WHERE type = ?", int(domain.CardTypeNew))
	if err != nil {
		return err
	}
	// Card ids follow the epoch-millisecond convention, nudged past any
	// existing id minted in the same millisecond.
	id := now.UnixMilli()
	maxID, err := db.QueryScalar("SELECT coalesce(max(id), 0) FROM cards")
	if err != nil {
		return err
	}
	if id <= maxID {
		id = maxID + 1
	}
	return db.AddCard(&domain.Card{
		ID:    id,
		NID:   nid,
		DID:   source.DeckID,
		Mod:   now.Unix(),
		USN:   -1,
		Type:  domain.CardTypeNew,
		Queue: domain.QueueNew,
		Due:   pos + 1,
	})
}

// gitURLToLocalPath maps a git URL (https or scp-like) to a stable checkout
// location under baseDir.
func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsed, err := url.Parse(repoURL)
	if err == nil && (parsed.Scheme == "https" || parsed.Scheme == "http") {
		return filepath.Join(baseDir, parsed.Host, strings.TrimSuffix(parsed.Path, ".git")), nil
	}
	// scp-like: git@host:user/repo.git
	if at := strings.Index(repoURL, "@"); at >= 0 {
		rest := repoURL[at+1:]
		if colon := strings.Index(rest, ":"); colon >= 0 {
			host := rest[:colon]
			repoPath := strings.TrimSuffix(rest[colon+1:], ".git")
			return filepath.Join(baseDir, host, repoPath), nil
		}
	}
	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}
