// Package eventstore caches Nostr events in SQLite with replaceable-event semantics.
package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lepinkainen/nsite-directory/pkg/database"
	"github.com/lepinkainen/nsite-directory/pkg/nostr"
)

var (
	// ErrNotFound is returned when no event matches a lookup
	ErrNotFound = errors.New("event not found")
	// ErrInvalidEvent is returned for events missing an id or pubkey
	ErrInvalidEvent = errors.New("invalid event")
)

const eventColumns = "id, pubkey, created_at, kind, tags, content, sig"

// Store is a SQLite-backed event cache
type Store struct {
	db *database.Database
}

// New applies the event schema to db and returns a store using it
func New(db *database.Database) (*Store, error) {
	version, err := runMigrations(db.DB())
	if err != nil {
		return nil, err
	}

	slog.Debug("Event store ready", "schema_version", version)
	return &Store{db: db}, nil
}

// Add stores event unless it is already known or superseded. Replaceable kinds
// keep the newest event per (kind, pubkey), addressable kinds per (kind, pubkey, d).
// Ties on created_at keep the lowest id.
func (s *Store) Add(ctx context.Context, event *nostr.Event) (bool, error) {
	if event.ID == "" || event.PubKey == "" {
		return false, fmt.Errorf("%w: missing id or pubkey", ErrInvalidEvent)
	}

	tags, err := json.Marshal(event.Tags)
	if err != nil {
		return false, fmt.Errorf("failed to encode tags: %w", err)
	}

	stored := false
	err = s.db.Transaction(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM events WHERE id = ?", event.ID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check event: %w", err)
		}
		if exists > 0 {
			return nil
		}

		if ok, err := supersede(ctx, tx, event); err != nil || !ok {
			return err
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO events (id, pubkey, created_at, kind, d, tags, content, sig) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			event.ID, event.PubKey, event.CreatedAt, event.Kind, addressTag(event), string(tags), event.Content, event.Sig)
		if err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}

		stored = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if stored {
		slog.Debug("Stored event", "id", event.ID, "kind", event.Kind, "pubkey", event.PubKey)
	}
	return stored, nil
}

// addressTag is the d tag for addressable kinds and "" otherwise
func addressTag(event *nostr.Event) string {
	if nostr.IsAddressable(event.Kind) {
		return event.Identifier()
	}
	return ""
}

// supersede removes older versions of a replaceable event. It reports false
// when a newer version is already stored.
func supersede(ctx context.Context, tx *sql.Tx, event *nostr.Event) (bool, error) {
	if !nostr.IsReplaceable(event.Kind) && !nostr.IsAddressable(event.Kind) {
		return true, nil
	}

	rows, err := tx.QueryContext(ctx,
		"SELECT id, created_at FROM events WHERE kind = ? AND pubkey = ? AND d = ?",
		event.Kind, event.PubKey, addressTag(event))
	if err != nil {
		return false, fmt.Errorf("failed to find previous versions: %w", err)
	}

	var older []string
	for rows.Next() {
		var id string
		var createdAt int64
		if err := rows.Scan(&id, &createdAt); err != nil {
			_ = rows.Close()
			return false, fmt.Errorf("failed to scan previous version: %w", err)
		}
		if createdAt > event.CreatedAt || (createdAt == event.CreatedAt && id < event.ID) {
			_ = rows.Close()
			return false, nil
		}
		older = append(older, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return false, err
	}
	if err := rows.Close(); err != nil {
		return false, err
	}

	for _, id := range older {
		if _, err := tx.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id); err != nil {
			return false, fmt.Errorf("failed to delete replaced event: %w", err)
		}
	}
	return true, nil
}

// Sites returns every site manifest, newest first
func (s *Store) Sites(ctx context.Context) ([]nostr.Event, error) {
	return s.query(ctx,
		"SELECT "+eventColumns+" FROM events WHERE kind IN (?, ?) OR (kind = ? AND d = ?) ORDER BY created_at DESC, id",
		nostr.KindRootSite, nostr.KindNamedSite, nostr.KindLegacySite, nostr.LegacyIndexPath)
}

// Profiles returns the stored kind 0 events keyed by pubkey
func (s *Store) Profiles(ctx context.Context) (map[string]*nostr.Event, error) {
	events, err := s.query(ctx, "SELECT "+eventColumns+" FROM events WHERE kind = ?", nostr.KindProfile)
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]*nostr.Event, len(events))
	for i := range events {
		profiles[events[i].PubKey] = &events[i]
	}
	return profiles, nil
}

// Profile returns the kind 0 event of pubkey
func (s *Store) Profile(ctx context.Context, pubkey string) (*nostr.Event, error) {
	return s.one(ctx, "SELECT "+eventColumns+" FROM events WHERE kind = ? AND pubkey = ?", nostr.KindProfile, pubkey)
}

// List returns the addressable event at (kind, pubkey, d)
func (s *Store) List(ctx context.Context, kind int, pubkey, d string) (*nostr.Event, error) {
	return s.one(ctx, "SELECT "+eventColumns+" FROM events WHERE kind = ? AND pubkey = ? AND d = ?", kind, pubkey, d)
}

// Count returns the number of stored events
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// CountByKind returns the number of stored events per kind
func (s *Store) CountByKind(ctx context.Context) (map[int]int, error) {
	rows, err := s.db.DB().QueryContext(ctx, "SELECT kind, COUNT(*) FROM events GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[int]int)
	for rows.Next() {
		var kind, count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[kind] = count
	}
	return counts, rows.Err()
}

func (s *Store) one(ctx context.Context, query string, args ...any) (*nostr.Event, error) {
	events, err := s.query(ctx, query+" ORDER BY created_at DESC LIMIT 1", args...)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrNotFound
	}
	return &events[0], nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]nostr.Event, error) {
	rows, err := s.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []nostr.Event
	for rows.Next() {
		var event nostr.Event
		var tags string
		if err := rows.Scan(&event.ID, &event.PubKey, &event.CreatedAt, &event.Kind, &tags, &event.Content, &event.Sig); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if err := json.NewDecoder(strings.NewReader(tags)).Decode(&event.Tags); err != nil {
			slog.Warn("Skipping event with unreadable tags", "id", event.ID, "error", err)
			continue
		}
		events = append(events, event)
	}

	return events, rows.Err()
}
