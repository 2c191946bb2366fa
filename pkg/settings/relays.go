// Package settings holds the user-editable relay list.
package settings

import (
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/lepinkainen/nsite-directory/pkg/kvstore"
	"github.com/lepinkainen/nsite-directory/pkg/observable"
	"github.com/lepinkainen/nsite-directory/pkg/urlutils"
)

// RelaysKey is the store key holding the JSON-encoded relay list
const RelaysKey = "appRelays"

// Validation errors returned by Add. The messages are shown to users as-is.
var (
	ErrEmptyRelay      = errors.New("enter a relay URL")
	ErrInvalidRelayURL = errors.New("enter a valid URL")
	ErrRelayScheme     = errors.New("must start with ws:// or wss://")
	ErrRelayExists     = errors.New("relay already exists")
)

var defaultRelays = []string{
	"wss://nostrue.com",
	"wss://relay.damus.io",
	"wss://purplerelay.com",
	"wss://relay.snort.social",
	"wss://nostr.wine",
	"wss://relay.primal.net",
}

// DefaultRelays returns a copy of the built-in relay list
func DefaultRelays() []string {
	return slices.Clone(defaultRelays)
}

// RelayStore is the process-wide relay list. Every change is written to the
// key-value store and pushed to subscribers before the call returns.
type RelayStore struct {
	mu      sync.Mutex
	store   kvstore.Store
	relays  []string
	seq     uint64 // bumped by every commit
	subject *observable.Subject[[]string]

	notifyMu  sync.Mutex
	delivered uint64 // seq of the last list pushed to subscribers
}

// NewRelayStore loads the persisted relay list, falling back to the defaults
// when nothing usable is stored. Storage errors are logged, never returned.
func NewRelayStore(store kvstore.Store) *RelayStore {
	relays := loadRelays(store)

	return &RelayStore{
		store:   store,
		relays:  relays,
		subject: observable.NewSubject(slices.Clone(relays)),
	}
}

// loadRelays reads the stored list or returns the defaults
func loadRelays(store kvstore.Store) []string {
	value, ok, err := store.Get(RelaysKey)
	if err != nil {
		slog.Warn("Failed to read stored relays, using defaults", "error", err)
		return DefaultRelays()
	}
	if !ok {
		return DefaultRelays()
	}

	var stored []string
	if err := json.Unmarshal([]byte(value), &stored); err != nil || stored == nil {
		slog.Warn("Stored relay list is unreadable, using defaults", "error", err)
		return DefaultRelays()
	}

	relays := make([]string, 0, len(stored))
	for _, relay := range stored {
		if err := validateRelay(relay, relays); err != nil {
			slog.Warn("Dropping stored relay", "relay", relay, "error", err)
			continue
		}
		relays = append(relays, relay)
	}

	slog.Debug("Loaded stored relays", "count", len(relays))
	return relays
}

// validateRelay checks a trimmed candidate against the list invariants
func validateRelay(relay string, existing []string) error {
	if relay == "" {
		return ErrEmptyRelay
	}
	if !urlutils.IsValidURL(relay) {
		return ErrInvalidRelayURL
	}
	if !urlutils.HasScheme(relay, "ws", "wss") {
		return ErrRelayScheme
	}
	if slices.Contains(existing, relay) {
		return ErrRelayExists
	}
	return nil
}

// Relays returns a copy of the current relay list
func (s *RelayStore) Relays() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.relays)
}

// Add appends a relay after trimming and validating it
func (s *RelayStore) Add(candidate string) error {
	relay := strings.TrimSpace(candidate)

	s.mu.Lock()
	if err := validateRelay(relay, s.relays); err != nil {
		s.mu.Unlock()
		return err
	}
	relays := append(slices.Clone(s.relays), relay)
	seq := s.commit(relays)
	s.mu.Unlock()

	slog.Info("Relay added", "relay", relay)
	s.publish(seq, slices.Clone(relays))
	return nil
}

// Remove deletes every entry equal to target. Removing an unknown relay is not an error.
func (s *RelayStore) Remove(target string) {
	s.mu.Lock()
	relays := slices.DeleteFunc(slices.Clone(s.relays), func(relay string) bool {
		return relay == target
	})
	seq := s.commit(relays)
	s.mu.Unlock()

	slog.Info("Relay removed", "relay", target)
	s.publish(seq, slices.Clone(relays))
}

// Reset restores the default relay list
func (s *RelayStore) Reset() {
	relays := DefaultRelays()

	s.mu.Lock()
	seq := s.commit(relays)
	s.mu.Unlock()

	slog.Info("Relays reset to defaults")
	s.publish(seq, slices.Clone(relays))
}

// Subscribe registers a listener for relay list changes. It is called with
// the current list immediately and after every change. Listeners may read
// the store but must not modify it.
func (s *RelayStore) Subscribe(listener func([]string)) (unsubscribe func()) {
	return s.subject.Subscribe(listener)
}

// publish pushes relays to subscribers. Concurrent mutations may reach here
// out of commit order; a list older than the last delivered one is dropped.
func (s *RelayStore) publish(seq uint64, relays []string) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if seq <= s.delivered {
		slog.Debug("Skipping stale relay notification", "seq", seq, "delivered", s.delivered)
		return
	}
	s.delivered = seq
	s.subject.Next(relays)
}

// commit replaces the in-memory list and writes it through; callers hold s.mu.
// A failed write is logged and the in-memory change is kept. It returns the
// sequence number of the change.
func (s *RelayStore) commit(relays []string) uint64 {
	s.relays = relays
	s.seq++
	seq := s.seq

	encoded, err := json.Marshal(relays)
	if err != nil {
		slog.Warn("Failed to encode relays", "error", err)
		return seq
	}

	if err := s.store.Set(RelaysKey, string(encoded), 0); err != nil {
		slog.Warn("Failed to save relays", "error", err)
	}
	return seq
}
