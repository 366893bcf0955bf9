package app

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"study-session-engine/internal/domain"
	"study-session-engine/internal/storage"
)

// AnonymousUser scopes history for sessions run without a signed-in
// identity.
const AnonymousUser = "anonymous"

const historyKeyPrefix = "studyHistory:"

// HistoryStore keeps a per-user append-only log of completed session
// summaries, persisted as one JSON array per storage key. Appends are a
// read-modify-write sequence, so they are serialized per user key; without
// that, two concurrent appends could silently drop an entry.
type HistoryStore struct {
	gateway *storage.Gateway

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewHistoryStore(gateway *storage.Gateway) *HistoryStore {
	return &HistoryStore{
		gateway: gateway,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Append adds a summary to the end of the user's log. A missing or corrupt
// stored value reads as an empty log; corruption never blocks new writes.
func (h *HistoryStore) Append(ctx context.Context, userID string, summary domain.SessionSummary) error {
	key := historyKey(userID)
	lock := h.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	raw, err := h.gateway.Read(ctx, key)
	if err != nil {
		return err
	}
	entries := decodeLog(key, raw)
	entries = append(entries, summary)

	payload, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return h.gateway.Write(ctx, key, payload)
}

// ReadAll returns the user's log in completion order. A missing key means
// an empty log, not an error.
func (h *HistoryStore) ReadAll(ctx context.Context, userID string) ([]domain.SessionSummary, error) {
	raw, err := h.gateway.Read(ctx, historyKey(userID))
	if err != nil {
		return nil, err
	}
	return decodeLog(historyKey(userID), raw), nil
}

// Clear wipes the user's log. It writes an empty collection rather than a
// tombstone flag so ReadAll reflects emptiness immediately through the
// same gateway.
func (h *HistoryStore) Clear(ctx context.Context, userID string) error {
	return h.gateway.Write(ctx, historyKey(userID), []byte("[]"))
}

// Stats folds the user's full log into cross-session statistics.
func (h *HistoryStore) Stats(ctx context.Context, userID string) (domain.Stats, error) {
	entries, err := h.ReadAll(ctx, userID)
	if err != nil {
		return domain.Stats{}, err
	}
	return AggregateHistory(entries), nil
}

func (h *HistoryStore) keyLock(key string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	lock, ok := h.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		h.locks[key] = lock
	}
	return lock
}

// decodeLog treats unreadable payloads as empty. Unknown fields are
// ignored and missing fields default, so older entries keep loading as the
// summary shape grows.
func decodeLog(key string, raw []byte) []domain.SessionSummary {
	if len(raw) == 0 {
		return []domain.SessionSummary{}
	}
	var entries []domain.SessionSummary
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Printf("history %s: %v (%v), starting fresh", key, domain.ErrCorruptHistory, err)
		return []domain.SessionSummary{}
	}
	if entries == nil {
		entries = []domain.SessionSummary{}
	}
	return entries
}

func historyKey(userID string) string {
	if userID == "" {
		userID = AnonymousUser
	}
	return historyKeyPrefix + userID
}
