package notices

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/jamalpur-chamber/chamber/internal/kvstore"
)

// DefaultCacheTimeout is how long a cached list stays usable.
const DefaultCacheTimeout = 5 * time.Minute

// cacheEntry is the persisted {data,timestamp} pair. Timestamp is epoch
// milliseconds.
type cacheEntry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// CacheStatus describes the cached notices entry.
type CacheStatus struct {
	Present bool
	Valid   bool
	Count   int
	Age     time.Duration
}

func (s *Service) writeCache(ctx context.Context, data json.RawMessage) {
	entry, err := json.Marshal(cacheEntry{Data: data, Timestamp: s.now().UnixMilli()})
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, kvstore.KeyNotices, entry); err != nil {
		s.log.Warn("write notices cache", "err", err)
	}
}

// readCache returns the cached array when it is still within the timeout.
func (s *Service) readCache(ctx context.Context) (json.RawMessage, bool) {
	entry, age, ok := s.loadEntry(ctx)
	if !ok || age >= s.timeout {
		return nil, false
	}
	return entry.Data, true
}

func (s *Service) loadEntry(ctx context.Context) (cacheEntry, time.Duration, bool) {
	raw, ok, err := s.store.Get(ctx, kvstore.KeyNotices)
	if err != nil {
		s.log.Warn("read notices cache", "err", err)
		return cacheEntry{}, 0, false
	}
	if !ok {
		return cacheEntry{}, 0, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return cacheEntry{}, 0, false
	}
	if !isArray(entry.Data) {
		return cacheEntry{}, 0, false
	}
	age := s.now().Sub(time.UnixMilli(entry.Timestamp))
	return entry, age, true
}

func (s *Service) clearCache(ctx context.Context) {
	if err := s.store.Remove(ctx, kvstore.KeyNotices); err != nil {
		s.log.Warn("clear notices cache", "err", err)
	}
}

// CacheStatus reports on the cached entry without touching the network.
func (s *Service) CacheStatus(ctx context.Context) CacheStatus {
	entry, age, ok := s.loadEntry(ctx)
	if !ok {
		return CacheStatus{}
	}
	var items []json.RawMessage
	_ = json.Unmarshal(entry.Data, &items)
	return CacheStatus{
		Present: true,
		Valid:   age < s.timeout,
		Count:   len(items),
		Age:     age,
	}
}

// ClearCache drops the cached entry.
func (s *Service) ClearCache(ctx context.Context) {
	s.clearCache(ctx)
}

func isArray(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return false
	}
	return json.Valid(trimmed)
}
