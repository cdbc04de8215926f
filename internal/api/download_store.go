package api

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"
)

// reportDownload holds one finished deck until it is fetched or expires.
type reportDownload struct {
	deck      []byte
	filename  string
	expiresAt time.Time
}

type downloadStore struct {
	mu    sync.Mutex
	items map[string]reportDownload
}

func newDownloadStore() *downloadStore {
	return &downloadStore{items: make(map[string]reportDownload)}
}

func (s *downloadStore) put(deck []byte, filename string, ttl time.Duration) (token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(time.Now())

	token = newRandomToken(24)
	s.items[token] = reportDownload{
		deck:      deck,
		filename:  filename,
		expiresAt: time.Now().Add(ttl),
	}
	return token
}

func (s *downloadStore) get(token string) (reportDownload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(time.Now())

	v, ok := s.items[token]
	if !ok {
		return reportDownload{}, false
	}
	if time.Now().After(v.expiresAt) {
		delete(s.items, token)
		return reportDownload{}, false
	}
	return v, true
}

func (s *downloadStore) delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, token)
}

func (s *downloadStore) purgeExpiredLocked(now time.Time) {
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			delete(s.items, k)
		}
	}
}

func newRandomToken(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
