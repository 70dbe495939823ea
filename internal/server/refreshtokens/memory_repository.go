package refreshtokens

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository is a revocation list held in memory. Entries are dropped
// once the credential they describe would have expired anyway.
type MemoryRepository struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryRepository(now func() time.Time) *MemoryRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryRepository{revoked: make(map[string]time.Time), now: now}
}

func (r *MemoryRepository) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.purgeLocked()
	r.revoked[tokenID] = expiresAt
	return nil
}

func (r *MemoryRepository) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.revoked[tokenID]
	return ok, nil
}

func (r *MemoryRepository) purgeLocked() {
	now := r.now()
	for id, exp := range r.revoked {
		if now.After(exp) {
			delete(r.revoked, id)
		}
	}
}
