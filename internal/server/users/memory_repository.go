package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/google/uuid"
)

// MemoryRepository keeps accounts in process memory. Returned users are
// copies; mutate them through the repository only.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byLogin map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*User),
		byLogin: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(_ context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byLogin[user.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}

	u := user.clone()
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()

	r.byID[u.ID] = u
	r.byLogin[u.Email] = u.ID

	return u.clone(), nil
}

func (r *MemoryRepository) GetUserByLogin(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byLogin[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.byID[id].clone(), nil
}

func (r *MemoryRepository) GetUserByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u.clone(), nil
}

func (r *MemoryRepository) UpdateVerifier(_ context.Context, id string, salt, verifier []byte) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.Salt = append([]byte(nil), salt...)
	u.Verifier = append([]byte(nil), verifier...)
	u.Version++

	return u.clone(), nil
}
