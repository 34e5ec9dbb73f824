// Package memory provides an in-memory CredentialStore used by tests and the
// development profile. It mirrors the Mongo store's semantics, including the
// version-guarded updates.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/signet-auth/signet/internal/core/domain"
)

type IdentityStore struct {
	mu         sync.RWMutex
	identities map[string]*domain.Identity
}

func NewIdentityStore() *IdentityStore {
	return &IdentityStore{identities: make(map[string]*domain.Identity)}
}

func (r *IdentityStore) FindByKey(_ context.Context, key string) (*domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identity, ok := r.identities[key]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return identity.Clone(), nil
}

func (r *IdentityStore) ExistsByKey(_ context.Context, key string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.identities[key]
	return ok, nil
}

func (r *IdentityStore) Insert(_ context.Context, identity *domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.identities[identity.Key]; exists {
		return domain.ErrDuplicateKey
	}
	identity.Version = 1
	r.identities[identity.Key] = identity.Clone()
	return nil
}

func (r *IdentityStore) Update(_ context.Context, identity *domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.identities[identity.Key]
	if !ok {
		return domain.ErrIdentityNotFound
	}
	if stored.Version != identity.Version {
		return domain.ErrVersionConflict
	}
	identity.Version++
	r.identities[identity.Key] = identity.Clone()
	return nil
}

func (r *IdentityStore) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.identities[key]; !ok {
		return domain.ErrIdentityNotFound
	}
	delete(r.identities, key)
	return nil
}

func (r *IdentityStore) All(_ context.Context) ([]domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.identities))
	for key := range r.identities {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	identities := make([]domain.Identity, 0, len(keys))
	for _, key := range keys {
		identities = append(identities, *r.identities[key].Clone())
	}
	return identities, nil
}
