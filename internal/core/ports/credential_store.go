package ports

import (
	"context"

	"github.com/signet-auth/signet/internal/core/domain"
)

// CredentialStore is the persistence boundary for API identities. All
// operations are atomic with respect to a single identity; Update is
// conditional on the version read by the caller and fails with
// domain.ErrVersionConflict when a concurrent writer got there first.
type CredentialStore interface {
	FindByKey(ctx context.Context, key string) (*domain.Identity, error)
	ExistsByKey(ctx context.Context, key string) (bool, error)
	Insert(ctx context.Context, identity *domain.Identity) error
	Update(ctx context.Context, identity *domain.Identity) error
	Delete(ctx context.Context, key string) error
	All(ctx context.Context) ([]domain.Identity, error)
}
