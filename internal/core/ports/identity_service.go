package ports

import (
	"context"

	"github.com/signet-auth/signet/internal/core/domain"
)

// UpdateIdentityInput carries the optional fields of an identity update.
// Empty fields are left untouched.
type UpdateIdentityInput struct {
	Email  string
	Secret string
}

// IdentityService manages the lifecycle of API credentials while preserving
// the invariants the request authentication protocol depends on.
type IdentityService interface {
	CreateIdentity(ctx context.Context, key, email string) (*domain.Identity, error)
	UpdateIdentity(ctx context.Context, key string, input UpdateIdentityInput) error
	ToggleIdentity(ctx context.Context, key string, enabled bool) error
	SetRole(ctx context.Context, key, role string) error
	RemoveRole(ctx context.Context, key, role string) error
	DeleteIdentity(ctx context.Context, key string) error
	GetIdentity(ctx context.Context, key string) (domain.IdentityView, error)
	GetIdentities(ctx context.Context) ([]domain.IdentityView, error)
}
