package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/signet-auth/signet/internal/api/metrics"
	"github.com/signet-auth/signet/internal/core/domain"
	"github.com/signet-auth/signet/internal/core/ports"
)

const secretBytes = 16

// CredentialService implements the identity lifecycle over a CredentialStore.
type CredentialService struct {
	store        ports.CredentialStore
	allowedRoles []string
	validate     *validator.Validate
	logger       zerolog.Logger
}

// NewCredentialService builds the service. allowedRoles is the role
// vocabulary grantable via SetRole; when empty, domain.DefaultRoles applies.
func NewCredentialService(store ports.CredentialStore, allowedRoles []string, logger zerolog.Logger) *CredentialService {
	if len(allowedRoles) == 0 {
		allowedRoles = domain.DefaultRoles
	}
	return &CredentialService{
		store:        store,
		allowedRoles: allowedRoles,
		validate:     validator.New(),
		logger:       logger,
	}
}

// CreateIdentity registers a new API identity under the given key. The
// signing secret is generated server-side from a cryptographically strong
// random source; the caller never chooses it.
func (s *CredentialService) CreateIdentity(ctx context.Context, key, email string) (*domain.Identity, error) {
	if key == "" || email == "" {
		return nil, fmt.Errorf("%w: key and email are required", domain.ErrInvalidInput)
	}
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: malformed email", domain.ErrInvalidInput)
	}

	exists, err := s.store.ExistsByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateKey
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}

	now := time.Now().UTC()
	identity := &domain.Identity{
		Key:       key,
		Secret:    secret,
		Email:     email,
		Enabled:   true,
		Roles:     domain.NewRoleSet(domain.RoleUser),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Insert(ctx, identity); err != nil {
		metrics.LifecycleOpsTotal.WithLabelValues("create", "error").Inc()
		return nil, err
	}

	s.logger.Info().Str("key", key).Msg("identity created")
	metrics.LifecycleOpsTotal.WithLabelValues("create", "ok").Inc()
	return identity, nil
}

// UpdateIdentity applies the non-empty fields of input to an existing
// identity. An empty field leaves the stored value untouched.
func (s *CredentialService) UpdateIdentity(ctx context.Context, key string, input ports.UpdateIdentityInput) error {
	identity, err := s.store.FindByKey(ctx, key)
	if err != nil {
		return err
	}

	if input.Email != "" {
		if err := s.validate.Var(input.Email, "required,email"); err != nil {
			return fmt.Errorf("%w: malformed email", domain.ErrInvalidInput)
		}
		identity.Email = input.Email
	}
	if input.Secret != "" {
		identity.Secret = input.Secret
	}
	identity.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, identity); err != nil {
		metrics.LifecycleOpsTotal.WithLabelValues("update", "error").Inc()
		return err
	}
	metrics.LifecycleOpsTotal.WithLabelValues("update", "ok").Inc()
	return nil
}

// ToggleIdentity enables or disables an identity. Disabled identities fail
// authentication regardless of digest correctness.
func (s *CredentialService) ToggleIdentity(ctx context.Context, key string, enabled bool) error {
	identity, err := s.store.FindByKey(ctx, key)
	if err != nil {
		return err
	}
	identity.Enabled = enabled
	identity.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, identity); err != nil {
		return err
	}
	s.logger.Info().Str("key", key).Bool("enabled", enabled).Msg("identity toggled")
	metrics.LifecycleOpsTotal.WithLabelValues("toggle", "ok").Inc()
	return nil
}

// SetRole grants a role from the configured vocabulary. Granting a role the
// identity already holds is reported as an error.
func (s *CredentialService) SetRole(ctx context.Context, key, role string) error {
	if !s.roleAllowed(role) {
		return fmt.Errorf("%w: %s", domain.ErrInvalidRole, role)
	}

	identity, err := s.store.FindByKey(ctx, key)
	if err != nil {
		return err
	}
	if err := identity.Roles.Add(role); err != nil {
		return fmt.Errorf("%w: %s", err, role)
	}
	identity.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, identity); err != nil {
		return err
	}
	metrics.LifecycleOpsTotal.WithLabelValues("set_role", "ok").Inc()
	return nil
}

// RemoveRole revokes a held role. Revoking the last role is permitted and
// leaves the identity unable to pass any restricted policy.
func (s *CredentialService) RemoveRole(ctx context.Context, key, role string) error {
	identity, err := s.store.FindByKey(ctx, key)
	if err != nil {
		return err
	}
	if err := identity.Roles.Remove(role); err != nil {
		return fmt.Errorf("%w: %s", err, role)
	}
	identity.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, identity); err != nil {
		return err
	}
	metrics.LifecycleOpsTotal.WithLabelValues("remove_role", "ok").Inc()
	return nil
}

// DeleteIdentity removes the identity from the store.
func (s *CredentialService) DeleteIdentity(ctx context.Context, key string) error {
	if err := s.store.Delete(ctx, key); err != nil {
		return err
	}
	s.logger.Info().Str("key", key).Msg("identity deleted")
	metrics.LifecycleOpsTotal.WithLabelValues("delete", "ok").Inc()
	return nil
}

// GetIdentity returns the read view of a single identity.
func (s *CredentialService) GetIdentity(ctx context.Context, key string) (domain.IdentityView, error) {
	identity, err := s.store.FindByKey(ctx, key)
	if err != nil {
		return domain.IdentityView{}, err
	}
	return identity.View(), nil
}

// GetIdentities returns the read views of all identities.
func (s *CredentialService) GetIdentities(ctx context.Context) ([]domain.IdentityView, error) {
	identities, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]domain.IdentityView, 0, len(identities))
	for i := range identities {
		views = append(views, identities[i].View())
	}
	return views, nil
}

func (s *CredentialService) roleAllowed(role string) bool {
	for _, r := range s.allowedRoles {
		if r == role {
			return true
		}
	}
	return false
}

func generateSecret() (string, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
