package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/rs/zerolog"

	"github.com/signet-auth/signet/internal/core/domain"
	"github.com/signet-auth/signet/internal/core/ports"
)

type stubStore struct {
	identities map[string]*domain.Identity
}

func newStubStore() *stubStore {
	return &stubStore{identities: make(map[string]*domain.Identity)}
}

func (s *stubStore) FindByKey(_ context.Context, key string) (*domain.Identity, error) {
	identity, ok := s.identities[key]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return identity.Clone(), nil
}

func (s *stubStore) ExistsByKey(_ context.Context, key string) (bool, error) {
	_, ok := s.identities[key]
	return ok, nil
}

func (s *stubStore) Insert(_ context.Context, identity *domain.Identity) error {
	if _, exists := s.identities[identity.Key]; exists {
		return domain.ErrDuplicateKey
	}
	s.identities[identity.Key] = identity.Clone()
	return nil
}

func (s *stubStore) Update(_ context.Context, identity *domain.Identity) error {
	if _, ok := s.identities[identity.Key]; !ok {
		return domain.ErrIdentityNotFound
	}
	s.identities[identity.Key] = identity.Clone()
	return nil
}

func (s *stubStore) Delete(_ context.Context, key string) error {
	if _, ok := s.identities[key]; !ok {
		return domain.ErrIdentityNotFound
	}
	delete(s.identities, key)
	return nil
}

func (s *stubStore) All(_ context.Context) ([]domain.Identity, error) {
	out := make([]domain.Identity, 0, len(s.identities))
	for _, identity := range s.identities {
		out = append(out, *identity.Clone())
	}
	return out, nil
}

func newTestService(store ports.CredentialStore) *CredentialService {
	return NewCredentialService(store, nil, zerolog.Nop())
}

var hexSecret = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestCreateIdentityDefaults(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store)

	identity, err := svc.CreateIdentity(context.Background(), "alex", "alex@example.com")
	if err != nil {
		t.Fatalf("CreateIdentity returned error: %v", err)
	}
	if !identity.Enabled {
		t.Fatalf("new identity not enabled")
	}
	if got := identity.Roles.Names(); len(got) != 1 || got[0] != domain.RoleUser {
		t.Fatalf("expected default roles [USER], got %v", got)
	}
	if !hexSecret.MatchString(identity.Secret) {
		t.Fatalf("secret is not 32 hex chars: %q", identity.Secret)
	}
	if _, err := store.FindByKey(context.Background(), "alex"); err != nil {
		t.Fatalf("identity not persisted: %v", err)
	}
}

func TestCreateIdentitySecretsDiffer(t *testing.T) {
	svc := newTestService(newStubStore())

	a, err := svc.CreateIdentity(context.Background(), "a", "a@example.com")
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := svc.CreateIdentity(context.Background(), "b", "b@example.com")
	if err != nil {
		t.Fatalf("create b: %v", err)
	}
	if a.Secret == b.Secret {
		t.Fatalf("two identities received the same secret")
	}
}

func TestCreateIdentityDuplicateKey(t *testing.T) {
	svc := newTestService(newStubStore())

	if _, err := svc.CreateIdentity(context.Background(), "alex", "alex@example.com"); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := svc.CreateIdentity(context.Background(), "alex", "other@example.com"); !errors.Is(err, domain.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestCreateIdentityInvalidInput(t *testing.T) {
	svc := newTestService(newStubStore())

	cases := []struct {
		name  string
		key   string
		email string
	}{
		{"empty both", "", ""},
		{"empty email", "alex", ""},
		{"empty key", "", "alex@example.com"},
		{"malformed email", "alex", "invalidEmail"},
	}
	for _, tc := range cases {
		if _, err := svc.CreateIdentity(context.Background(), tc.key, tc.email); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestUpdateIdentityPartialFields(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store)

	created, _ := svc.CreateIdentity(context.Background(), "alex", "alex@example.com")
	originalSecret := created.Secret

	err := svc.UpdateIdentity(context.Background(), "alex", ports.UpdateIdentityInput{Email: "alex@tocc.example"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	stored, _ := store.FindByKey(context.Background(), "alex")
	if stored.Email != "alex@tocc.example" {
		t.Fatalf("email not updated: %s", stored.Email)
	}
	if stored.Secret != originalSecret {
		t.Fatalf("secret changed on email-only update")
	}

	err = svc.UpdateIdentity(context.Background(), "alex", ports.UpdateIdentityInput{Secret: "newsecret"})
	if err != nil {
		t.Fatalf("secret update failed: %v", err)
	}
	stored, _ = store.FindByKey(context.Background(), "alex")
	if stored.Secret != "newsecret" {
		t.Fatalf("secret not updated")
	}
	if stored.Email != "alex@tocc.example" {
		t.Fatalf("email changed on secret-only update")
	}
}

func TestUpdateIdentityMalformedEmail(t *testing.T) {
	svc := newTestService(newStubStore())
	_, _ = svc.CreateIdentity(context.Background(), "alex", "alex@example.com")

	err := svc.UpdateIdentity(context.Background(), "alex", ports.UpdateIdentityInput{Email: "invalidEmail"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateIdentityNotFound(t *testing.T) {
	svc := newTestService(newStubStore())
	err := svc.UpdateIdentity(context.Background(), "ghost", ports.UpdateIdentityInput{Email: "a@b.example"})
	if !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestToggleIdentity(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store)
	_, _ = svc.CreateIdentity(context.Background(), "alex", "alex@example.com")

	if err := svc.ToggleIdentity(context.Background(), "alex", false); err != nil {
		t.Fatalf("disable failed: %v", err)
	}
	stored, _ := store.FindByKey(context.Background(), "alex")
	if stored.Enabled {
		t.Fatalf("identity still enabled after disable")
	}

	if err := svc.ToggleIdentity(context.Background(), "alex", true); err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	stored, _ = store.FindByKey(context.Background(), "alex")
	if !stored.Enabled {
		t.Fatalf("identity still disabled after enable")
	}
}

func TestSetRole(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store)
	_, _ = svc.CreateIdentity(context.Background(), "alex", "alex@example.com")

	if err := svc.SetRole(context.Background(), "alex", "SUPERUSER"); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole for unknown vocabulary entry, got %v", err)
	}
	if err := svc.SetRole(context.Background(), "alex", domain.RoleUser); !errors.Is(err, domain.ErrRoleAlreadyGranted) {
		t.Fatalf("expected ErrRoleAlreadyGranted, got %v", err)
	}
	if err := svc.SetRole(context.Background(), "alex", domain.RoleAdmin); err != nil {
		t.Fatalf("granting ADMIN failed: %v", err)
	}

	stored, _ := store.FindByKey(context.Background(), "alex")
	if got := stored.Roles.Names(); len(got) != 2 || got[0] != domain.RoleUser || got[1] != domain.RoleAdmin {
		t.Fatalf("expected roles [USER ADMIN], got %v", got)
	}
}

func TestSetRoleCustomVocabulary(t *testing.T) {
	store := newStubStore()
	svc := NewCredentialService(store, []string{"USER", "ADMIN", "AUDITOR"}, zerolog.Nop())
	_, _ = svc.CreateIdentity(context.Background(), "alex", "alex@example.com")

	if err := svc.SetRole(context.Background(), "alex", "AUDITOR"); err != nil {
		t.Fatalf("granting configured role failed: %v", err)
	}
}

func TestRemoveRole(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store)
	_, _ = svc.CreateIdentity(context.Background(), "alex", "alex@example.com")
	_ = svc.SetRole(context.Background(), "alex", domain.RoleAdmin)

	if err := svc.RemoveRole(context.Background(), "alex", domain.RoleAdmin); err != nil {
		t.Fatalf("revoking ADMIN failed: %v", err)
	}
	if err := svc.RemoveRole(context.Background(), "alex", domain.RoleAdmin); !errors.Is(err, domain.ErrRoleNotHeld) {
		t.Fatalf("expected ErrRoleNotHeld, got %v", err)
	}

	// Revoking the last role is allowed; the identity simply cannot pass any
	// restricted policy afterwards.
	if err := svc.RemoveRole(context.Background(), "alex", domain.RoleUser); err != nil {
		t.Fatalf("revoking last role failed: %v", err)
	}
	stored, _ := store.FindByKey(context.Background(), "alex")
	if stored.Roles.Len() != 0 {
		t.Fatalf("expected empty role set, got %v", stored.Roles.Names())
	}
}

func TestDeleteIdentity(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store)
	_, _ = svc.CreateIdentity(context.Background(), "alex", "alex@example.com")

	if err := svc.DeleteIdentity(context.Background(), "alex"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := svc.DeleteIdentity(context.Background(), "alex"); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound on second delete, got %v", err)
	}
	if _, err := svc.GetIdentity(context.Background(), "alex"); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound after delete, got %v", err)
	}
}

func TestGetIdentities(t *testing.T) {
	svc := newTestService(newStubStore())

	views, err := svc.GetIdentities(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("expected empty listing, got %d entries", len(views))
	}

	_, _ = svc.CreateIdentity(context.Background(), "alex", "alex@example.com")
	views, err = svc.GetIdentities(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(views))
	}
	if views[0].Key != "alex" || views[0].Email != "alex@example.com" || !views[0].Enabled {
		t.Fatalf("unexpected view: %+v", views[0])
	}
}
