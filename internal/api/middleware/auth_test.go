package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/signet-auth/signet/internal/core/domain"
	"github.com/signet-auth/signet/internal/hmac"
)

type stubStore struct {
	identities map[string]*domain.Identity
	lookups    int
}

func newStubStore(identities ...*domain.Identity) *stubStore {
	s := &stubStore{identities: make(map[string]*domain.Identity)}
	for _, identity := range identities {
		s.identities[identity.Key] = identity
	}
	return s
}

func (s *stubStore) FindByKey(_ context.Context, key string) (*domain.Identity, error) {
	s.lookups++
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

func (s *stubStore) Insert(_ context.Context, _ *domain.Identity) error { return nil }
func (s *stubStore) Update(_ context.Context, _ *domain.Identity) error { return nil }
func (s *stubStore) Delete(_ context.Context, _ string) error           { return nil }
func (s *stubStore) All(_ context.Context) ([]domain.Identity, error)   { return nil, nil }

func testIdentity(key, secret string, roles ...string) *domain.Identity {
	return &domain.Identity{
		Key:     key,
		Secret:  secret,
		Email:   key + "@example.com",
		Enabled: true,
		Roles:   domain.NewRoleSet(roles...),
	}
}

// signedContext builds an echo context for a GET request whose query carries
// the given params plus a digest computed with secret. Pass a non-empty
// badDigest to override the correct one.
func signedContext(t *testing.T, e *echo.Echo, params map[string]string, secret, badDigest string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	digest := hmac.Sign(secret, hmac.Canonicalize(params))
	if badDigest != "" {
		digest = badDigest
	}

	q := url.Values{}
	for name, value := range params {
		q.Set(name, value)
	}
	q.Set(ParamDigest, digest)

	req := httptest.NewRequest(http.MethodGet, "/?"+q.Encode(), nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func runHMAC(c echo.Context, store *stubStore, policy domain.Policy) (called bool, err error) {
	mw := HMAC(store, policy, zerolog.Nop())
	handler := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	return called, handler(c)
}

func TestHMACAllowsValidSignature(t *testing.T) {
	e := echo.New()
	store := newStubStore(testIdentity("alex", "s3cret", domain.RoleUser))
	c, _ := signedContext(t, e, map[string]string{ParamKey: "alex", "page": "2"}, "s3cret", "")

	called, err := runHMAC(c, store, domain.Restricted(domain.RoleUser))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}

	view, ok := c.Get(IdentityContextKey).(domain.IdentityView)
	if !ok {
		t.Fatalf("identity not set on context")
	}
	if view.Key != "alex" {
		t.Fatalf("unexpected identity: %+v", view)
	}
}

func TestHMACPublicSkipsAuthentication(t *testing.T) {
	e := echo.New()
	store := newStubStore()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	called, err := runHMAC(c, store, domain.Public())
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if store.lookups != 0 {
		t.Fatalf("public route performed %d store lookups", store.lookups)
	}
}

func TestHMACRejectsUnknownKey(t *testing.T) {
	e := echo.New()
	store := newStubStore()
	c, _ := signedContext(t, e, map[string]string{ParamKey: "ghost"}, "whatever", "")

	called, err := runHMAC(c, store, domain.Restricted(domain.RoleUser))
	if called {
		t.Fatalf("handler called for unknown key")
	}
	if !errors.Is(err, domain.ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestHMACRejectsDisabledIdentity(t *testing.T) {
	e := echo.New()
	identity := testIdentity("alex", "s3cret", domain.RoleAdmin)
	identity.Enabled = false
	store := newStubStore(identity)
	c, _ := signedContext(t, e, map[string]string{ParamKey: "alex"}, "s3cret", "")

	called, err := runHMAC(c, store, domain.Restricted(domain.RoleAdmin))
	if called {
		t.Fatalf("handler called for disabled identity")
	}
	// Disabled must be indistinguishable from unknown: ErrAuthFailed, never
	// ErrForbidden.
	if !errors.Is(err, domain.ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestHMACRejectsTamperedDigest(t *testing.T) {
	e := echo.New()
	store := newStubStore(testIdentity("alex", "s3cret", domain.RoleUser))
	wrong := hmac.Sign("wrongsecret", hmac.Canonicalize(map[string]string{ParamKey: "alex"}))
	c, _ := signedContext(t, e, map[string]string{ParamKey: "alex"}, "s3cret", wrong)

	called, err := runHMAC(c, store, domain.Restricted(domain.RoleUser))
	if called {
		t.Fatalf("handler called despite digest mismatch")
	}
	if !errors.Is(err, domain.ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestHMACRejectsMissingFields(t *testing.T) {
	e := echo.New()
	store := newStubStore(testIdentity("alex", "s3cret", domain.RoleUser))

	// No digest at all.
	req := httptest.NewRequest(http.MethodGet, "/?hmacKey=alex", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	if called, err := runHMAC(c, store, domain.Restricted(domain.RoleUser)); called || !errors.Is(err, domain.ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed without digest, got called=%v err=%v", called, err)
	}

	// No key.
	req = httptest.NewRequest(http.MethodGet, "/?hmacHash=abc", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	if called, err := runHMAC(c, store, domain.Restricted(domain.RoleUser)); called || !errors.Is(err, domain.ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed without key, got called=%v err=%v", called, err)
	}
}

func TestHMACForbiddenForMissingRole(t *testing.T) {
	e := echo.New()
	store := newStubStore(testIdentity("alex", "s3cret", domain.RoleUser))
	c, _ := signedContext(t, e, map[string]string{ParamKey: "alex"}, "s3cret", "")

	called, err := runHMAC(c, store, domain.Restricted(domain.RoleAdmin))
	if called {
		t.Fatalf("handler called despite missing role")
	}
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestHMACDigestCoversAllParameters(t *testing.T) {
	e := echo.New()
	store := newStubStore(testIdentity("alex", "s3cret", domain.RoleUser))

	// Sign for page=2, then send page=3 with the same digest.
	digest := hmac.Sign("s3cret", hmac.Canonicalize(map[string]string{ParamKey: "alex", "page": "2"}))
	req := httptest.NewRequest(http.MethodGet, "/?hmacKey=alex&page=3&hmacHash="+digest, nil)
	c := e.NewContext(req, httptest.NewRecorder())

	called, err := runHMAC(c, store, domain.Restricted(domain.RoleUser))
	if called {
		t.Fatalf("handler called with re-used digest over changed params")
	}
	if !errors.Is(err, domain.ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}
