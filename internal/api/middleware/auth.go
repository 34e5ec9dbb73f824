package middleware

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/signet-auth/signet/internal/api/metrics"
	"github.com/signet-auth/signet/internal/core/domain"
	"github.com/signet-auth/signet/internal/core/ports"
	"github.com/signet-auth/signet/internal/hmac"
)

// IdentityContextKey is where the authenticated identity view is stored on
// the echo context for downstream handlers.
const IdentityContextKey = "identity"

// HMAC returns the request authenticator for a single operation. A public
// policy short-circuits straight to the handler; everything else walks the
// full chain: extract the claimed key and digest, resolve the identity,
// recompute the digest over the canonicalized remaining parameters, then
// evaluate the operation's role requirement.
//
// Unknown keys, disabled identities, missing fields, and digest mismatches
// all surface as the same ErrAuthFailed so a caller cannot probe which keys
// exist. ErrForbidden is only reachable with a valid signature.
func HMAC(store ports.CredentialStore, policy domain.Policy, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if policy.IsPublic() {
				return next(c)
			}

			start := time.Now()
			identity, err := authenticate(c, store)
			if err != nil {
				metrics.AuthAttemptsTotal.WithLabelValues("auth_failed").Inc()
				metrics.AuthDuration.Observe(time.Since(start).Seconds())
				log.Debug().Err(err).Str("path", c.Path()).Msg("authentication rejected")
				return domain.ErrAuthFailed
			}

			if err := policy.Authorize(identity.Roles); err != nil {
				metrics.AuthAttemptsTotal.WithLabelValues("forbidden").Inc()
				metrics.AuthDuration.Observe(time.Since(start).Seconds())
				log.Debug().Str("key", identity.Key).Str("path", c.Path()).Msg("insufficient role")
				return err
			}

			metrics.AuthAttemptsTotal.WithLabelValues("allowed").Inc()
			metrics.AuthDuration.Observe(time.Since(start).Seconds())

			c.Set(IdentityContextKey, identity.View())
			return next(c)
		}
	}
}

// authenticate resolves and verifies the claimed identity. The returned
// errors are internal detail only; the middleware collapses every failure
// into ErrAuthFailed before it crosses the system boundary.
func authenticate(c echo.Context, store ports.CredentialStore) (*domain.Identity, error) {
	params, err := HashParams(c)
	if err != nil {
		return nil, err
	}

	key := params[ParamKey]
	digest := params[ParamDigest]
	if key == "" || digest == "" {
		return nil, errors.New("missing key or digest parameter")
	}

	identity, err := store.FindByKey(c.Request().Context(), key)
	if err != nil {
		return nil, err
	}
	if !identity.Enabled {
		return nil, errors.New("identity disabled")
	}

	canonical := hmac.Canonicalize(SignedParams(params))
	if !hmac.Verify(identity.Secret, canonical, digest) {
		return nil, errors.New("digest mismatch")
	}
	return identity, nil
}
