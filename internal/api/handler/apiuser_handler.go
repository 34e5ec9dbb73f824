package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/signet-auth/signet/internal/core/ports"
)

// APIUserHandler exposes the credential lifecycle operations. Authentication
// and role gating happen in the HMAC middleware before any of these run.
type APIUserHandler struct {
	service ports.IdentityService
	logger  zerolog.Logger
}

func NewAPIUserHandler(service ports.IdentityService, logger zerolog.Logger) *APIUserHandler {
	return &APIUserHandler{service: service, logger: logger}
}

// List returns the read views of every identity. Secrets are never included.
//
// @Summary      List API identities
// @Tags         apiuser
// @Produce      json
// @Success      200  {array}   domain.IdentityView
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /auth/apiuser [get]
func (h *APIUserHandler) List(c echo.Context) error {
	views, err := h.service.GetIdentities(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

// View returns a single identity's read view.
//
// @Summary      View an API identity
// @Tags         apiuser
// @Produce      json
// @Success      200  {object}  domain.IdentityView
// @Failure      404  {object}  errorResponse
// @Router       /auth/apiuser/{key} [get]
func (h *APIUserHandler) View(c echo.Context) error {
	view, err := h.service.GetIdentity(c.Request().Context(), c.Param("key"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// Create registers a new identity and returns 201 with a Location reference
// to the view operation.
//
// @Summary      Create an API identity
// @Tags         apiuser
// @Accept       json
// @Produce      json
// @Param        body  body      createIdentityRequest  true  "Identity details"
// @Success      201   {object}  createdResponse
// @Failure      400   {object}  errorResponse
// @Router       /auth/apiuser [post]
func (h *APIUserHandler) Create(c echo.Context) error {
	var req createIdentityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	identity, err := h.service.CreateIdentity(c.Request().Context(), req.Key, req.Email)
	if err != nil {
		return err
	}
	if actor, ok := ctxIdentity(c); ok {
		h.logger.Info().Str("actor", actor.Key).Str("key", identity.Key).Msg("identity created via api")
	}

	location := "/auth/apiuser/" + identity.Key
	c.Response().Header().Set(echo.HeaderLocation, location)
	return c.JSON(http.StatusCreated, createdResponse{Location: location})
}

// Update applies the non-empty fields of the payload to an identity.
//
// @Summary      Update an API identity
// @Tags         apiuser
// @Accept       json
// @Success      200
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /auth/apiuser/{key} [put]
func (h *APIUserHandler) Update(c echo.Context) error {
	var req updateIdentityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	input := ports.UpdateIdentityInput{Email: req.Email, Secret: req.Secret}
	if err := h.service.UpdateIdentity(c.Request().Context(), c.Param("key"), input); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// Enable re-activates a disabled identity.
//
// @Summary      Enable an API identity
// @Tags         apiuser
// @Success      200
// @Failure      404  {object}  errorResponse
// @Router       /auth/apiuser/{key}/enable [post]
func (h *APIUserHandler) Enable(c echo.Context) error {
	return h.toggle(c, true)
}

// Disable deactivates an identity; its requests fail authentication until
// re-enabled.
//
// @Summary      Disable an API identity
// @Tags         apiuser
// @Success      200
// @Failure      404  {object}  errorResponse
// @Router       /auth/apiuser/{key}/disable [post]
func (h *APIUserHandler) Disable(c echo.Context) error {
	return h.toggle(c, false)
}

func (h *APIUserHandler) toggle(c echo.Context, enabled bool) error {
	if err := h.service.ToggleIdentity(c.Request().Context(), c.Param("key"), enabled); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// AddRole grants a role from the configured vocabulary.
//
// @Summary      Grant a role
// @Tags         apiuser
// @Success      200
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /auth/apiuser/{key}/role/{role} [put]
func (h *APIUserHandler) AddRole(c echo.Context) error {
	if err := h.service.SetRole(c.Request().Context(), c.Param("key"), c.Param("role")); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// RemoveRole revokes a held role.
//
// @Summary      Revoke a role
// @Tags         apiuser
// @Success      200
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /auth/apiuser/{key}/role/{role} [delete]
func (h *APIUserHandler) RemoveRole(c echo.Context) error {
	if err := h.service.RemoveRole(c.Request().Context(), c.Param("key"), c.Param("role")); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// Delete removes an identity permanently.
//
// @Summary      Delete an API identity
// @Tags         apiuser
// @Success      200
// @Failure      404  {object}  errorResponse
// @Router       /auth/apiuser/{key} [delete]
func (h *APIUserHandler) Delete(c echo.Context) error {
	key := c.Param("key")
	if err := h.service.DeleteIdentity(c.Request().Context(), key); err != nil {
		return err
	}
	if actor, ok := ctxIdentity(c); ok {
		h.logger.Info().Str("actor", actor.Key).Str("key", key).Msg("identity deleted via api")
	}
	return c.NoContent(http.StatusOK)
}
