package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/signet-auth/signet/internal/api/middleware"
	"github.com/signet-auth/signet/internal/core/ports"
	"github.com/signet-auth/signet/internal/hmac"
)

// DebugHandler helps clients troubleshoot their request signatures. It
// recomputes the digest the server expects and echoes both back, together
// with the exact parameter set that was canonicalized. The route is only
// registered when the debug deployment profile is enabled.
type DebugHandler struct {
	store ports.CredentialStore
}

func NewDebugHandler(store ports.CredentialStore) *DebugHandler {
	return &DebugHandler{store: store}
}

type debugResponse struct {
	Request     string            `json:"request"`
	Method      string            `json:"method"`
	Hash        string            `json:"hash"`
	CorrectHash string            `json:"correctHash"`
	Status      bool              `json:"status"`
	HashParams  map[string]string `json:"hashParams"`
}

// Debug recomputes the expected digest for the inbound request.
//
// When the request names a known identity via the APIKEY disclosure field,
// its stored secret is included in hashParams under APISECRET so a client
// can reproduce the computation locally.
//
// @Summary      Debug an HMAC request signature
// @Tags         debug
// @Produce      json
// @Success      200  {object}  debugResponse
// @Router       /auth/debug [get]
func (h *DebugHandler) Debug(c echo.Context) error {
	params, err := middleware.HashParams(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable request parameters")
	}

	claimed := params[middleware.ParamDigest]
	signed := middleware.SignedParams(params)

	var correct string
	if key := params[middleware.ParamKey]; key != "" {
		if identity, err := h.store.FindByKey(c.Request().Context(), key); err == nil {
			correct = hmac.Sign(identity.Secret, hmac.Canonicalize(signed))
		}
	}

	hashParams := make(map[string]string, len(signed))
	for name, value := range signed {
		hashParams[name] = value
	}
	if debugKey := params[middleware.ParamDebugKey]; debugKey != "" {
		if identity, err := h.store.FindByKey(c.Request().Context(), debugKey); err == nil {
			hashParams[middleware.ParamDebugSecret] = identity.Secret
		}
	}

	return c.JSON(http.StatusOK, debugResponse{
		Request:     c.Request().RequestURI,
		Method:      c.Request().Method,
		Hash:        claimed,
		CorrectHash: correct,
		Status:      correct != "" && claimed == correct,
		HashParams:  hashParams,
	})
}
