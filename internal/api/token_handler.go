package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-worker/internal/api/shared"
	"github.com/phrazzld/scry-worker/internal/domain"
	"github.com/phrazzld/scry-worker/internal/platform/logger"
	"github.com/phrazzld/scry-worker/internal/store"
)

// TokenHandler registers and removes the caller's push delivery tokens.
type TokenHandler struct {
	tokens store.TokenStore
	logger *slog.Logger
}

// NewTokenHandler creates a TokenHandler.
func NewTokenHandler(tokens store.TokenStore, logger *slog.Logger) *TokenHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenHandler{tokens: tokens, logger: logger.With("component", "token_handler")}
}

// RegisterToken handles PUT /api/tokens. The caller's admin claim decides
// whether the device joins the admin pool.
func (h *TokenHandler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req RegisterTokenRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	token, err := domain.NewRecipientToken(claims.UserID, req.DeviceID, req.Token, claims.Admin)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.tokens.Upsert(r.Context(), token); err != nil {
		HandleAPIError(w, r, err, "Failed to register device token")
		return
	}

	log.Info("device token registered", "device_id", token.DeviceID, "is_admin", token.IsAdmin)
	shared.RespondWithJSON(w, r, http.StatusOK, newTokenResponse(token))
}

// DeleteToken handles DELETE /api/tokens/{deviceID}.
func (h *TokenHandler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	deviceID, err := getPathString(r, "deviceID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.tokens.Delete(r.Context(), claims.UserID, deviceID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("device token removed", "device_id", deviceID)
	w.WriteHeader(http.StatusNoContent)
}
