package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-worker/internal/api/shared"
	"github.com/phrazzld/scry-worker/internal/domain"
	"github.com/phrazzld/scry-worker/internal/service/auth"
)

// getPathUUID extracts and parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}

	return id, nil
}

// getPathString extracts a required non-blank path parameter.
func getPathString(r *http.Request, paramName string) (string, error) {
	v := strings.TrimSpace(chi.URLParam(r, paramName))
	if v == "" {
		return "", domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}
	return v, nil
}

// requireClaims returns the caller's claims or writes a 401.
func requireClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := shared.ClaimsFromContext(r.Context())
	if !ok {
		HandleAPIError(w, r, errUnauthenticated, "")
		return nil, false
	}
	return claims, true
}

// pagination reads limit and offset, clamping limit to [1, MaxPageSize].
func pagination(r *http.Request) (limit, offset int, err error) {
	limit, err = shared.QueryInt(r, "limit", DefaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	offset, err = shared.QueryInt(r, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	if limit == 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return limit, offset, nil
}
