package apperr

import (
	"errors"
	"net/http"
)

// Error kinds. Domain errors wrap one of these so callers can classify
// failures with errors.Is without knowing every sentinel.
var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrInfrastructure = errors.New("infrastructure failure")
)

// Infrastructure marks a collaborator failure (database, cache, broker).
// The original error stays reachable through errors.Is / errors.As.
func Infrastructure(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInfrastructure) {
		return err
	}
	return errors.Join(ErrInfrastructure, err)
}

// IsClientFault reports whether err was caused by the caller's input or by
// a missing/conflicting resource rather than by the server.
func IsClientFault(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict)
}

// HTTPStatus maps an error to the response status the API layer returns.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
