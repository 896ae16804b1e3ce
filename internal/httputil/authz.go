package httputil

import (
	"errors"
	"net/http"

	"github.com/gloriaconnect/gloria-connect-api/internal/authz"
	"github.com/gloriaconnect/gloria-connect-api/internal/logging"
)

// RespondAuthzError maps authorization failures onto HTTP statuses and treats
// everything else as an internal error. Every admin-gated handler funnels
// service errors through here so the mapping cannot drift between endpoints.
func RespondAuthzError(w http.ResponseWriter, logger *logging.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, authz.ErrAuthRequired), errors.Is(err, authz.ErrEmailRequired):
		logger.Warn("request rejected: authentication required")
		RespondErrorWithCode(w, "authentication required", CodeAuthRequired, http.StatusUnauthorized)
	case errors.Is(err, authz.ErrAdminRequired):
		logger.Warn("request rejected: admin access required")
		RespondErrorWithCode(w, "admin access required", CodeAdminRequired, http.StatusForbidden)
	case errors.Is(err, authz.ErrUserNotFound):
		logger.Warn("request rejected: caller has no user record")
		RespondErrorWithCode(w, "user not found", CodeNotFound, http.StatusForbidden)
	default:
		logger.Error(fallback, "error", err.Error())
		RespondErrorWithCode(w, fallback, CodeInternalError, http.StatusInternalServerError)
	}
}
