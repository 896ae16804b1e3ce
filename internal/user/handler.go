package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gloriaconnect/gloria-connect-api/internal/authz"
	"github.com/gloriaconnect/gloria-connect-api/internal/httputil"
	"github.com/gloriaconnect/gloria-connect-api/internal/logging"
)

// Handler contains HTTP handlers for user and admin-status endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// IsAdminResponse mirrors the shape the web client binds its admin guard to.
type IsAdminResponse struct {
	IsAdmin bool `json:"isAdmin"`
}

// SetAdminStatusRequest is the request body for changing a user's admin flag
type SetAdminStatusRequest struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

// GetIsAdmin reports whether the caller is an admin
// @Summary      Current user's admin flag
// @Description  Returns {isAdmin: false} for unauthenticated callers and for callers with no user record. Never fails.
// @Tags         users
// @Produce      json
// @Success      200 {object} IsAdminResponse
// @Router       /users/me/admin [get]
func (h *Handler) GetIsAdmin(w http.ResponseWriter, r *http.Request) {
	ident := authz.IdentityFromContext(r.Context())
	isAdmin := h.service.IsAdmin(r.Context(), ident)

	httputil.RespondJSON(w, IsAdminResponse{IsAdmin: isAdmin}, http.StatusOK)
}

// GetCurrentUser returns the caller's user record or null
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Success      200 {object} User
// @Router       /users/me [get]
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ident := authz.IdentityFromContext(r.Context())
	u, err := h.service.CurrentUser(r.Context(), ident)
	if err != nil {
		logger.Error("failed to load current user", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load current user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	// u is nil for unauthenticated callers; encode as JSON null
	httputil.RespondJSON(w, u, http.StatusOK)
}

// List returns all users
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} User
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      403 {object} httputil.ErrorResponse
// @Router       /admin/users [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ident := authz.IdentityFromContext(r.Context())
	users, err := h.service.List(r.Context(), ident)
	if err != nil {
		httputil.RespondAuthzError(w, logger, err, "failed to list users")
		return
	}

	httputil.RespondJSON(w, users, http.StatusOK)
}

// SetAdminStatus changes another user's admin flag
// @Summary      Set admin status
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body SetAdminStatusRequest true "Target email and desired flag"
// @Success      200 {object} map[string]string
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /admin/users/admin-status [post]
func (h *Handler) SetAdminStatus(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req SetAdminStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid admin status request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if req.Email == "" {
		httputil.RespondErrorWithCode(w, "email is required", httputil.CodeEmailRequired, http.StatusBadRequest)
		return
	}

	ident := authz.IdentityFromContext(r.Context())
	err := h.service.SetAdminStatus(r.Context(), ident, req.Email, req.IsAdmin)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Warn("set admin status failed: target not found", "target", req.Email)
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		httputil.RespondAuthzError(w, logger, err, "failed to set admin status")
		return
	}

	logger.Info("admin status updated", "target", req.Email, "is_admin", req.IsAdmin)

	httputil.RespondJSON(w, map[string]string{"message": "admin status updated"}, http.StatusOK)
}
