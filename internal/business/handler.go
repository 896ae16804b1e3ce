package business

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gloriaconnect/gloria-connect-api/internal/authz"
	"github.com/gloriaconnect/gloria-connect-api/internal/httputil"
	"github.com/gloriaconnect/gloria-connect-api/internal/logging"
)

const feedWriteTimeout = 10 * time.Second

// Handler contains HTTP handlers for the business listing endpoints
type Handler struct {
	service  *Service
	feed     *Feed
	upgrader websocket.Upgrader
}

func NewHandler(service *Service, feed *Feed, trustedOrigins []string) *Handler {
	return &Handler{
		service: service,
		feed:    feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(trustedOrigins),
		},
	}
}

// List returns every listing
// @Summary      List businesses
// @Tags         businesses
// @Produce      json
// @Success      200 {array} Business
// @Router       /businesses [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	listings, err := h.service.List(r.Context())
	if err != nil {
		logger.Error("failed to list businesses", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list businesses", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, listings, http.StatusOK)
}

// GetByID returns a single listing
// @Summary      Get business by id
// @Tags         businesses
// @Produce      json
// @Param        id path string true "Business id"
// @Success      200 {object} Business
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /businesses/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid business id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	listing, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "business not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to get business", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get business", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, listing, http.StatusOK)
}

// Create inserts a new listing
// @Summary      Create business
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body Input true "Listing fields"
// @Success      201 {object} Business
// @Failure      400 {object} httputil.ErrorResponse "Validation failure"
// @Failure      403 {object} httputil.ErrorResponse "Admin access required"
// @Router       /admin/businesses [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		logger.Warn("invalid create business request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	ident := authz.IdentityFromContext(r.Context())
	listing, err := h.service.Create(r.Context(), ident, &input)
	if err != nil {
		h.respondServiceError(w, logger, err, "failed to create business")
		return
	}

	logger.Info("business created", "business_id", listing.ID)
	httputil.RespondJSON(w, listing, http.StatusCreated)
}

// Update replaces a listing
// @Summary      Update business
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Business id"
// @Param        request body Input true "Full listing fields; nested objects are replaced wholesale"
// @Success      200 {object} Business
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /admin/businesses/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid business id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		logger.Warn("invalid update business request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	ident := authz.IdentityFromContext(r.Context())
	listing, err := h.service.Update(r.Context(), ident, id, &input)
	if err != nil {
		h.respondServiceError(w, logger, err, "failed to update business")
		return
	}

	logger.Info("business updated", "business_id", listing.ID)
	httputil.RespondJSON(w, listing, http.StatusOK)
}

// Delete soft-deletes a listing
// @Summary      Deactivate business
// @Description  Sets the listing status to inactive. The record is retained.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Business id"
// @Success      200 {object} map[string]string
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /admin/businesses/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid business id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	ident := authz.IdentityFromContext(r.Context())
	if err := h.service.Delete(r.Context(), ident, id); err != nil {
		h.respondServiceError(w, logger, err, "failed to deactivate business")
		return
	}

	logger.Info("business deactivated", "business_id", id)
	httputil.RespondJSON(w, map[string]string{"message": "business deactivated"}, http.StatusOK)
}

// Feed streams listing changes over a websocket
// @Summary      Business change feed
// @Description  Pushes created/updated/deleted events as JSON frames.
// @Tags         businesses
// @Router       /businesses/feed [get]
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err.Error())
		return
	}

	events, cancel := h.feed.Subscribe()
	defer cancel()
	defer conn.Close()

	// Reader goroutine: we never expect client frames, but reading is how the
	// websocket learns about closure.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if err := conn.WriteJSON(event); err != nil {
				logger.Warn("feed write failed", "error", err.Error())
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (h *Handler) respondServiceError(w http.ResponseWriter, logger *logging.Logger, err error, fallback string) {
	var validationErr *ValidationError

	switch {
	case errors.As(err, &validationErr):
		logger.Warn("request rejected: validation failed", "fields", validationErr.Fields)
		httputil.RespondJSON(w, map[string]any{
			"error":  "validation failed",
			"code":   httputil.CodeValidationFailed,
			"fields": validationErr.Fields,
		}, http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		httputil.RespondErrorWithCode(w, "business not found", httputil.CodeNotFound, http.StatusNotFound)
	default:
		// Authorization failures and everything else share one mapping
		httputil.RespondAuthzError(w, logger, err, fallback)
	}
}

func originChecker(trustedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, trusted := range trustedOrigins {
			if origin == trusted {
				return true
			}
		}
		return false
	}
}
