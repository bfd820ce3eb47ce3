package core

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// UserHeader carries the id of the signed-in user.
const UserHeader = "X-User-Id"

type Handlers interface {
	GetEvents(gctx *gin.Context)
	GetEvent(gctx *gin.Context)
	GetUser(gctx *gin.Context)
	PostEvents(gctx *gin.Context)
	PostVolunteers(gctx *gin.Context)
	PostLogin(gctx *gin.Context)
	DeleteCache(gctx *gin.Context)
}

type handlers struct {
	repository  Repository
	coordinator *Coordinator
	cache       *Cache
	now         func() time.Time
}

func NewHandlers(repository Repository, coordinator *Coordinator, cache *Cache) Handlers {
	return &handlers{
		repository:  repository,
		coordinator: coordinator,
		cache:       cache,
		now:         time.Now,
	}
}

func (h *handlers) GetEvents(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	events, info, err := h.repository.LoadEvents(ctx)
	if err != nil {
		h.fail(gctx, "loading events failed", err)
		return
	}

	if !alive(ctx) {
		return
	}

	gctx.Header("X-Data-Source", string(info.Source))

	if !info.LastFetched.IsZero() {
		gctx.Header("X-Last-Fetched", info.LastFetched.Format(time.RFC3339))
	}

	gctx.JSON(http.StatusOK, Upcoming(events, h.now()))
}

func (h *handlers) GetEvent(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	id := gctx.Param("id")
	if len(id) == 0 {
		log.Ctx(ctx).Error().Msg("parameter 'id' is required")
		gctx.AbortWithStatusJSON(http.StatusBadRequest, NewError("parameter 'id' is required"))

		return
	}

	event, err := h.repository.LoadEvent(ctx, id)
	if err != nil {
		h.fail(gctx, "loading event failed", err)
		return
	}

	if !alive(ctx) {
		return
	}

	gctx.JSON(http.StatusOK, event)
}

func (h *handlers) GetUser(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	id := gctx.Param("id")
	if len(id) == 0 {
		log.Ctx(ctx).Error().Msg("parameter 'id' is required")
		gctx.AbortWithStatusJSON(http.StatusBadRequest, NewError("parameter 'id' is required"))

		return
	}

	user, err := h.repository.LoadUser(ctx, id)
	if err != nil {
		h.fail(gctx, "loading user failed", err)
		return
	}

	if !alive(ctx) {
		return
	}

	gctx.JSON(http.StatusOK, user)
}

func (h *handlers) PostEvents(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var draft EventDraft

	err := gctx.ShouldBindJSON(&draft)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to bind JSON")
		gctx.AbortWithStatusJSON(http.StatusBadRequest, NewError("failed to bind JSON", err))

		return
	}

	userId := gctx.GetHeader(UserHeader)
	if userId == "" {
		h.fail(gctx, "event validation failed", NewValidationError(ReasonNotAuthenticated, "no user logged in"))
		return
	}

	err = ValidateDraft(draft)
	if err != nil {
		h.fail(gctx, "event validation failed", err)
		return
	}

	created, err := h.repository.CreateEvent(ctx, NewEvent(draft, userId))
	if err != nil {
		h.fail(gctx, "creating event failed", err)
		return
	}

	gctx.JSON(http.StatusCreated, created)
}

func (h *handlers) PostVolunteers(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	id := gctx.Param("id")
	if len(id) == 0 {
		log.Ctx(ctx).Error().Msg("parameter 'id' is required")
		gctx.AbortWithStatusJSON(http.StatusBadRequest, NewError("parameter 'id' is required"))

		return
	}

	event, err := h.repository.LoadEvent(ctx, id)
	if err != nil {
		h.fail(gctx, "loading event failed", err)
		return
	}

	result, err := h.coordinator.Volunteer(ctx, event, gctx.GetHeader(UserHeader))
	if err != nil {
		h.fail(gctx, "volunteering failed", err)
		return
	}

	gctx.JSON(http.StatusOK, result)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *handlers) PostLogin(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req loginRequest

	err := gctx.ShouldBindJSON(&req)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to bind JSON")
		gctx.AbortWithStatusJSON(http.StatusBadRequest, NewError("failed to bind JSON", err))

		return
	}

	session, err := h.repository.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		var networkErr *NetworkError
		if errors.As(err, &networkErr) && (networkErr.StatusCode == http.StatusUnauthorized || networkErr.StatusCode == http.StatusBadRequest) {
			log.Ctx(ctx).Info().Msg("login rejected")
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, NewError("invalid credentials", err))

			return
		}

		h.fail(gctx, "login failed", err)

		return
	}

	gctx.JSON(http.StatusOK, session)
}

type cacheRequest struct {
	Keys []string `json:"keys"`
}

func (h *handlers) DeleteCache(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req cacheRequest

	if gctx.Request.ContentLength != 0 {
		err := gctx.ShouldBindJSON(&req)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to bind JSON")
			gctx.AbortWithStatusJSON(http.StatusBadRequest, NewError("failed to bind JSON", err))

			return
		}
	}

	if len(req.Keys) == 0 {
		req.Keys = []string{KeyAllEvents, KeyEventsQuery}
	}

	err := h.cache.Remove(ctx, req.Keys...)
	if err != nil {
		h.fail(gctx, "removing cache entries failed", err)
		return
	}

	gctx.Header("X-Removed-Keys", strconv.Itoa(len(req.Keys)))
	gctx.Status(http.StatusNoContent)
	gctx.Writer.WriteHeaderNow()
}

func (h *handlers) fail(gctx *gin.Context, message string, err error) {
	ctx := gctx.Request.Context()
	status := StatusFor(err)

	if status >= http.StatusInternalServerError {
		log.Ctx(ctx).Error().Err(err).Msg(message)
	} else {
		log.Ctx(ctx).Info().Err(err).Msg(message)
	}

	gctx.AbortWithStatusJSON(status, NewError(message, err))
}

// StatusFor maps a core error to the HTTP status shown to view clients.
func StatusFor(err error) int {
	var (
		validationErr *ValidationError
		decodeErr     *DeserializationError
		missErr       *CacheMissError
		networkErr    *NetworkError
	)

	switch {
	case errors.As(err, &validationErr):
		if validationErr.Reason == ReasonEventFull {
			return http.StatusConflict
		}

		if validationErr.Reason == ReasonNotAuthenticated {
			return http.StatusUnauthorized
		}

		return http.StatusBadRequest
	case errors.As(err, &decodeErr):
		return http.StatusInternalServerError
	case errors.As(err, &missErr):
		if errors.Is(err, ErrNotFound) {
			return http.StatusNotFound
		}

		return http.StatusServiceUnavailable
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &networkErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// alive reports whether the requesting view is still waiting. A result for a
// view that went away is dropped rather than committed.
func alive(ctx context.Context) bool {
	if ctx.Err() != nil {
		log.Ctx(ctx).Debug().Err(ctx.Err()).Msg("client gone, discarding result")
		return false
	}

	return true
}
