package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/plumefed/plume/internal/service"
	"go.uber.org/zap"
)

// FollowHandler exposes the relationship endpoints of the local UI:
// sending follow requests and listing both sides of the graph.
type FollowHandler struct {
	outboxService   *service.OutboxService
	followerService *service.FollowerService
	authService     *service.AuthService
	logger          *zap.Logger
}

func NewFollowHandler(outboxService *service.OutboxService, followerService *service.FollowerService, authService *service.AuthService, logger *zap.Logger) *FollowHandler {
	return &FollowHandler{
		outboxService:   outboxService,
		followerService: followerService,
		authService:     authService,
		logger:          logger,
	}
}

// SendFollow submits an outbound follow request. The follow edge only
// appears locally when the remote side's Accept comes back, which this
// node does not yet process.
func (h *FollowHandler) SendFollow(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Actor string `json:"actor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if input.Actor == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ACTOR", "Actor handle or URL is required")
		return
	}

	user, err := h.authService.User(r.Context())
	if err != nil || user == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "This node is not set up")
		return
	}

	if err := h.outboxService.SendFollow(r.Context(), user.Username, input.Actor); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidActorRef):
			writeError(w, http.StatusBadRequest, "INVALID_ACTOR", "Invalid actor handle or URL")
		default:
			h.logger.Error("send follow failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "follow_sent"})
}

func (h *FollowHandler) ListFollowers(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.User(r.Context())
	if err != nil || user == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "This node is not set up")
		return
	}

	actors, err := h.followerService.ListFollowerActors(r.Context(), user.Username)
	if err != nil {
		h.logger.Error("list followers failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, actors)
}

func (h *FollowHandler) ListFollowing(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.User(r.Context())
	if err != nil || user == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "This node is not set up")
		return
	}

	actors, err := h.followerService.ListFollowing(r.Context(), user.Username)
	if err != nil {
		h.logger.Error("list following failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, actors)
}

// Profile returns the local profile view: user, relationship counts,
// and own posts. Both counts come from one service call so the joins
// run once.
func (h *FollowHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.User(r.Context())
	if err != nil || user == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "This node is not set up")
		return
	}

	followers, following, err := h.followerService.Counts(r.Context(), user.Username)
	if err != nil {
		h.logger.Error("profile counts failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":      user,
		"followers": followers,
		"following": following,
	})
}
