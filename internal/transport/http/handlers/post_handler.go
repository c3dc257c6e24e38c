package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/plumefed/plume/internal/service"
	"github.com/plumefed/plume/pkg/validator"
	"go.uber.org/zap"
)

type PostHandler struct {
	postService  *service.PostService
	actorService *service.ActorService
	authService  *service.AuthService
	logger       *zap.Logger
}

func NewPostHandler(postService *service.PostService, actorService *service.ActorService, authService *service.AuthService, logger *zap.Logger) *PostHandler {
	return &PostHandler{
		postService:  postService,
		actorService: actorService,
		authService:  authService,
		logger:       logger,
	}
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if errs := validator.ValidatePost(input.Content); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	user, err := h.authService.User(r.Context())
	if err != nil || user == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "This node is not set up")
		return
	}

	post, err := h.postService.Create(r.Context(), user.Username, input.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrContentRequired):
			writeError(w, http.StatusBadRequest, "CONTENT_REQUIRED", "Content is required")
			return
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
			return
		}
		if post == nil {
			h.logger.Error("create post failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
			return
		}
		// The post is committed; delivery is best-effort and its
		// failure does not undo local state.
		h.logger.Warn("post stored but federation delivery failed", zap.Error(err))
	}

	writeJSON(w, http.StatusCreated, post)
}

// GetObject serves the federated object form of a post.
func (h *PostHandler) GetObject(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid post ID")
		return
	}

	note, err := h.postService.GetObject(r.Context(), username, id)
	if err != nil {
		h.logger.Error("building post object failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}
	if note == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "No such post")
		return
	}

	writeActivityJSON(w, http.StatusOK, note)
}

// Timeline serves the home timeline of the local user.
func (h *PostHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.User(r.Context())
	if err != nil || user == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "This node is not set up")
		return
	}
	actor, err := h.actorService.ResolveLocalActor(r.Context(), user.Username)
	if err != nil || actor == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "This node is not set up")
		return
	}

	posts, err := h.postService.Timeline(r.Context(), actor.ID)
	if err != nil {
		h.logger.Error("listing timeline failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, posts)
}
