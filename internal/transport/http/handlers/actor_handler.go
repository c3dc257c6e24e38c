package handlers

import (
	"net/http"
	"strings"

	"github.com/plumefed/plume/internal/federation"
	"github.com/plumefed/plume/internal/service"
	"go.uber.org/zap"
)

// ActorHandler serves the protocol-facing documents: webfinger, the
// actor document, and the followers collection.
type ActorHandler struct {
	actorService    *service.ActorService
	followerService *service.FollowerService
	uris            *federation.URIs
	logger          *zap.Logger
}

func NewActorHandler(actorService *service.ActorService, followerService *service.FollowerService, uris *federation.URIs, logger *zap.Logger) *ActorHandler {
	return &ActorHandler{
		actorService:    actorService,
		followerService: followerService,
		uris:            uris,
		logger:          logger,
	}
}

func (h *ActorHandler) WebFinger(w http.ResponseWriter, r *http.Request) {
	resource := r.URL.Query().Get("resource")
	acct, ok := strings.CutPrefix(resource, "acct:")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_RESOURCE", "resource must be an acct: URI")
		return
	}
	username, host, ok := strings.Cut(acct, "@")
	if !ok || host != h.uris.Host() {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Unknown resource")
		return
	}

	actor, err := h.actorService.ResolveLocalActor(r.Context(), username)
	if err != nil {
		h.logger.Error("webfinger lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}
	if actor == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Unknown resource")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"subject": "acct:" + acct,
		"links": []map[string]string{
			{
				"rel":  "self",
				"type": "application/activity+json",
				"href": h.uris.Actor(username),
			},
		},
	})
}

func (h *ActorHandler) GetActor(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	person, err := h.actorService.GetActorDocument(r.Context(), username)
	if err != nil {
		h.logger.Error("building actor document failed",
			zap.String("username", username),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}
	if person == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "No such actor")
		return
	}

	writeActivityJSON(w, http.StatusOK, person)
}

func (h *ActorHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	recipients, err := h.followerService.ListFollowers(r.Context(), username)
	if err != nil {
		h.logger.Error("listing followers failed",
			zap.String("username", username),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	items := make([]any, 0, len(recipients))
	for _, rec := range recipients {
		items = append(items, rec.ID)
	}

	writeActivityJSON(w, http.StatusOK, federation.Collection{
		Context:      federation.ActivityContext,
		ID:           h.uris.Followers(username),
		Type:         "OrderedCollection",
		TotalItems:   len(items),
		OrderedItems: items,
	})
}
