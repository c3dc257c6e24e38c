package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/plumefed/plume/internal/federation"
	"github.com/plumefed/plume/internal/service"
	"go.uber.org/zap"
)

// InboxHandler receives federated activities on the per-user and shared
// inbox endpoints. Inbox semantics are fire-and-forget: malformed or
// unresolvable activities are dropped without an error response, and
// internal failures still answer 202 so well-behaved peers do not
// retry into the same error.
type InboxHandler struct {
	inboxService *service.InboxService
	logger       *zap.Logger
}

func NewInboxHandler(inboxService *service.InboxService, logger *zap.Logger) *InboxHandler {
	return &InboxHandler{inboxService: inboxService, logger: logger}
}

func (h *InboxHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var activity federation.Activity
	if err := json.NewDecoder(r.Body).Decode(&activity); err != nil {
		h.logger.Debug("undecodable inbox payload", zap.Error(err))
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if err := h.inboxService.HandleActivity(r.Context(), &activity); err != nil {
		h.logger.Error("inbox activity processing failed",
			zap.String("type", activity.Type),
			zap.String("actor", activity.Actor),
			zap.Error(err))
	}

	w.WriteHeader(http.StatusAccepted)
}
