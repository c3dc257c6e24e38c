package ws

import (
	"go.uber.org/zap"

	"github.com/plumefed/plume/internal/domain"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub    *Hub
	logger *zap.Logger
}

func NewHubNotifier(hub *Hub, logger *zap.Logger) *HubNotifier {
	return &HubNotifier{hub: hub, logger: logger}
}

func (n *HubNotifier) NotifyNewPost(post *domain.Post) {
	evt, err := NewEvent(EventTypePostCreated, PostPayload{Post: *post})
	if err != nil {
		n.logger.Warn("ws notifier: marshal error", zap.Error(err))
		return
	}
	n.hub.Broadcast(evt)
}

func (n *HubNotifier) NotifyNewFollower(handle string) {
	evt, err := NewEvent(EventTypeFollowerAdded, FollowerPayload{Handle: handle})
	if err != nil {
		n.logger.Warn("ws notifier: marshal error", zap.Error(err))
		return
	}
	n.hub.Broadcast(evt)
}
