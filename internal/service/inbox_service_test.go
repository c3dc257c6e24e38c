package service

import (
	"context"
	"testing"

	"github.com/plumefed/plume/internal/federation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func followActivity(actorURI, objectURI string) *federation.Activity {
	return &federation.Activity{
		Context: federation.ActivityContext,
		ID:      actorURI + "#follows/1",
		Type:    federation.TypeFollow,
		Actor:   actorURI,
		Object:  federation.ObjectURI(objectURI),
	}
}

func undoActivity(t *testing.T, follow *federation.Activity) *federation.Activity {
	t.Helper()
	object, err := federation.EmbedObject(follow)
	require.NoError(t, err)
	return &federation.Activity{
		Context: federation.ActivityContext,
		ID:      follow.Actor + "#undo/1",
		Type:    federation.TypeUndo,
		Actor:   follow.Actor,
		Object:  object,
	}
}

func TestInboxFollowCreatesEdgeAndAccepts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bobURI := "https://remote.example/users/bob"
	env.addRemote(bobURI, bobURI)

	follow := followActivity(bobURI, env.uris.Actor("alice"))
	require.NoError(t, env.inboxSvc.HandleActivity(ctx, follow))

	// The follower is persisted and the edge points at the local actor.
	bob, err := env.actors.GetByURI(ctx, bobURI)
	require.NoError(t, err)
	require.NotNil(t, bob)
	assert.True(t, env.follows.edges[edge{bob.ID, env.localActor.ID}])
	assert.Len(t, env.follows.edges, 1)

	// Exactly one Accept went back to the follower, with the original
	// follow embedded as its object.
	require.Len(t, env.deliverer.sent, 1)
	accept := env.deliverer.sent[0]
	assert.Equal(t, federation.TypeAccept, accept.activity.Type)
	assert.Equal(t, env.uris.Actor("alice"), accept.activity.Actor)
	assert.Equal(t, []string{bobURI}, accept.activity.To)
	require.Len(t, accept.recipients, 1)
	assert.Equal(t, bobURI, accept.recipients[0].ID)

	embedded := accept.activity.ObjectActivity()
	require.NotNil(t, embedded)
	assert.Equal(t, follow.ID, embedded.ID)
	assert.Equal(t, federation.TypeFollow, embedded.Type)

	assert.Equal(t, []string{"@bob@remote.example"}, env.notifier.followers)
}

func TestInboxFollowIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bobURI := "https://remote.example/users/bob"
	env.addRemote(bobURI, bobURI)

	follow := followActivity(bobURI, env.uris.Actor("alice"))
	require.NoError(t, env.inboxSvc.HandleActivity(ctx, follow))
	require.NoError(t, env.inboxSvc.HandleActivity(ctx, follow))

	assert.Len(t, env.follows.edges, 1, "a redelivered follow must not duplicate the edge")
	assert.Len(t, env.actors.remote, 1)
}

func TestInboxFollowForeignObjectIgnored(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	follow := followActivity("https://remote.example/users/bob", "https://other.example/users/carol")
	require.NoError(t, env.inboxSvc.HandleActivity(ctx, follow))

	assert.Empty(t, env.follows.edges)
	assert.Empty(t, env.deliverer.sent)
}

func TestInboxFollowUnknownLocalUserIgnored(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	follow := followActivity("https://remote.example/users/bob", env.uris.Actor("nobody"))
	require.NoError(t, env.inboxSvc.HandleActivity(ctx, follow))

	assert.Empty(t, env.follows.edges)
	assert.Empty(t, env.deliverer.sent)
}

func TestInboxFollowUnresolvableActorIgnored(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// The resolver knows no actors, so the dereference fails.
	follow := followActivity("https://remote.example/users/bob", env.uris.Actor("alice"))
	require.NoError(t, env.inboxSvc.HandleActivity(ctx, follow))

	assert.Empty(t, env.follows.edges)
	assert.Empty(t, env.deliverer.sent)
}

func TestInboxUndoRemovesEdge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bobURI := "https://remote.example/users/bob"
	env.addRemote(bobURI, bobURI)

	follow := followActivity(bobURI, env.uris.Actor("alice"))
	require.NoError(t, env.inboxSvc.HandleActivity(ctx, follow))
	require.Len(t, env.follows.edges, 1)

	undo := undoActivity(t, follow)
	require.NoError(t, env.inboxSvc.HandleActivity(ctx, undo))
	assert.Empty(t, env.follows.edges)

	// A second undo of the same follow is a no-op, not an error.
	require.NoError(t, env.inboxSvc.HandleActivity(ctx, undo))
	assert.Empty(t, env.follows.edges)
}

func TestInboxUndoWithoutPriorFollow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	follow := followActivity("https://remote.example/users/bob", env.uris.Actor("alice"))
	undo := undoActivity(t, follow)
	require.NoError(t, env.inboxSvc.HandleActivity(ctx, undo))
	assert.Empty(t, env.follows.edges)
}

func TestInboxUndoOfBareURIObjectIgnored(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	undo := &federation.Activity{
		Type:   federation.TypeUndo,
		Actor:  "https://remote.example/users/bob",
		Object: federation.ObjectURI("https://remote.example/users/bob#follows/1"),
	}
	require.NoError(t, env.inboxSvc.HandleActivity(ctx, undo))
	assert.Empty(t, env.follows.edges)
}

func TestInboxUnknownKindIgnored(t *testing.T) {
	env := newTestEnv(t)

	activity := &federation.Activity{
		Type:   "Like",
		Actor:  "https://remote.example/users/bob",
		Object: federation.ObjectURI(env.uris.Post("alice", 1)),
	}
	require.NoError(t, env.inboxSvc.HandleActivity(context.Background(), activity))
	assert.Empty(t, env.deliverer.sent)
}

func TestInboxAcceptNotHandled(t *testing.T) {
	env := newTestEnv(t)

	// An inbound Accept for a pending outbound follow is dropped; no
	// edge appears from it.
	accept := &federation.Activity{
		Type:   federation.TypeAccept,
		Actor:  "https://remote.example/users/bob",
		Object: federation.ObjectURI(env.uris.Actor("alice") + "#follows/1"),
	}
	require.NoError(t, env.inboxSvc.HandleActivity(context.Background(), accept))
	assert.Empty(t, env.follows.edges)
}
