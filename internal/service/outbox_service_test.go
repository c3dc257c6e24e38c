package service

import (
	"context"
	"testing"

	"github.com/plumefed/plume/internal/federation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendFollowResolvesAndDelivers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	target := env.addRemote("@bob@remote.example", "https://remote.example/users/bob")

	require.NoError(t, env.outboxSvc.SendFollow(ctx, "alice", "@bob@remote.example"))

	require.Len(t, env.deliverer.sent, 1)
	sent := env.deliverer.sent[0]
	assert.Equal(t, federation.TypeFollow, sent.activity.Type)
	assert.Equal(t, env.uris.Actor("alice"), sent.activity.Actor)
	assert.Equal(t, target.URI, sent.activity.ObjectID())
	assert.Equal(t, []string{target.URI}, sent.activity.To)
	assert.NotEmpty(t, sent.activity.ID)

	require.Len(t, sent.recipients, 1)
	assert.Equal(t, target.InboxURL, sent.recipients[0].InboxURL)

	// No local edge until the remote Accept comes back.
	assert.Empty(t, env.follows.edges)
}

func TestSendFollowInvalidReference(t *testing.T) {
	env := newTestEnv(t)

	err := env.outboxSvc.SendFollow(context.Background(), "alice", "@ghost@nowhere.example")
	assert.ErrorIs(t, err, ErrInvalidActorRef)
	assert.Empty(t, env.deliverer.sent)
}

func TestSendAcceptEmbedsFollow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bobURI := "https://remote.example/users/bob"
	bob := env.addRemote(bobURI, bobURI)

	follow := followActivity(bobURI, env.uris.Actor("alice"))
	require.NoError(t, env.outboxSvc.SendAccept(ctx, "alice", bob.Recipient(), follow))

	require.Len(t, env.deliverer.sent, 1)
	sent := env.deliverer.sent[0]
	assert.Equal(t, federation.TypeAccept, sent.activity.Type)
	assert.Equal(t, []string{bobURI}, sent.activity.To)
	assert.Contains(t, sent.activity.ID, "#accepts/")

	embedded := sent.activity.ObjectActivity()
	require.NotNil(t, embedded)
	assert.Equal(t, follow.ID, embedded.ID)
}

func TestSendCreateWithoutRecipients(t *testing.T) {
	env := newTestEnv(t)

	note := &federation.Note{ID: env.uris.Post("alice", 1), Type: federation.TypeNote}
	require.NoError(t, env.outboxSvc.SendCreate(context.Background(), "alice", note, nil))
	assert.Empty(t, env.deliverer.sent, "nothing to deliver without followers")
}

func TestOutboxSignsWithMainKey(t *testing.T) {
	env := newTestEnv(t)
	bobURI := "https://remote.example/users/bob"
	env.addRemote(bobURI, bobURI)

	require.NoError(t, env.outboxSvc.SendFollow(context.Background(), "alice", bobURI))

	require.Len(t, env.deliverer.sent, 1)
	signer := env.deliverer.sent[0].signer
	require.NotNil(t, signer)
	assert.Equal(t, env.uris.Actor("alice")+"#main-key", signer.KeyID)
	assert.NotNil(t, signer.PrivateKey)
}
