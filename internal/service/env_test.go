package service

import (
	"testing"

	"github.com/plumefed/plume/internal/domain"
	"github.com/plumefed/plume/internal/federation"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testEnv wires the services around the in-memory fakes, with one local
// user "alice" already set up.
type testEnv struct {
	uris      *federation.URIs
	users     *fakeUserRepo
	keys      *fakeKeyRepo
	actors    *fakeActorRepo
	follows   *fakeFollowRepo
	postsRepo *fakePostRepo
	deliverer *fakeDeliverer
	resolver  *fakeResolver
	notifier  *fakeNotifier

	keySvc      *KeyService
	actorSvc    *ActorService
	followerSvc *FollowerService
	outboxSvc   *OutboxService
	postSvc     *PostService
	inboxSvc    *InboxService

	localActor *domain.Actor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	uris, err := federation.NewURIs("https://social.example")
	require.NoError(t, err)

	userID := int64(1)
	users := &fakeUserRepo{user: &domain.User{ID: userID, Username: "alice"}}
	actors := newFakeActorRepo()
	name := "Alice"
	sharedInbox := uris.SharedInbox()
	local := actors.addLocal("alice", &domain.Actor{
		UserID:         &userID,
		URI:            uris.Actor("alice"),
		Handle:         uris.Handle("alice"),
		Name:           &name,
		InboxURL:       uris.Inbox("alice"),
		SharedInboxURL: &sharedInbox,
	})

	env := &testEnv{
		uris:       uris,
		users:      users,
		keys:       newFakeKeyRepo(),
		actors:     actors,
		follows:    newFakeFollowRepo(actors),
		postsRepo:  newFakePostRepo("alice"),
		deliverer:  &fakeDeliverer{},
		resolver:   &fakeResolver{actors: map[string]*federation.RemoteActor{}},
		notifier:   &fakeNotifier{},
		localActor: local,
	}

	logger := zap.NewNop()
	env.keySvc = NewKeyService(env.users, env.keys, logger)
	env.actorSvc = NewActorService(env.actors, env.keySvc, uris, logger)
	env.followerSvc = NewFollowerService(env.follows, env.users)
	env.outboxSvc = NewOutboxService(env.deliverer, env.resolver, env.keySvc, uris, logger)
	env.postSvc = NewPostService(env.postsRepo, env.actors, env.followerSvc, env.outboxSvc, uris, env.notifier, logger)
	env.inboxSvc = NewInboxService(env.actorSvc, env.follows, env.outboxSvc, env.resolver, uris, env.notifier, logger)
	return env
}

// addRemote registers a resolvable remote actor under the given ref
// (handle or URL) and returns it.
func (e *testEnv) addRemote(ref, uri string) *federation.RemoteActor {
	shared := "https://remote.example/inbox"
	actor := &federation.RemoteActor{
		URI:            uri,
		Handle:         "@bob@remote.example",
		InboxURL:       uri + "/inbox",
		SharedInboxURL: &shared,
	}
	e.resolver.actors[ref] = actor
	return actor
}
