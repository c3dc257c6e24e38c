package service

import (
	"context"
	"errors"
	"time"

	"github.com/plumefed/plume/internal/domain"
	"github.com/plumefed/plume/internal/federation"
)

// In-memory repository fakes. They model just enough of the storage
// semantics (idempotent edge inserts, upsert on uri, key uniqueness per
// type) for the services to be exercised without a database.

type fakeUserRepo struct {
	user *domain.User
}

func (f *fakeUserRepo) CreateWithActor(ctx context.Context, user *domain.User, actor *domain.Actor) error {
	if f.user != nil {
		return errors.New("user already exists")
	}
	user.ID = 1
	actor.ID = 1
	actor.UserID = &user.ID
	f.user = user
	return nil
}

func (f *fakeUserRepo) Get(ctx context.Context) (*domain.User, error) {
	return f.user, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if f.user != nil && f.user.Username == username {
		return f.user, nil
	}
	return nil, nil
}

type fakeKeyRepo struct {
	keys    map[domain.KeyType]domain.Key
	creates int
}

func newFakeKeyRepo() *fakeKeyRepo {
	return &fakeKeyRepo{keys: make(map[domain.KeyType]domain.Key)}
}

func (f *fakeKeyRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Key, error) {
	var out []domain.Key
	for _, keyType := range domain.KeyTypes {
		if k, ok := f.keys[keyType]; ok && k.UserID == userID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeKeyRepo) Get(ctx context.Context, userID int64, keyType domain.KeyType) (*domain.Key, error) {
	if k, ok := f.keys[keyType]; ok && k.UserID == userID {
		return &k, nil
	}
	return nil, nil
}

func (f *fakeKeyRepo) CreateIfAbsent(ctx context.Context, key *domain.Key) (bool, error) {
	if _, ok := f.keys[key.Type]; ok {
		return false, nil
	}
	key.Created = time.Now().UTC()
	f.keys[key.Type] = *key
	f.creates++
	return true, nil
}

type fakeActorRepo struct {
	local  map[string]*domain.Actor
	remote map[string]*domain.Actor
	nextID int64
}

func newFakeActorRepo() *fakeActorRepo {
	return &fakeActorRepo{
		local:  make(map[string]*domain.Actor),
		remote: make(map[string]*domain.Actor),
		nextID: 1,
	}
}

func (f *fakeActorRepo) addLocal(username string, actor *domain.Actor) *domain.Actor {
	actor.ID = f.nextID
	f.nextID++
	f.local[username] = actor
	return actor
}

func (f *fakeActorRepo) GetByID(ctx context.Context, id int64) (*domain.Actor, error) {
	for _, a := range f.local {
		if a.ID == id {
			return a, nil
		}
	}
	for _, a := range f.remote {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeActorRepo) GetByURI(ctx context.Context, uri string) (*domain.Actor, error) {
	if a, ok := f.remote[uri]; ok {
		return a, nil
	}
	for _, a := range f.local {
		if a.URI == uri {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeActorRepo) GetLocalByUsername(ctx context.Context, username string) (*domain.Actor, error) {
	return f.local[username], nil
}

func (f *fakeActorRepo) UpsertRemote(ctx context.Context, actor *domain.Actor) (int64, error) {
	if existing, ok := f.remote[actor.URI]; ok {
		existing.Handle = actor.Handle
		existing.Name = actor.Name
		existing.InboxURL = actor.InboxURL
		existing.SharedInboxURL = actor.SharedInboxURL
		existing.URL = actor.URL
		return existing.ID, nil
	}
	actor.ID = f.nextID
	f.nextID++
	actor.Created = time.Now().UTC()
	f.remote[actor.URI] = actor
	return actor.ID, nil
}

type edge struct {
	followerID  int64
	followingID int64
}

type fakeFollowRepo struct {
	actors    *fakeActorRepo
	edges     map[edge]bool
	followers []domain.Actor
	following []domain.Actor
}

func newFakeFollowRepo(actors *fakeActorRepo) *fakeFollowRepo {
	return &fakeFollowRepo{actors: actors, edges: make(map[edge]bool)}
}

func (f *fakeFollowRepo) Create(ctx context.Context, followerID, followingID int64) error {
	f.edges[edge{followerID, followingID}] = true
	return nil
}

func (f *fakeFollowRepo) Delete(ctx context.Context, followerURI string, followingID int64) error {
	follower, err := f.actors.GetByURI(ctx, followerURI)
	if err != nil || follower == nil {
		return err
	}
	delete(f.edges, edge{follower.ID, followingID})
	return nil
}

func (f *fakeFollowRepo) ListFollowers(ctx context.Context, username string) ([]domain.Actor, error) {
	return f.followers, nil
}

func (f *fakeFollowRepo) ListFollowing(ctx context.Context, username string) ([]domain.Actor, error) {
	return f.following, nil
}

func (f *fakeFollowRepo) CountFollowers(ctx context.Context, userID int64) (int, error) {
	return f.countBy(func(e edge) int64 { return e.followingID }, userID)
}

func (f *fakeFollowRepo) CountFollowing(ctx context.Context, userID int64) (int, error) {
	return f.countBy(func(e edge) int64 { return e.followerID }, userID)
}

func (f *fakeFollowRepo) countBy(side func(edge) int64, userID int64) (int, error) {
	count := 0
	for e := range f.edges {
		for _, a := range f.actors.local {
			if a.UserID != nil && *a.UserID == userID && a.ID == side(e) {
				count++
			}
		}
	}
	return count, nil
}

type fakePostRepo struct {
	username string
	posts    []domain.Post
	nextID   int64
}

func newFakePostRepo(username string) *fakePostRepo {
	return &fakePostRepo{username: username, nextID: 1}
}

func (f *fakePostRepo) Create(ctx context.Context, actorID int64, content string, uriFor func(id int64) string) (*domain.Post, error) {
	id := f.nextID
	f.nextID++
	uri := uriFor(id)
	post := domain.Post{
		ID:      id,
		URI:     uri,
		ActorID: actorID,
		Content: content,
		URL:     &uri,
		Created: time.Now().UTC(),
	}
	f.posts = append(f.posts, post)
	return &post, nil
}

func (f *fakePostRepo) GetByUsernameAndID(ctx context.Context, username string, id int64) (*domain.Post, error) {
	if username != f.username {
		return nil, nil
	}
	for _, p := range f.posts {
		if p.ID == id {
			out := p
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakePostRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Post, error) {
	return f.posts, nil
}

func (f *fakePostRepo) ListTimeline(ctx context.Context, actorID int64) ([]domain.Post, error) {
	return f.posts, nil
}

// Federation collaborator fakes.

type sentActivity struct {
	signer     *federation.Signer
	recipients []federation.Recipient
	activity   *federation.Activity
}

type fakeDeliverer struct {
	sent []sentActivity
	err  error
}

func (f *fakeDeliverer) SendActivity(ctx context.Context, signer *federation.Signer, recipients []federation.Recipient, activity any) error {
	f.sent = append(f.sent, sentActivity{
		signer:     signer,
		recipients: recipients,
		activity:   activity.(*federation.Activity),
	})
	return f.err
}

type fakeResolver struct {
	actors map[string]*federation.RemoteActor
}

func (f *fakeResolver) LookupActor(ctx context.Context, ref string) (*federation.RemoteActor, error) {
	if actor, ok := f.actors[ref]; ok {
		return actor, nil
	}
	return nil, errors.New("actor not found")
}

type fakeNotifier struct {
	posts     []*domain.Post
	followers []string
}

func (f *fakeNotifier) NotifyNewPost(post *domain.Post) {
	f.posts = append(f.posts, post)
}

func (f *fakeNotifier) NotifyNewFollower(handle string) {
	f.followers = append(f.followers, handle)
}
