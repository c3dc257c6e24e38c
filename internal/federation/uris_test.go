package federation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURIsBuild(t *testing.T) {
	uris, err := NewURIs("https://social.example")
	require.NoError(t, err)

	assert.Equal(t, "social.example", uris.Host())
	assert.Equal(t, "https://social.example/users/alice", uris.Actor("alice"))
	assert.Equal(t, "https://social.example/users/alice/inbox", uris.Inbox("alice"))
	assert.Equal(t, "https://social.example/inbox", uris.SharedInbox())
	assert.Equal(t, "https://social.example/users/alice/followers", uris.Followers("alice"))
	assert.Equal(t, "https://social.example/users/alice/posts/42", uris.Post("alice", 42))
	assert.Equal(t, "@alice@social.example", uris.Handle("alice"))
}

func TestURIsTrailingSlash(t *testing.T) {
	uris, err := NewURIs("https://social.example/")
	require.NoError(t, err)
	assert.Equal(t, "https://social.example/users/alice", uris.Actor("alice"))
}

func TestURIsRejectsRelativeBase(t *testing.T) {
	_, err := NewURIs("social.example")
	assert.Error(t, err)

	_, err = NewURIs("")
	assert.Error(t, err)
}

func TestParseActorRoundTrip(t *testing.T) {
	uris, err := NewURIs("https://social.example")
	require.NoError(t, err)

	username, ok := uris.ParseActor(uris.Actor("alice"))
	require.True(t, ok)
	assert.Equal(t, "alice", username)
}

func TestParseActorRejectsForeignURIs(t *testing.T) {
	uris, err := NewURIs("https://social.example")
	require.NoError(t, err)

	cases := []string{
		"https://other.example/users/alice",
		"http://social.example/users/alice",
		"https://social.example/users/alice/inbox",
		"https://social.example/users/",
		"https://social.example/inbox",
		"not a uri at all\x7f",
		"",
	}
	for _, uri := range cases {
		_, ok := uris.ParseActor(uri)
		assert.False(t, ok, "expected %q to be rejected", uri)
	}
}
