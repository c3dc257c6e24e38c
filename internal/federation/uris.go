package federation

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// URIs derives every identity and endpoint URI of this node from its
// public base URL. All services share one value; there is no global.
type URIs struct {
	base *url.URL
}

func NewURIs(baseURL string) (*URIs, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	return &URIs{base: base}, nil
}

func (u *URIs) Host() string {
	return u.base.Host
}

func (u *URIs) Actor(username string) string {
	return u.base.String() + "/users/" + username
}

func (u *URIs) Inbox(username string) string {
	return u.Actor(username) + "/inbox"
}

func (u *URIs) SharedInbox() string {
	return u.base.String() + "/inbox"
}

func (u *URIs) Followers(username string) string {
	return u.Actor(username) + "/followers"
}

func (u *URIs) Post(username string, id int64) string {
	return u.Actor(username) + "/posts/" + strconv.FormatInt(id, 10)
}

// Handle is the fediverse-style handle of a local user.
func (u *URIs) Handle(username string) string {
	return "@" + username + "@" + u.base.Host
}

// ParseActor classifies a URI: if it names an actor on this node it
// returns the username. It does not check that the user exists.
func (u *URIs) ParseActor(uri string) (string, bool) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return "", false
	}
	if parsed.Scheme != u.base.Scheme || parsed.Host != u.base.Host {
		return "", false
	}
	rest, ok := strings.CutPrefix(parsed.Path, u.base.Path+"/users/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}
