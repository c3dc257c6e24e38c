package federation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const activityMediaType = `application/activity+json`

// Deliverer performs signed delivery of one activity to recipients.
// Delivery is best-effort and at-least-once; callers must tolerate
// re-invocation with the same logical input.
type Deliverer interface {
	SendActivity(ctx context.Context, signer *Signer, recipients []Recipient, activity any) error
}

// Resolver dereferences a remote actor by handle or URL.
type Resolver interface {
	LookupActor(ctx context.Context, ref string) (*RemoteActor, error)
}

// Client is the HTTP implementation of Deliverer and Resolver.
type Client struct {
	http   *http.Client
	logger *zap.Logger
}

func NewClient(logger *zap.Logger) *Client {
	return &Client{
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

const deliveryConcurrency = 8

// SendActivity signs the activity and posts it to every recipient
// inbox. Recipients on the same server sharing an inbox endpoint are
// delivered to once.
func (c *Client) SendActivity(ctx context.Context, signer *Signer, recipients []Recipient, activity any) error {
	body, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("marshaling activity: %w", err)
	}

	inboxes := make(map[string]struct{}, len(recipients))
	for _, r := range recipients {
		inbox := r.InboxURL
		if r.SharedInboxURL != nil && *r.SharedInboxURL != "" {
			inbox = *r.SharedInboxURL
		}
		inboxes[inbox] = struct{}{}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deliveryConcurrency)
	for inbox := range inboxes {
		g.Go(func() error {
			if err := c.deliver(gctx, signer, inbox, body); err != nil {
				c.logger.Warn("activity delivery failed",
					zap.String("inbox", inbox),
					zap.Error(err))
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

func (c *Client) deliver(ctx context.Context, signer *Signer, inbox string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, inbox, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", activityMediaType)
	req.Header.Set("Accept", activityMediaType)
	if err := signRequest(req, signer, body); err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("inbox %s returned %s", inbox, resp.Status)
	}
	return nil
}

// actorTypes are the object kinds that count as actors; anything else
// fails the capability check.
var actorTypes = map[string]bool{
	"Person":       true,
	"Service":      true,
	"Application":  true,
	"Group":        true,
	"Organization": true,
}

// LookupActor resolves a handle (user@host, with or without leading @)
// via WebFinger, or fetches an actor document directly from a URL.
func (c *Client) LookupActor(ctx context.Context, ref string) (*RemoteActor, error) {
	ref = strings.TrimSpace(ref)
	actorURL := ref
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		resolved, err := c.webfinger(ctx, strings.TrimPrefix(ref, "@"))
		if err != nil {
			return nil, err
		}
		actorURL = resolved
	}
	return c.fetchActor(ctx, actorURL)
}

func (c *Client) webfinger(ctx context.Context, handle string) (string, error) {
	_, host, ok := strings.Cut(handle, "@")
	if !ok || host == "" {
		return "", fmt.Errorf("invalid actor handle %q", handle)
	}

	endpoint := url.URL{
		Scheme:   "https",
		Host:     host,
		Path:     "/.well-known/webfinger",
		RawQuery: url.Values{"resource": {"acct:" + handle}}.Encode(),
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("webfinger lookup: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("webfinger lookup for %q returned %s", handle, resp.Status)
	}

	var doc struct {
		Links []struct {
			Rel  string `json:"rel"`
			Type string `json:"type"`
			Href string `json:"href"`
		} `json:"links"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", fmt.Errorf("decoding webfinger response: %w", err)
	}
	for _, link := range doc.Links {
		if link.Rel == "self" && strings.Contains(link.Type, "activity") {
			return link.Href, nil
		}
	}
	return "", fmt.Errorf("no actor link in webfinger response for %q", handle)
}

func (c *Client) fetchActor(ctx context.Context, actorURL string) (*RemoteActor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, actorURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", activityMediaType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching actor: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("actor fetch %s returned %s", actorURL, resp.Status)
	}

	var doc struct {
		ID                string  `json:"id"`
		Type              string  `json:"type"`
		PreferredUsername string  `json:"preferredUsername"`
		Name              *string `json:"name"`
		Inbox             string  `json:"inbox"`
		Endpoints         *struct {
			SharedInbox *string `json:"sharedInbox"`
		} `json:"endpoints"`
		URL *string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding actor document: %w", err)
	}
	if !actorTypes[doc.Type] {
		return nil, fmt.Errorf("object at %s is a %q, not an actor", actorURL, doc.Type)
	}
	if doc.ID == "" || doc.Inbox == "" {
		return nil, fmt.Errorf("actor document at %s has no id or inbox", actorURL)
	}

	actor := &RemoteActor{
		URI:      doc.ID,
		Name:     doc.Name,
		InboxURL: doc.Inbox,
		URL:      doc.URL,
	}
	if doc.Endpoints != nil {
		actor.SharedInboxURL = doc.Endpoints.SharedInbox
	}
	if idURL, err := url.Parse(doc.ID); err == nil && doc.PreferredUsername != "" {
		actor.Handle = "@" + doc.PreferredUsername + "@" + idURL.Host
	} else {
		actor.Handle = doc.ID
	}
	return actor, nil
}
