package federation

import (
	"encoding/json"
	"fmt"
)

const (
	// ActivityContext is the ActivityStreams JSON-LD context.
	ActivityContext = "https://www.w3.org/ns/activitystreams"
	// PublicCollection is the public-audience addressing marker.
	PublicCollection = "https://www.w3.org/ns/activitystreams#Public"
)

const (
	TypeFollow = "Follow"
	TypeUndo   = "Undo"
	TypeAccept = "Accept"
	TypeCreate = "Create"
	TypeNote   = "Note"
)

// Activity is the wire form of the activity kinds this node speaks.
// Object is either a bare URI string or an embedded object.
type Activity struct {
	Context any             `json:"@context,omitempty"`
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Actor   string          `json:"actor,omitempty"`
	Object  json.RawMessage `json:"object,omitempty"`
	To      []string        `json:"to,omitempty"`
	CC      []string        `json:"cc,omitempty"`
}

// ObjectID returns the URI the object refers to: the string itself for
// a bare URI, or the embedded object's id. Empty when absent.
func (a *Activity) ObjectID() string {
	if len(a.Object) == 0 {
		return ""
	}
	var uri string
	if err := json.Unmarshal(a.Object, &uri); err == nil {
		return uri
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(a.Object, &obj); err != nil {
		return ""
	}
	return obj.ID
}

// ObjectActivity decodes an embedded object as an activity. A bare URI
// object yields nil; the undone activity must travel embedded.
func (a *Activity) ObjectActivity() *Activity {
	if len(a.Object) == 0 {
		return nil
	}
	var uri string
	if err := json.Unmarshal(a.Object, &uri); err == nil {
		return nil
	}
	var inner Activity
	if err := json.Unmarshal(a.Object, &inner); err != nil {
		return nil
	}
	return &inner
}

// ObjectURI wraps a URI for use as an activity object.
func ObjectURI(uri string) json.RawMessage {
	raw, _ := json.Marshal(uri)
	return raw
}

// EmbedObject wraps a full object for use as an activity object.
func EmbedObject(v any) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("embedding activity object: %w", err)
	}
	return raw, nil
}

// Note is the federated object form of a local post.
type Note struct {
	Context      any      `json:"@context,omitempty"`
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	AttributedTo string   `json:"attributedTo"`
	To           []string `json:"to,omitempty"`
	CC           []string `json:"cc,omitempty"`
	Content      string   `json:"content"`
	MediaType    string   `json:"mediaType,omitempty"`
	Published    string   `json:"published,omitempty"`
	URL          string   `json:"url,omitempty"`
}

// Person is the protocol-facing actor document of the local user.
type Person struct {
	Context           any                  `json:"@context,omitempty"`
	ID                string               `json:"id"`
	Type              string               `json:"type"`
	PreferredUsername string               `json:"preferredUsername"`
	Name              string               `json:"name,omitempty"`
	Inbox             string               `json:"inbox"`
	Endpoints         *Endpoints           `json:"endpoints,omitempty"`
	URL               string               `json:"url,omitempty"`
	PublicKey         *PublicKey           `json:"publicKey,omitempty"`
	AssertionMethod   []VerificationMethod `json:"assertionMethod,omitempty"`
	Followers         string               `json:"followers,omitempty"`
}

type Endpoints struct {
	SharedInbox string `json:"sharedInbox,omitempty"`
}

type PublicKey struct {
	ID           string `json:"id"`
	Owner        string `json:"owner"`
	PublicKeyPem string `json:"publicKeyPem"`
}

type VerificationMethod struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Controller         string `json:"controller"`
	PublicKeyMultibase string `json:"publicKeyMultibase"`
}

// Collection is an ordered, fully materialized collection document.
type Collection struct {
	Context      any    `json:"@context,omitempty"`
	ID           string `json:"id"`
	Type         string `json:"type"`
	TotalItems   int    `json:"totalItems"`
	OrderedItems []any  `json:"orderedItems"`
}

// Recipient is a delivery target: identity URI, inbox, and the
// optional shared inbox used to coalesce fan-out per server.
type Recipient struct {
	ID             string  `json:"id"`
	InboxURL       string  `json:"inbox"`
	SharedInboxURL *string `json:"sharedInbox,omitempty"`
}

// RemoteActor is the result of dereferencing an actor by handle or URL.
type RemoteActor struct {
	URI            string
	Handle         string
	Name           *string
	InboxURL       string
	SharedInboxURL *string
	URL            *string
}

// Recipient converts a dereferenced actor into a delivery target.
func (a *RemoteActor) Recipient() Recipient {
	return Recipient{ID: a.URI, InboxURL: a.InboxURL, SharedInboxURL: a.SharedInboxURL}
}
