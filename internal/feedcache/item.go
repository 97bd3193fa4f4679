package feedcache

import (
	"fmt"
	"strconv"
	"strings"
)

// RemoteItem is one media post as returned by the API. The fields the engine
// needs are read once at construction; the full payload stays in Doc.
type RemoteItem struct {
	ID          string
	CreatedTime int64
	ImageURL    string
	User        UserRef

	doc *Document
}

// UserRef identifies the owner of a post and where their avatar lives.
type UserRef struct {
	ID        string
	AvatarURL string
}

// NewRemoteItem validates doc and extracts the typed fields.
// created_time may be a JSON string or number of unix seconds.
func NewRemoteItem(doc *Document) (*RemoteItem, error) {
	if doc == nil {
		return nil, fmt.Errorf("item is empty")
	}

	raw, ok := doc.LookupString("created_time")
	if !ok {
		return nil, fmt.Errorf("item has no created_time")
	}
	created, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid created_time %q: %w", raw, err)
	}

	userID, ok := doc.LookupString("user", "id")
	if !ok || userID == "" {
		return nil, fmt.Errorf("item has no user id")
	}
	// The id becomes part of the avatar's store key.
	if strings.ContainsAny(userID, `/\`) || strings.Contains(userID, "..") {
		return nil, fmt.Errorf("invalid user id %q", userID)
	}

	id, _ := doc.LookupString("id")
	imageURL, _ := doc.LookupString("images", "standard_resolution", "url")
	avatarURL, _ := doc.LookupString("user", "profile_picture")

	return &RemoteItem{
		ID:          id,
		CreatedTime: created,
		ImageURL:    imageURL,
		User:        UserRef{ID: userID, AvatarURL: avatarURL},
		doc:         doc,
	}, nil
}

// Doc returns the item's original payload. Callers must not modify it.
func (i *RemoteItem) Doc() *Document {
	return i.doc
}
