package feedcache

import (
	"path"
	"strconv"
	"strings"
)

// Layout decides where cached assets live in the store and how the display
// surface addresses them.
//
// Store keys are slash-separated and relative to the store root, for example
// "instagram-photos/photo_1400000000.jpg". The public path is the key joined
// onto PublicPrefix, which is what the manifests record.
type Layout struct {
	PublicPrefix string
	PhotosDir    string
	UsersDir     string
	AssetExt     string
}

// PhotoKey returns the store key for an item's photo, derived from its
// creation timestamp.
func (l Layout) PhotoKey(item *RemoteItem) string {
	return path.Join(l.PhotosDir, "photo_"+strconv.FormatInt(item.CreatedTime, 10)+l.AssetExt)
}

// AvatarKey returns the store key for a user's avatar.
func (l Layout) AvatarKey(userID string) string {
	return path.Join(l.UsersDir, "profilephoto_"+userID+l.AssetExt)
}

// PublicPath converts a store key into the path written to manifests.
func (l Layout) PublicPath(key string) string {
	if l.PublicPrefix == "" {
		return key
	}
	return strings.TrimRight(l.PublicPrefix, "/") + "/" + key
}

// KeyForPublicPath is the inverse of PublicPath. It reports false when p does
// not sit under the public prefix.
func (l Layout) KeyForPublicPath(p string) (string, bool) {
	if l.PublicPrefix == "" {
		return p, p != ""
	}
	prefix := strings.TrimRight(l.PublicPrefix, "/") + "/"
	if !strings.HasPrefix(p, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(p, prefix)
	return key, key != ""
}

// IsAsset reports whether key carries the asset extension.
func (l Layout) IsAsset(key string) bool {
	return path.Ext(key) == l.AssetExt
}
