package feedcache

// UserManifestRecord is one entry of the user manifest.
type UserManifestRecord struct {
	UserID string    `json:"user_id"`
	Image  UserImage `json:"image"`
}

// UserImage points at a cached avatar.
type UserImage struct {
	Src string `json:"src"`
}

// RewriteItem returns a copy of the item's payload that references the cached
// photo and avatar instead of the remote ones. The original is left untouched.
//
// Added fields:
//
//	images.locally_stored.url           public path of the cached photo
//	user.profile_picture_locally_stored public path of the cached avatar
func RewriteItem(item *RemoteItem, layout Layout) *Document {
	doc := item.Doc().Clone()
	if doc == nil {
		doc = NewDocument()
	}

	images := doc.Child("images")
	locallyStored := NewDocument()
	locallyStored.Set("url", layout.PublicPath(layout.PhotoKey(item)))
	images.Set("locally_stored", locallyStored)

	user := doc.Child("user")
	user.Set("profile_picture_locally_stored", layout.PublicPath(layout.AvatarKey(item.User.ID)))

	return doc
}

// RewriteUsers builds the user manifest, one record per user in the order the
// users were first seen.
func RewriteUsers(users []UserRef, layout Layout) []UserManifestRecord {
	records := make([]UserManifestRecord, 0, len(users))
	for _, u := range users {
		records = append(records, UserManifestRecord{
			UserID: u.ID,
			Image:  UserImage{Src: layout.PublicPath(layout.AvatarKey(u.ID))},
		})
	}
	return records
}

// userSet deduplicates users by id. A later avatar URL replaces an earlier
// one; the position of first appearance is kept.
type userSet struct {
	order []string
	byID  map[string]UserRef
}

func newUserSet() *userSet {
	return &userSet{byID: make(map[string]UserRef)}
}

func (s *userSet) add(u UserRef) {
	if _, ok := s.byID[u.ID]; !ok {
		s.order = append(s.order, u.ID)
	}
	s.byID[u.ID] = u
}

func (s *userSet) list() []UserRef {
	out := make([]UserRef, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}
