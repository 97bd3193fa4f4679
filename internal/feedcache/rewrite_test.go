package feedcache

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestRewriteItem(t *testing.T) {
	raw := `{"id":"a","created_time":"1400000000","caption":{"text":"hi"},"images":{"standard_resolution":{"url":"https://cdn.test/a.jpg"}},"user":{"id":"7","profile_picture":"https://cdn.test/u7.jpg"}}`
	item, err := NewRemoteItem(mustDocument(t, raw))
	if err != nil {
		t.Fatalf("NewRemoteItem() error = %v", err)
	}

	got := RewriteItem(item, testLayout)

	want := `{"id":"a","created_time":"1400000000","caption":{"text":"hi"},` +
		`"images":{"standard_resolution":{"url":"https://cdn.test/a.jpg"},"locally_stored":{"url":"../store/cached/instagram-photos/photo_1400000000.jpg"}},` +
		`"user":{"id":"7","profile_picture":"https://cdn.test/u7.jpg","profile_picture_locally_stored":"../store/cached/instagram-users/profilephoto_7.jpg"}}`
	encoded, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(encoded) != want {
		t.Errorf("RewriteItem() =\n%s\nwant\n%s", encoded, want)
	}

	original, _ := json.Marshal(item.Doc())
	if string(original) != raw {
		t.Errorf("RewriteItem() modified the original payload: %s", original)
	}
}

func TestRewriteItem_PreservesFields(t *testing.T) {
	item := newTestItem(t, "x", 42, "9")
	got := RewriteItem(item, testLayout)

	// Removing the two added fields must give back the original.
	got.Child("images").Delete("locally_stored")
	got.Child("user").Delete("profile_picture_locally_stored")

	a, _ := json.Marshal(got)
	b, _ := json.Marshal(item.Doc())
	if string(a) != string(b) {
		t.Errorf("rewrite changed more than the added fields:\n%s\n%s", a, b)
	}
}

func TestRewriteUsers(t *testing.T) {
	users := []UserRef{{ID: "7", AvatarURL: "a"}, {ID: "3", AvatarURL: "b"}}

	got := RewriteUsers(users, testLayout)
	want := []UserManifestRecord{
		{UserID: "7", Image: UserImage{Src: "../store/cached/instagram-users/profilephoto_7.jpg"}},
		{UserID: "3", Image: UserImage{Src: "../store/cached/instagram-users/profilephoto_3.jpg"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RewriteUsers() = %+v, want %+v", got, want)
	}

	encoded, _ := json.Marshal(got[0])
	if string(encoded) != `{"user_id":"7","image":{"src":"../store/cached/instagram-users/profilephoto_7.jpg"}}` {
		t.Errorf("record encoding = %s", encoded)
	}

	if empty := RewriteUsers(nil, testLayout); empty == nil || len(empty) != 0 {
		t.Errorf("RewriteUsers(nil) = %#v, want empty non-nil slice", empty)
	}
}

func TestUserSet(t *testing.T) {
	s := newUserSet()
	s.add(UserRef{ID: "2", AvatarURL: "old"})
	s.add(UserRef{ID: "1", AvatarURL: "one"})
	s.add(UserRef{ID: "2", AvatarURL: "new"})

	want := []UserRef{{ID: "2", AvatarURL: "new"}, {ID: "1", AvatarURL: "one"}}
	if got := s.list(); !reflect.DeepEqual(got, want) {
		t.Errorf("list() = %+v, want %+v", got, want)
	}
}
