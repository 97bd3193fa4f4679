package feedcache

import (
	"encoding/json"
	"fmt"
	"testing"
)

var testLayout = Layout{
	PublicPrefix: "../store/cached",
	PhotosDir:    "instagram-photos",
	UsersDir:     "instagram-users",
	AssetExt:     ".jpg",
}

func mustDocument(t *testing.T, raw string) *Document {
	t.Helper()
	doc := NewDocument()
	if err := json.Unmarshal([]byte(raw), doc); err != nil {
		t.Fatalf("Unmarshal(%s) error = %v", raw, err)
	}
	return doc
}

// newTestItem builds a minimal valid item.
func newTestItem(t *testing.T, id string, createdTime int64, userID string) *RemoteItem {
	t.Helper()
	raw := fmt.Sprintf(`{"id":%q,"created_time":"%d","images":{"standard_resolution":{"url":"https://cdn.test/%s.jpg"}},"user":{"id":%q,"profile_picture":"https://cdn.test/u%s.jpg"}}`,
		id, createdTime, id, userID, userID)
	item, err := NewRemoteItem(mustDocument(t, raw))
	if err != nil {
		t.Fatalf("NewRemoteItem() error = %v", err)
	}
	return item
}

func times(items []*RemoteItem) []int64 {
	out := make([]int64, len(items))
	for i, item := range items {
		out[i] = item.CreatedTime
	}
	return out
}
