package feedcache_test

import (
	"context"
	"reflect"
	"testing"

	"feedcache/internal/feedcache"
	"feedcache/internal/testutil"
)

func TestInspect_EmptyStore(t *testing.T) {
	status, err := feedcache.Inspect(context.Background(), testutil.NewTestStore(), testOptions())
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if status.Photos != 0 || status.Users != 0 || status.Assets != 0 || !status.Consistent() {
		t.Errorf("Inspect() = %+v, want empty consistent status", status)
	}
}

func TestInspect(t *testing.T) {
	tests := []struct {
		name        string
		keep        []string
		mutate      func(t *testing.T, f *syncFixture)
		wantMissing []string
		wantOrphans []string
	}{
		{
			name: "consistent",
		},
		{
			name: "stray asset",
			mutate: func(t *testing.T, f *syncFixture) {
				putAll(t, f.store, "instagram-photos/stray.jpg")
			},
			wantOrphans: []string{"instagram-photos/stray.jpg"},
		},
		{
			name: "stray asset kept",
			keep: []string{"stray.jpg"},
			mutate: func(t *testing.T, f *syncFixture) {
				putAll(t, f.store, "instagram-photos/stray.jpg")
			},
		},
		{
			name: "asset removed behind the manifest",
			mutate: func(t *testing.T, f *syncFixture) {
				if err := f.store.Delete(context.Background(), "instagram-users/profilephoto_2.jpg"); err != nil {
					t.Fatal(err)
				}
			},
			wantMissing: []string{"instagram-users/profilephoto_2.jpg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			opts := testOptions()
			opts.Keep = tt.keep
			f := newSyncFixture(opts)
			f.fetcher.SetFeed(testutil.FeedEndpoint, testutil.Item("a", 300, "1"), testutil.Item("b", 100, "2"))
			if _, err := f.rec.Run(ctx, "tok"); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if tt.mutate != nil {
				tt.mutate(t, f)
			}

			status, err := feedcache.Inspect(ctx, f.store, opts)
			if err != nil {
				t.Fatalf("Inspect() error = %v", err)
			}
			if status.Photos != 2 || status.Users != 2 {
				t.Errorf("Photos, Users = %d, %d; want 2, 2", status.Photos, status.Users)
			}
			if !reflect.DeepEqual(status.Missing, tt.wantMissing) {
				t.Errorf("Missing = %v, want %v", status.Missing, tt.wantMissing)
			}
			if !reflect.DeepEqual(status.Orphans, tt.wantOrphans) {
				t.Errorf("Orphans = %v, want %v", status.Orphans, tt.wantOrphans)
			}
		})
	}
}
