package store

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"feedcache/internal/feedcache"
)

func TestMemoryStore_PutAndGet(t *testing.T) {
	s := NewMemoryStore("test-store")
	ctx := context.Background()

	tests := []struct {
		name    string
		key     string
		content string
		size    int64
		wantErr bool
	}{
		{
			name:    "store and retrieve asset",
			key:     "instagram-photos/photo_1.jpg",
			content: "hello world",
			size:    11,
		},
		{
			name:    "store empty content",
			key:     "instagram-photos/photo_2.jpg",
			content: "",
			size:    0,
		},
		{
			name:    "store large content",
			key:     "instagram-photos/photo_3.jpg",
			content: strings.Repeat("x", 10000),
			size:    10000,
		},
		{
			name:    "size mismatch",
			key:     "instagram-photos/photo_4.jpg",
			content: "abc",
			size:    4,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Put(ctx, tt.key, strings.NewReader(tt.content), tt.size)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Put() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if ok, _ := s.Exists(ctx, tt.key); ok {
					t.Error("failed Put() left an object behind")
				}
				return
			}

			var buf bytes.Buffer
			if err := s.Get(ctx, tt.key, &buf); err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got := buf.String(); got != tt.content {
				t.Errorf("Get() = %q, want %q", got, tt.content)
			}
		})
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore("test-store")

	var buf bytes.Buffer
	err := s.Get(context.Background(), "nope.json", &buf)
	if !errors.Is(err, feedcache.ErrAssetNotFound) {
		t.Errorf("Get() error = %v, want ErrAssetNotFound", err)
	}
}

func TestMemoryStore_ListDeleteRelax(t *testing.T) {
	s := NewMemoryStore("test-store")
	ctx := context.Background()

	for _, key := range []string{"b/2.jpg", "a/1.jpg", "manifest.json"} {
		if err := s.Put(ctx, key, strings.NewReader("x"), 1); err != nil {
			t.Fatalf("Put(%s) error = %v", key, err)
		}
	}

	got, err := s.List(ctx, ".jpg")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if want := []string{"a/1.jpg", "b/2.jpg"}; !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}

	if err := s.Relax(ctx, "a/1.jpg"); err != nil {
		t.Fatalf("Relax() error = %v", err)
	}
	if !s.IsRelaxed("a/1.jpg") {
		t.Error("IsRelaxed() = false after Relax")
	}
	if err := s.Relax(ctx, "missing.jpg"); err == nil {
		t.Error("Relax() of missing key succeeded, want error")
	}

	if err := s.Delete(ctx, "a/1.jpg"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if s.IsRelaxed("a/1.jpg") {
		t.Error("IsRelaxed() = true after Delete")
	}
	if ok, _ := s.Exists(ctx, "a/1.jpg"); ok {
		t.Error("Exists() = true after Delete")
	}
}
