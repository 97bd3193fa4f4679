package feedcache

import "testing"

func TestNewRemoteItem(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantErr   bool
		wantTime  int64
		wantUser  string
		wantImage string
	}{
		{
			name:      "string created_time",
			raw:       `{"id":"a","created_time":"1400000000","user":{"id":"7","profile_picture":"p"},"images":{"standard_resolution":{"url":"i"}}}`,
			wantTime:  1400000000,
			wantUser:  "7",
			wantImage: "i",
		},
		{
			name:     "numeric created_time and user id",
			raw:      `{"created_time":1400000001,"user":{"id":8}}`,
			wantTime: 1400000001,
			wantUser: "8",
		},
		{name: "missing created_time", raw: `{"user":{"id":"7"}}`, wantErr: true},
		{name: "bad created_time", raw: `{"created_time":"yesterday","user":{"id":"7"}}`, wantErr: true},
		{name: "missing user", raw: `{"created_time":"1"}`, wantErr: true},
		{name: "empty user id", raw: `{"created_time":"1","user":{"id":""}}`, wantErr: true},
		{name: "user id escaping the users dir", raw: `{"created_time":"1","user":{"id":"x/../../instagram-photos/photo_1"}}`, wantErr: true},
		{name: "user id with backslash", raw: `{"created_time":"1","user":{"id":"a\\b"}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := NewRemoteItem(mustDocument(t, tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewRemoteItem() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if item.CreatedTime != tt.wantTime {
				t.Errorf("CreatedTime = %d, want %d", item.CreatedTime, tt.wantTime)
			}
			if item.User.ID != tt.wantUser {
				t.Errorf("User.ID = %q, want %q", item.User.ID, tt.wantUser)
			}
			if item.ImageURL != tt.wantImage {
				t.Errorf("ImageURL = %q, want %q", item.ImageURL, tt.wantImage)
			}
		})
	}

	if _, err := NewRemoteItem(nil); err == nil {
		t.Error("NewRemoteItem(nil) expected error")
	}
}
