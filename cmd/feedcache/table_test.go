package main

import (
	"database/sql"
	"reflect"
	"strings"
	"testing"
	"time"

	"feedcache/internal/config"
	"feedcache/internal/feedcache"
)

func TestHistoryRows(t *testing.T) {
	started := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	runs := []*feedcache.SyncRun{
		{
			Trigger:           "cli",
			StartedAt:         started,
			FinishedAt:        sql.NullTime{Time: started.Add(1500 * time.Millisecond), Valid: true},
			Status:            feedcache.StatusPartial,
			FeedStatus:        200,
			LikedStatus:       200,
			Items:             20,
			PhotosDownloaded:  3,
			AvatarsDownloaded: 1,
			DownloadFailures:  1,
			Deleted:           2,
		},
		{
			Trigger:     "http",
			StartedAt:   started,
			FinishedAt:  sql.NullTime{Time: started.Add(time.Second), Valid: true},
			Status:      feedcache.StatusError,
			LikedStatus: 400,
		},
		{Trigger: "cli", StartedAt: started, Status: "running"},
	}

	stamp := started.Local().Format("2006-01-02 15:04:05")
	want := [][]string{
		{stamp, "cli", "partial", "200/200", "20", "3", "1", "1", "2", "1.5s"},
		{stamp, "http", "error", "-/400", "0", "0", "0", "0", "0", "1s"},
		{stamp, "cli", "running", "-", "0", "0", "0", "0", "0", "-"},
	}
	if got := historyRows(runs); !reflect.DeepEqual(got, want) {
		t.Errorf("historyRows() =\n%v\nwant\n%v", got, want)
	}
}

func TestRenderTable(t *testing.T) {
	if got := renderTable(nil, nil, nil); got != "" {
		t.Errorf("renderTable(no headers) = %q, want empty", got)
	}

	out := renderTable([]string{"Name", "Count"}, [][]string{{"photos", "12"}, {"short"}}, []columnAlignment{alignLeft, alignRight})
	// Headers keep the case they were given.
	for _, want := range []string{"Name", "Count", "photos", "12", "short"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered table missing %q:\n%s", want, out)
		}
	}
}

func TestMaskToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{token: "1234567.abcdef", want: "****cdef"},
		{token: "abcd", want: "****"},
		{token: "", want: "****"},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := maskToken(tt.token); got != tt.want {
				t.Errorf("maskToken(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestConfigRows(t *testing.T) {
	cfg := config.NewConfig("/srv/feedcache")
	rows := configRows(cfg)

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row[0]] = row[1]
	}
	checks := map[string]string{
		"base_dir":       "/srv/feedcache",
		"store.root":     "/srv/feedcache/cached",
		"sync.max_items": "20",
		"sync.timeout":   "5m0s",
		"proxy.url":      "(none)",
	}
	for key, want := range checks {
		if values[key] != want {
			t.Errorf("%s = %q, want %q", key, values[key], want)
		}
	}
	if _, ok := values["store.s3_bucket"]; ok {
		t.Error("s3 settings listed for a filesystem store")
	}
}
