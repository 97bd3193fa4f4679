package main

import (
	"strconv"
	"strings"
	"time"

	"feedcache/internal/config"
	"feedcache/internal/feedcache"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

var historyHeaders = []string{"Started", "Trigger", "Status", "API", "Items", "Photos", "Avatars", "Failed", "Deleted", "Duration"}

var historyAligns = []columnAlignment{
	alignLeft, alignLeft, alignLeft, alignLeft,
	alignRight, alignRight, alignRight, alignRight, alignRight, alignRight,
}

func historyRows(runs []*feedcache.SyncRun) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		duration := "-"
		if run.FinishedAt.Valid {
			duration = run.FinishedAt.Time.Sub(run.StartedAt).Truncate(time.Millisecond).String()
		}
		rows = append(rows, []string{
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Trigger,
			run.Status,
			apiCodes(run),
			strconv.Itoa(run.Items),
			strconv.Itoa(run.PhotosDownloaded),
			strconv.Itoa(run.AvatarsDownloaded),
			strconv.Itoa(run.DownloadFailures),
			strconv.Itoa(run.Deleted),
			duration,
		})
	}
	return rows
}

// apiCodes renders the feed and liked status codes as "feed/liked".
func apiCodes(run *feedcache.SyncRun) string {
	if !run.FinishedAt.Valid {
		return "-"
	}
	return codeOrDash(run.FeedStatus) + "/" + codeOrDash(run.LikedStatus)
}

func codeOrDash(code int) string {
	if code == 0 {
		return "-"
	}
	return strconv.Itoa(code)
}

func configRows(cfg *config.Config) [][]string {
	rows := [][]string{
		{"base_dir", cfg.BaseDir},
		{"log_dir", cfg.LogDir},
		{"api.feed_endpoint", cfg.API.FeedEndpoint},
		{"api.liked_endpoint", cfg.API.LikedEndpoint},
		{"api.timeout", cfg.API.Timeout.String()},
		{"proxy.url", orNone(cfg.Proxy.URL)},
		{"sync.max_items", strconv.Itoa(cfg.Sync.MaxItems)},
		{"sync.timeout", cfg.Sync.Timeout.String()},
		{"sync.abort_on_download_error", strconv.FormatBool(cfg.Sync.AbortOnDownloadError)},
		{"store.type", cfg.Store.Type},
	}
	switch cfg.Store.Type {
	case "s3":
		rows = append(rows,
			[]string{"store.s3_bucket", cfg.Store.S3Bucket},
			[]string{"store.s3_prefix", orNone(cfg.Store.S3Prefix)},
			[]string{"store.s3_region", orNone(cfg.Store.S3Region)},
			[]string{"store.s3_endpoint", orNone(cfg.Store.S3Endpoint)},
		)
	case "filesystem", "":
		rows = append(rows, []string{"store.root", cfg.Store.Root})
	}
	rows = append(rows,
		[]string{"layout.public_prefix", cfg.Layout.PublicPrefix},
		[]string{"layout.keep", orNone(strings.Join(cfg.Layout.Keep, ", "))},
		[]string{"manifests.photos", cfg.Manifests.Photos},
		[]string{"manifests.users", cfg.Manifests.Users},
		[]string{"database.type", cfg.Database.Type},
		[]string{"server.listen_addr", cfg.Server.ListenAddr},
	)
	return rows
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
