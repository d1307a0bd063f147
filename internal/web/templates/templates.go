// Package templates renders the HTML pages as templ components. The
// *.templ sources are compiled with `templ generate`; the view types they
// render live here.
package templates

//go:generate templ generate

import (
	"time"

	"github.com/JonMunkholm/shipsort/internal/core"
)

// PageData is everything the upload page shows.
type PageData struct {
	Input     *InputView
	Run       *RunView
	Error     *core.UserMessage
	Accept    string // file input accept list, e.g. ".csv,.xls,.xlsx"
	MaxFileMB int64
}

// InputView describes the loaded file.
type InputView struct {
	FileName string
	Rows     int
	Columns  []string
	LoadedAt time.Time
}

// RunView describes a classification result.
type RunView struct {
	ID            string
	AddressColumn string
	Summary       core.Summary
	Buckets       []BucketView
}

// BucketView is one category card with its download link and preview rows.
type BucketView struct {
	Category core.Category
	Label    string
	FileName string
	URL      string
	Count    int
	Preview  *core.Table
}

var bucketIcon = map[core.Category]string{
	core.PostOffice:  "📮",
	core.HasDistrict: "🏠",
	core.NoDistrict:  "⚠️",
}
