package catalog

import (
	"fmt"
	"html"
	"strings"

	"github.com/spf13/cast"

	"github.com/s0up4200/nfx/unogs"
)

// Title is a catalog entry as shown to the user and seen by filters
type Title struct {
	ID       string  `json:"id" yaml:"id"`
	Title    string  `json:"title" yaml:"title"`
	Type     string  `json:"type" yaml:"type"`
	Synopsis string  `json:"synopsis,omitempty" yaml:"synopsis,omitempty"`
	Rating   float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
	Year     int     `json:"year,omitempty" yaml:"year,omitempty"`
	Released string  `json:"released,omitempty" yaml:"released,omitempty"`
	Runtime  string  `json:"runtime,omitempty" yaml:"runtime,omitempty"`
	// Expiring is the date the title leaves the catalog, if known
	Expiring string `json:"expiring,omitempty" yaml:"expiring,omitempty"`
	IMDbID   string `json:"imdb_id,omitempty" yaml:"imdb_id,omitempty"`
}

// IsMovie reports whether the title is a movie rather than a series
func (t Title) IsMovie() bool {
	return strings.EqualFold(t.Type, "movie")
}

// titleFromListing converts a listing item. The listing API HTML-escapes its text.
func titleFromListing(item unogs.ListingItem) Title {
	released := unescape(item.Released)
	return Title{
		ID:       unescape(item.NetflixID),
		Title:    unescape(item.Title),
		Type:     unescape(item.Type),
		Synopsis: unescape(item.Synopsis),
		Rating:   cast.ToFloat64(strings.TrimSpace(string(item.Rating))),
		Year:     cast.ToInt(strings.TrimLeft(released, "0")),
		Released: released,
		Runtime:  unescape(item.Runtime),
		Expiring: unescape(item.UnogsDate),
		IMDbID:   unescape(item.IMDbID),
	}
}

func titleFromSearch(result unogs.SearchResult) Title {
	year := result.Year.Int()
	title := Title{
		ID:       unescape(result.NetflixID),
		Title:    unescape(result.Title),
		Type:     unescape(result.VType),
		Synopsis: unescape(result.Synopsis),
		Rating:   float64(result.IMDbRating),
		Year:     year,
		Runtime:  FormatRuntime(result.Runtime.Int()),
		IMDbID:   unescape(result.IMDbID),
	}
	if year > 0 {
		title.Released = fmt.Sprint(year)
	}
	return title
}

func unescape(t unogs.Text) string {
	return html.UnescapeString(strings.TrimSpace(string(t)))
}

// FormatRuntime renders a duration in seconds as #h#m
func FormatRuntime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := seconds / 60
	return fmt.Sprintf("%dh%dm", minutes/60, minutes%60)
}
