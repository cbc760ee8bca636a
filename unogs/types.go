package unogs

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Number decodes JSON numbers and numeric strings alike. The listing API
// quotes every value, the search API does not.
type Number float64

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		v = nil
	}
	if v == nil {
		*n = 0
		return nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return fmt.Errorf("not a number: %s", string(data))
	}
	*n = Number(f)
	return nil
}

// Int returns the number truncated to an int
func (n Number) Int() int {
	return int(n)
}

// Text decodes JSON strings and numbers into a string
type Text string

// UnmarshalJSON implements json.Unmarshaler
func (t *Text) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*t = ""
		return nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Errorf("not a string: %s", string(data))
	}
	*t = Text(s)
	return nil
}

// ListingResponse is one page of the new/expiring listing
type ListingResponse struct {
	Count Number        `json:"COUNT"`
	Items []ListingItem `json:"ITEMS"`
}

// ListingItem is a title in a listing page
type ListingItem struct {
	NetflixID  Text `json:"netflixid"`
	Title      Text `json:"title"`
	Image      Text `json:"image"`
	Synopsis   Text `json:"synopsis"`
	Rating     Text `json:"rating"`
	Type       Text `json:"type"`
	Released   Text `json:"released"`
	Runtime    Text `json:"runtime"`
	LargeImage Text `json:"largeimage"`
	UnogsDate  Text `json:"unogsdate"`
	IMDbID     Text `json:"imdbid"`
	Download   Text `json:"download"`
}

// SearchResponse is the result of a free-text search
type SearchResponse struct {
	Total   Number         `json:"total"`
	Results []SearchResult `json:"results"`
}

// SearchResult is a title returned by search
type SearchResult struct {
	NetflixID  Text   `json:"nfid"`
	Title      Text   `json:"title"`
	VType      Text   `json:"vtype"`
	IMDbID     Text   `json:"imdbid"`
	IMDbRating Number `json:"imdbrating"`
	Synopsis   Text   `json:"synopsis"`
	Year       Number `json:"year"`
	// Runtime is in seconds
	Runtime   Number `json:"runtime"`
	TitleDate Text   `json:"titledate"`
}

// Decode unmarshals a document into T, reporting failures as malformed responses
func Decode[T any](key string, doc json.RawMessage) (*T, error) {
	var v T
	if err := json.Unmarshal(doc, &v); err != nil {
		return nil, &MalformedResponseError{Key: key, Err: err}
	}
	return &v, nil
}
