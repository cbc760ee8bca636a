package unogs

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode"
)

const (
	// DefaultListingURL is the endpoint serving paginated new/expiring listings
	DefaultListingURL = "https://unogs-unogs-v1.p.rapidapi.com/aaapi.cgi"
	// DefaultSearchURL is the endpoint serving free-text search
	DefaultSearchURL = "https://unogsng.p.rapidapi.com/search"
	// DefaultCountry is the country code used in listing queries
	DefaultCountry = "US"
)

// Param is a single query string parameter. Order is significant.
type Param struct {
	Key   string
	Value string
}

// Query describes one request against the catalog API
type Query interface {
	// Kind is the query type, also the cache subdirectory
	Kind() string
	// CacheKey identifies the cached response, e.g. "new/1"
	CacheKey() string
	// Endpoint is the URL without query parameters
	Endpoint() string
	// Params are the query parameters in request order
	Params() []Param
}

// PageKind is a paginated listing type
type PageKind string

const (
	// KindNew lists new releases
	KindNew PageKind = "new"
	// KindExpiring lists titles leaving the catalog
	KindExpiring PageKind = "expiring"
	// KindSearch is the kind of Search queries
	KindSearch = "search"
)

var pageCodes = map[PageKind]string{
	KindNew:      "new1",
	KindExpiring: "exp",
}

// Code returns the API query code for the kind, e.g. "exp"
func (k PageKind) Code() (string, error) {
	code, ok := pageCodes[k]
	if !ok {
		return "", fmt.Errorf("unknown page kind: %q", string(k))
	}
	return code, nil
}

// Page is one page of a paginated listing
type Page struct {
	PageKind PageKind
	Num      int
	Country  string
	URL      string
}

// NewPage creates a listing page query with default endpoint and country
func NewPage(kind PageKind, num int) (Page, error) {
	if _, err := kind.Code(); err != nil {
		return Page{}, err
	}
	if num < 1 {
		return Page{}, fmt.Errorf("page number must be positive, got %d", num)
	}
	return Page{PageKind: kind, Num: num, Country: DefaultCountry, URL: DefaultListingURL}, nil
}

func (p Page) Kind() string { return string(p.PageKind) }

func (p Page) CacheKey() string {
	return p.Kind() + "/" + strconv.Itoa(p.Num)
}

func (p Page) Endpoint() string {
	if p.URL == "" {
		return DefaultListingURL
	}
	return p.URL
}

func (p Page) Params() []Param {
	code, _ := p.PageKind.Code()
	country := p.Country
	if country == "" {
		country = DefaultCountry
	}
	return []Param{
		{"q", fmt.Sprintf("get:%s:%s", code, country)},
		{"t", "ns"},
		{"st", "adv"},
		{"p", strconv.Itoa(p.Num)},
	}
}

// Search is a free-text movie search
type Search struct {
	Text string
	URL  string
}

// NewSearch creates a search query against the default endpoint
func NewSearch(text string) (Search, error) {
	if strings.TrimSpace(text) == "" {
		return Search{}, fmt.Errorf("search text is required")
	}
	return Search{Text: text, URL: DefaultSearchURL}, nil
}

func (s Search) Kind() string { return KindSearch }

func (s Search) CacheKey() string {
	return KindSearch + "/" + NormalizeKey(s.Text)
}

func (s Search) Endpoint() string {
	if s.URL == "" {
		return DefaultSearchURL
	}
	return s.URL
}

func (s Search) Params() []Param {
	return []Param{
		{"type", "movie"},
		{"countrylist", "78"},
		{"audio", "english"},
		{"country_andorunique", "unique"},
		{"query", s.Text},
	}
}

// NormalizeKey makes free text usable as a file name: every whitespace rune
// and path separator becomes an underscore.
func NormalizeKey(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, text)
}

// CompiledURL renders the endpoint with its parameters in order and without
// escaping, matching what the API documentation shows.
func CompiledURL(q Query) string {
	params := q.Params()
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p.Key+"="+p.Value)
	}
	return q.Endpoint() + "?" + strings.Join(parts, "&")
}

// Values converts ordered params into url.Values for the wire
func Values(params []Param) url.Values {
	v := make(url.Values, len(params))
	for _, p := range params {
		v.Add(p.Key, p.Value)
	}
	return v
}
