package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/s0up4200/nfx/unogs"
)

const (
	// DefaultPerPage is the page size the listing API returns
	DefaultPerPage = 100
	// DefaultMaxTitles caps how many titles one collection loads
	DefaultMaxTitles = 500
)

// Fetcher returns the JSON document for a query
type Fetcher interface {
	Get(ctx context.Context, q unogs.Query) (json.RawMessage, error)
}

// Purger removes stale cached documents of one query kind
type Purger interface {
	Purge(kind string) (int, error)
}

// Filter decides whether a title is kept
type Filter interface {
	Evaluate(title Title) bool
}

// FilterFunc adapts a function to Filter
type FilterFunc func(Title) bool

// Evaluate implements Filter
func (f FilterFunc) Evaluate(title Title) bool { return f(title) }

// MoviesOnly keeps movies and drops series
var MoviesOnly Filter = FilterFunc(Title.IsMovie)

// Collection is a paginated listing (new releases or expiring titles)
type Collection struct {
	kind      unogs.PageKind
	fetcher   Fetcher
	purger    Purger
	country   string
	endpoint  string
	perPage   int
	maxTitles int
	filter    Filter
	logger    zerolog.Logger
}

// CollectionOption configures a Collection
type CollectionOption func(*Collection)

// WithCountry sets the catalog country code
func WithCountry(country string) CollectionOption {
	return func(c *Collection) {
		c.country = country
	}
}

// WithEndpoint overrides the listing endpoint
func WithEndpoint(endpoint string) CollectionOption {
	return func(c *Collection) {
		c.endpoint = endpoint
	}
}

// WithPaging sets the page size reported by the API and the maximum number
// of titles to load.
func WithPaging(perPage, maxTitles int) CollectionOption {
	return func(c *Collection) {
		if perPage > 0 {
			c.perPage = perPage
		}
		if maxTitles > 0 {
			c.maxTitles = maxTitles
		}
	}
}

// WithFilter replaces the default movies-only filter
func WithFilter(f Filter) CollectionOption {
	return func(c *Collection) {
		if f != nil {
			c.filter = f
		}
	}
}

// WithPurger purges stale cache files of the collection kind before loading
func WithPurger(p Purger) CollectionOption {
	return func(c *Collection) {
		c.purger = p
	}
}

// NewCollection creates a collection of the given kind
func NewCollection(kind unogs.PageKind, fetcher Fetcher, logger zerolog.Logger, opts ...CollectionOption) (*Collection, error) {
	if _, err := kind.Code(); err != nil {
		return nil, err
	}

	c := &Collection{
		kind:      kind,
		fetcher:   fetcher,
		country:   unogs.DefaultCountry,
		endpoint:  unogs.DefaultListingURL,
		perPage:   DefaultPerPage,
		maxTitles: DefaultMaxTitles,
		filter:    MoviesOnly,
		logger:    logger.With().Str("collection", string(kind)).Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewReleases creates the collection of recently added titles
func NewReleases(fetcher Fetcher, logger zerolog.Logger, opts ...CollectionOption) *Collection {
	c, _ := NewCollection(unogs.KindNew, fetcher, logger, opts...)
	return c
}

// Expiring creates the collection of titles about to leave the catalog
func Expiring(fetcher Fetcher, logger zerolog.Logger, opts ...CollectionOption) *Collection {
	c, _ := NewCollection(unogs.KindExpiring, fetcher, logger, opts...)
	return c
}

// Kind returns the listing kind
func (c *Collection) Kind() unogs.PageKind {
	return c.kind
}

// Columns returns the table columns for this collection
func (c *Collection) Columns() []Column {
	if c.kind == unogs.KindExpiring {
		return ExpiringColumns
	}
	return ListingColumns
}

// Load purges stale pages, then fetches pages until the last one and
// returns the titles that pass the filter. Nothing is returned unless every
// page loads.
func (c *Collection) Load(ctx context.Context) ([]Title, error) {
	if c.purger != nil {
		removed, err := c.purger.Purge(string(c.kind))
		if err != nil {
			return nil, fmt.Errorf("failed to purge %s cache: %w", c.kind, err)
		}
		if removed > 0 {
			c.logger.Debug().Int("removed", removed).Msg("Purged stale pages")
		}
	}

	var (
		titles    []Title
		pageCount int
		seen      int
	)

	for num := 1; ; num++ {
		page := unogs.Page{PageKind: c.kind, Num: num, Country: c.country, URL: c.endpoint}

		doc, err := c.fetcher.Get(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s page %d: %w", c.kind, num, err)
		}

		listing, err := unogs.Decode[unogs.ListingResponse](page.CacheKey(), doc)
		if err != nil {
			return nil, err
		}

		// The first page's count determines how many pages there are
		if num == 1 {
			pageCount = int(math.Ceil(float64(listing.Count) / float64(c.perPage)))
		}

		for _, item := range listing.Items {
			seen++
			title := titleFromListing(item)
			if c.filter.Evaluate(title) {
				titles = append(titles, title)
			}
		}

		c.logger.Debug().Int("page", num).Int("pages", pageCount).Int("items", len(listing.Items)).Msg("Loaded page")

		if c.isLast(num, pageCount) {
			break
		}
	}

	c.logger.Debug().Int("total", seen).Int("matched", len(titles)).Msg("Collection loaded")
	return titles, nil
}

func (c *Collection) isLast(num, pageCount int) bool {
	if c.perPage*num >= c.maxTitles {
		return true
	}
	return num >= pageCount
}
