package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/nfx/catalog"
	"github.com/s0up4200/nfx/config"
	"github.com/s0up4200/nfx/filter"
	"github.com/s0up4200/nfx/unogs"
)

// app wires the configured client, filters and formatter for the commands
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	client   *unogs.Client
	compiler *filter.Compiler
	out      io.Writer
}

func newApp(cfg *config.Config, logger zerolog.Logger, out io.Writer) *app {
	transport := &lazyTransport{cfg: cfg, logger: logger}
	cache := unogs.NewCache(cfg.Cache.Dir, logger)
	client := unogs.NewClient(transport, cache, cfg.Lock.Dir, logger,
		unogs.WithLimiterOptions(unogs.WithPadding(cfg.Lock.Padding)),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		compiler: filter.NewCompiler(filter.WithCache(16), filter.WithLogger(logger)),
		out:      out,
	}
}

// lazyTransport builds the HTTP transport on the first request, so cache and
// lock maintenance work without an API key.
type lazyTransport struct {
	cfg    *config.Config
	logger zerolog.Logger

	once      sync.Once
	transport *unogs.HTTPTransport
	err       error
}

func (l *lazyTransport) Do(ctx context.Context, r *unogs.Request) (*unogs.Response, error) {
	l.once.Do(func() {
		if l.err = l.cfg.RequireAPIKey(); l.err != nil {
			return
		}
		l.transport, l.err = unogs.NewHTTPTransport(l.cfg.API.Key, l.logger,
			unogs.WithTimeout(l.cfg.API.Timeout),
			unogs.WithRequestInterval(l.cfg.API.RequestInterval),
		)
	})
	if l.err != nil {
		return nil, l.err
	}
	return l.transport.Do(ctx, r)
}

// resolveFilter compiles the filter for a run: --filter, then --preset, then
// the configured default.
func (a *app) resolveFilter(adhoc, presetName string) (catalog.Filter, error) {
	var presetExpr string
	if presetName != "" {
		var err error
		if presetExpr, err = a.cfg.Preset(presetName); err != nil {
			return nil, err
		}
	}

	expression := filter.Select(adhoc, presetExpr, a.cfg.Filter.DefaultExpression)
	a.logger.Debug().Str("filter", expression).Msg("Using filter")

	f, err := a.compiler.ParseAndCreateFilter(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	return f, nil
}

// listCollection loads a whole collection and prints it
func (a *app) listCollection(ctx context.Context, kind unogs.PageKind, adhoc, presetName string) error {
	format, err := outputFormatOf(a.cfg)
	if err != nil {
		return err
	}

	f, err := a.resolveFilter(adhoc, presetName)
	if err != nil {
		return err
	}

	collection, err := catalog.NewCollection(kind, a.client, a.logger,
		catalog.WithCountry(a.cfg.API.Country),
		catalog.WithEndpoint(a.cfg.API.ListingURL),
		catalog.WithPaging(a.cfg.Catalog.PerPage, a.cfg.Catalog.MaxTitles),
		catalog.WithPurger(a.client.Cache()),
		catalog.WithFilter(f),
	)
	if err != nil {
		return err
	}

	titles, err := collection.Load(ctx)
	if err != nil {
		return err
	}

	return catalog.NewFormatter(format).Render(a.out, titles, collection.Columns())
}

// search runs a free-text search and prints the results
func (a *app) search(ctx context.Context, text string, ranked bool) error {
	format, err := outputFormatOf(a.cfg)
	if err != nil {
		return err
	}

	query, err := unogs.NewSearch(text)
	if err != nil {
		return err
	}
	query.URL = a.cfg.API.SearchURL

	titles, err := catalog.SearchTitles(ctx, a.client, query, a.logger)
	if err != nil {
		return err
	}

	if ranked {
		titles = catalog.Rank(titles, text)
	}

	return catalog.NewFormatter(format).Render(a.out, titles, catalog.SearchColumns)
}

// endpoints returns the API endpoints in use, one per lock file
func (a *app) endpoints() []string {
	return []string{a.cfg.API.ListingURL, a.cfg.API.SearchURL}
}

// purgeCache removes stale cache entries of every query kind
func (a *app) purgeCache() error {
	kinds := []string{string(unogs.KindNew), string(unogs.KindExpiring), unogs.KindSearch}

	total := 0
	for _, kind := range kinds {
		removed, err := a.client.Cache().Purge(kind)
		if err != nil {
			return fmt.Errorf("failed to purge %s cache: %w", kind, err)
		}
		total += removed
	}

	fmt.Fprintf(a.out, "Removed %d stale cache file(s) from %s\n", total, a.cfg.Cache.Dir)
	return nil
}

// lockStatus prints the rate limit lock of every endpoint
func (a *app) lockStatus() error {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "API\tState\tSince\tLifts\tFile")

	for _, endpoint := range a.endpoints() {
		limiter, err := a.client.Limiter(endpoint)
		if err != nil {
			return err
		}
		record, err := limiter.Status()
		if err != nil {
			return err
		}

		name, _ := unogs.APIName(endpoint)
		since, lifts := "-", "-"
		if !record.Timestamp.IsZero() {
			since = record.Timestamp.Local().Format(time.RFC3339)
			if record.State == unogs.LockLocked {
				lifts = record.Timestamp.Add(unogs.RateLimitWindow).Local().Format(time.RFC3339)
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", name, record.State, since, lifts, limiter.Path())
	}

	return tw.Flush()
}

// clearLocks removes the rate limit lock of every endpoint
func (a *app) clearLocks() error {
	for _, endpoint := range a.endpoints() {
		limiter, err := a.client.Limiter(endpoint)
		if err != nil {
			return err
		}
		if err := limiter.Clear(); err != nil {
			return fmt.Errorf("failed to clear lock %s: %w", limiter.Path(), err)
		}
		a.logger.Info().Str("file", limiter.Path()).Msg("Lock cleared")
	}
	return nil
}
