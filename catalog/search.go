package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"github.com/rs/zerolog"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/s0up4200/nfx/unogs"
)

// SearchTitles runs a free-text search and returns the matching titles in
// API order.
func SearchTitles(ctx context.Context, fetcher Fetcher, search unogs.Search, logger zerolog.Logger) ([]Title, error) {
	doc, err := fetcher.Get(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("failed to search %q: %w", search.Text, err)
	}

	resp, err := unogs.Decode[unogs.SearchResponse](search.CacheKey(), doc)
	if err != nil {
		return nil, err
	}

	titles := make([]Title, 0, len(resp.Results))
	for _, result := range resp.Results {
		titles = append(titles, titleFromSearch(result))
	}

	logger.Debug().Str("query", search.Text).Int("results", len(titles)).Msg("Search complete")
	return titles, nil
}

// Rank orders titles by Jaro-Winkler similarity to query, best match first.
// Ties keep their original order.
func Rank(titles []Title, query string) []Title {
	target := foldTitle(query)

	type scored struct {
		title Title
		score float32
	}
	ranked := make([]scored, len(titles))
	for i, t := range titles {
		ranked[i] = scored{title: t, score: edlib.JaroWinklerSimilarity(target, foldTitle(t.Title))}
	}

	slices.SortStableFunc(ranked, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})

	out := make([]Title, len(ranked))
	for i, r := range ranked {
		out[i] = r.title
	}
	return out
}

// foldTitle lowercases, strips accents and collapses whitespace
func foldTitle(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(folded), " ")
}
