package filter

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/nfx/catalog"
)

var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func newTestCompiler(opts ...CompilerOption) *Compiler {
	return NewCompiler(append([]CompilerOption{WithClock(func() time.Time { return testNow })}, opts...)...)
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name        string
		expression  string
		wantErr     bool
		errContains string
	}{
		{
			name:       "default movie filter",
			expression: `Type == "movie"`,
		},
		{
			name:        "empty expression",
			expression:  "   ",
			wantErr:     true,
			errContains: "filter expression is empty",
		},
		{
			name:       "invalid syntax",
			expression: `containsFold(Title, "unclosed`,
			wantErr:    true,
		},
		{
			name:       "unknown name",
			expression: `Director == "Bong"`,
			wantErr:    true,
		},
		{
			name:       "non boolean result",
			expression: `Year + 1`,
			wantErr:    true,
		},
		{
			name:       "complex expression",
			expression: `IsMovie and Year >= 2015 and Rating > 7.0 and Minutes < 150`,
		},
		{
			name:       "case insensitive helpers",
			expression: `containsFold(Title, "ok") or hasPrefixFold(Title, "da") or hasSuffixFold(Title, "ja")`,
		},
		{
			name:       "infix string operators",
			expression: `Title contains "kj" and Title startsWith "O" and Title endsWith "a"`,
		},
		{
			name:       "date helper",
			expression: `daysUntil(Expiring) <= 7`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := newTestCompiler().Compile(tt.expression)

			if tt.wantErr {
				require.Error(t, err)
				var compErr *CompilationError
				assert.ErrorAs(t, err, &compErr)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expression, f.Expression())
		})
	}
}

func TestEvaluate(t *testing.T) {
	okja := catalog.Title{
		ID:       "80192098",
		Title:    "Okja",
		Type:     "movie",
		Rating:   7.3,
		Year:     2017,
		Released: "2017",
		Runtime:  "2h0m",
		Expiring: "2026-10-21",
	}
	dark := catalog.Title{ID: "80100172", Title: "Dark", Type: "series", Year: 2017}

	tests := []struct {
		name       string
		expression string
		title      catalog.Title
		want       bool
	}{
		{"movie matches type", `Type == "movie"`, okja, true},
		{"series does not match type", `Type == "movie"`, dark, false},
		{"is movie", `IsMovie`, okja, true},
		{"rating threshold", `Rating >= 7`, okja, true},
		{"year range", `Year > 2017`, okja, false},
		{"minutes parsed from runtime", `Minutes == 120`, okja, true},
		{"case insensitive contains", `containsFold(Title, "OK")`, okja, true},
		{"case insensitive prefix", `hasPrefixFold(Title, "da")`, dark, true},
		{"case insensitive suffix", `hasSuffixFold(Title, "JA")`, okja, true},
		{"infix contains is case sensitive", `Title contains "OK"`, okja, false},
		{"infix contains", `Title contains "kj"`, okja, true},
		{"infix starts with", `Title startsWith "Da"`, dark, true},
		{"infix ends with", `lower(Title) endsWith "ja"`, okja, true},
		{"lower", `lower(Title) == "okja"`, okja, true},
		{"expiring within a week", `daysUntil(Expiring) <= 7`, okja, true},
		{"unknown expiry", `daysUntil(Expiring) >= 0`, dark, false},
		{"days since", `daysSince(parseDate("2026-10-08")) == 10`, okja, true},
		{"combined", `IsMovie and (Rating > 8 or Year == 2017)`, okja, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := newTestCompiler().Compile(tt.expression)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Evaluate(tt.title))
		})
	}
}

func TestMatch_EvaluationError(t *testing.T) {
	f, err := newTestCompiler().Compile(`Year % (Year - 2017) == 0`)
	require.NoError(t, err)

	// Integer modulo by zero fails at run time
	_, err = f.Match(catalog.Title{Title: "Okja", Year: 2017})
	var evalErr *EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "Okja", evalErr.Title)
	assert.Contains(t, err.Error(), `failed on "Okja"`)

	assert.False(t, f.Evaluate(catalog.Title{Title: "Okja", Year: 2017}))
}

func TestCompilerCache(t *testing.T) {
	c := newTestCompiler(WithCache(2))

	first, err := c.Compile(`Year > 2000`)
	require.NoError(t, err)
	again, err := c.Compile(`  Year > 2000 `)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, 1, c.Size())

	for i := 0; i < 3; i++ {
		_, err := c.Compile(fmt.Sprintf("Year > %d", i))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Size())

	c.Clear()
	assert.Zero(t, c.Size())

	assert.Zero(t, newTestCompiler().Size(), "caching is off by default")
}

func TestLRUCacheEviction(t *testing.T) {
	cache := newLRUCache[int](2)
	cache.Put("a", 1)
	cache.Put("b", 2)

	// Touch a so that b is the oldest
	v, ok := cache.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	cache.Put("c", 3)
	_, ok = cache.Get("b")
	assert.False(t, ok)
	_, ok = cache.Get("a")
	assert.True(t, ok)

	cache.Put("a", 10)
	v, _ = cache.Get("a")
	assert.Equal(t, 10, v)
	assert.Equal(t, 2, cache.Size())
}

func TestParseAndCreateFilter(t *testing.T) {
	c := newTestCompiler()

	all, err := c.ParseAndCreateFilter("")
	require.NoError(t, err)
	assert.True(t, all.Evaluate(catalog.Title{Type: "series"}))

	movies, err := c.ParseAndCreateFilter(`Type == "movie"`)
	require.NoError(t, err)
	assert.False(t, movies.Evaluate(catalog.Title{Type: "series"}))

	_, err = c.ParseAndCreateFilter(`Type ==`)
	var compErr *CompilationError
	require.ErrorAs(t, err, &compErr)
	assert.Equal(t, "Type ==", compErr.Expression)
	assert.Contains(t, err.Error(), `invalid filter "Type =="`)
}

func TestCompile_EmptyExpression(t *testing.T) {
	_, err := newTestCompiler().Compile("\t")
	assert.ErrorIs(t, err, ErrEmptyExpression)
}

func TestSelect(t *testing.T) {
	assert.Equal(t, "Year > 2020", Select("Year > 2020", "Rating > 7", `Type == "movie"`))
	assert.Equal(t, "Rating > 7", Select("", "Rating > 7", `Type == "movie"`))
	assert.Equal(t, `Type == "movie"`, Select(" ", "", `Type == "movie"`))
}

func TestRuntimeMinutes(t *testing.T) {
	assert.Equal(t, 104, runtimeMinutes("1h44m"))
	assert.Equal(t, 45, runtimeMinutes("45m"))
	assert.Equal(t, 0, runtimeMinutes(""))
	assert.Equal(t, 0, runtimeMinutes("n/a"))
}
