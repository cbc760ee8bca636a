package unogs

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func newTestCache(t *testing.T) (*Cache, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return NewCache("/data", zerolog.Nop(), WithCacheFs(fs), WithCacheClock(fixedClock(testNow))), fs
}

func TestCache_WriteThenRead(t *testing.T) {
	cache, _ := newTestCache(t)
	body := []byte(`{"COUNT":"2","ITEMS":[{"title":"Okja"}]}`)

	require.NoError(t, cache.Write("new/1", body))

	assert.True(t, cache.IsFresh("new/1"))

	doc, err := cache.Read("new/1")
	require.NoError(t, err)
	assert.JSONEq(t, string(body), string(doc))
}

func TestCache_Path(t *testing.T) {
	cache, fs := newTestCache(t)
	require.NoError(t, cache.Write("search/sin_city", []byte(`{}`)))

	assert.Equal(t, "/data/search/sin_city.json", cache.Path("search/sin_city"))
	exists, err := afero.Exists(fs, "/data/search/sin_city.json")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCache_WriteUsesClock(t *testing.T) {
	fs := afero.NewMemMapFs()
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewCache("/data", zerolog.Nop(), WithCacheFs(fs), WithCacheClock(fixedClock(past)))

	require.NoError(t, cache.Write("new/1", []byte(`{}`)))
	assert.True(t, cache.IsFresh("new/1"))

	info, err := fs.Stat("/data/new/1.json")
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(past))
}

func TestCache_IsFresh(t *testing.T) {
	tests := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"just written", 0, true},
		{"one hour old", time.Hour, true},
		{"one second short of a day", 24*time.Hour - time.Second, true},
		{"exactly one day", 24 * time.Hour, false},
		{"twenty five hours", 25 * time.Hour, false},
		{"one week", 7 * 24 * time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache, fs := newTestCache(t)
			require.NoError(t, cache.Write("new/1", []byte(`{}`)))

			mtime := testNow.Add(-tt.age)
			require.NoError(t, fs.Chtimes(cache.Path("new/1"), mtime, mtime))

			assert.Equal(t, tt.want, cache.IsFresh("new/1"))
		})
	}
}

func TestCache_Missing(t *testing.T) {
	cache, _ := newTestCache(t)

	assert.False(t, cache.IsFresh("new/1"))

	_, err := cache.Read("new/1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCache_ReadMalformed(t *testing.T) {
	cache, fs := newTestCache(t)
	require.NoError(t, fs.MkdirAll("/data/new", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/data/new/1.json", []byte(`{"COUNT":`), 0o644))

	_, err := cache.Read("new/1")

	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "new/1", malformed.Key)
}

func TestCache_Purge(t *testing.T) {
	cache, fs := newTestCache(t)

	for _, key := range []string{"new/1", "new/2", "new/3", "expiring/1"} {
		require.NoError(t, cache.Write(key, []byte(`{}`)))
	}

	stale := testNow.Add(-25 * time.Hour)
	require.NoError(t, fs.Chtimes(cache.Path("new/1"), stale, stale))
	require.NoError(t, fs.Chtimes(cache.Path("new/3"), stale, stale))
	require.NoError(t, fs.Chtimes(cache.Path("expiring/1"), stale, stale))

	removed, err := cache.Purge("new")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	assert.False(t, cache.IsFresh("new/1"))
	assert.True(t, cache.IsFresh("new/2"))

	_, err = cache.Read("new/1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Other kinds are left alone
	exists, err := afero.Exists(fs, cache.Path("expiring/1"))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCache_PurgeMissingDir(t *testing.T) {
	cache, _ := newTestCache(t)

	removed, err := cache.Purge("search")
	require.NoError(t, err)
	assert.Zero(t, removed)
}
