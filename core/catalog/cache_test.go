package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent-cost/internal/errors"
)

// scriptedSource returns catalogs or errors in order, repeating the last
type scriptedSource struct {
	mu    sync.Mutex
	steps []func() (*Catalog, error)
	loads int
}

func (s *scriptedSource) Name() string { return "scripted" }

func (s *scriptedSource) Load(ctx context.Context) (*Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.loads
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	s.loads++
	return s.steps[i]()
}

func (s *scriptedSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func okDefault() (*Catalog, error) { return Default() }

func failing() (*Catalog, error) {
	return nil, errors.Config("catalog endpoint unavailable")
}

func TestCacheServesWithinTTL(t *testing.T) {
	src := &scriptedSource{steps: []func() (*Catalog, error){okDefault}}
	clock := &fakeClock{now: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewCache(src, time.Minute, WithClock(clock.Now))

	first, err := cache.Catalog(context.Background())
	require.NoError(t, err)
	clock.Advance(30 * time.Second)
	second, err := cache.Catalog(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, src.count())
	assert.Equal(t, 1, cache.Stats().Hits)
}

func TestCacheReloadsAfterTTL(t *testing.T) {
	src := &scriptedSource{steps: []func() (*Catalog, error){okDefault}}
	clock := &fakeClock{now: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewCache(src, time.Minute, WithClock(clock.Now))

	_, err := cache.Catalog(context.Background())
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = cache.Catalog(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, src.count())
	assert.Equal(t, 2, cache.Stats().Reloads)
}

func TestCacheServesStaleCatalogWhenReloadFails(t *testing.T) {
	src := &scriptedSource{steps: []func() (*Catalog, error){okDefault, failing}}
	clock := &fakeClock{now: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)}

	var hookErrs []error
	cache := NewCache(src, time.Minute, WithClock(clock.Now),
		WithReloadHook(func(cat *Catalog, changed bool, err error) {
			hookErrs = append(hookErrs, err)
		}))

	first, err := cache.Catalog(context.Background())
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)

	stale, err := cache.Catalog(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, stale)

	stats := cache.Stats()
	assert.Equal(t, 1, stats.FailedReloads)
	assert.True(t, stats.Loaded)
	require.Len(t, hookErrs, 2)
	assert.NoError(t, hookErrs[0])
	assert.Error(t, hookErrs[1])

	// the stale entry was extended for another window
	_, err = cache.Catalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.count())
}

func TestCacheFailsWithoutPreviousCatalog(t *testing.T) {
	src := &scriptedSource{steps: []func() (*Catalog, error){failing}}
	cache := NewCache(src, time.Minute)

	_, err := cache.Catalog(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeConfig))
	assert.False(t, cache.Stats().Loaded)
}

func TestCacheInvalidate(t *testing.T) {
	src := &scriptedSource{steps: []func() (*Catalog, error){okDefault}}
	cache := NewCache(src, time.Hour)

	_, err := cache.Catalog(context.Background())
	require.NoError(t, err)
	cache.Invalidate()
	_, err = cache.Catalog(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, src.count())
	assert.Equal(t, 1, cache.Stats().Invalidations)
}

func TestCacheReportsUnchangedReload(t *testing.T) {
	src := &scriptedSource{steps: []func() (*Catalog, error){okDefault}}
	var changes []bool
	cache := NewCache(src, time.Hour, WithReloadHook(func(cat *Catalog, changed bool, err error) {
		changes = append(changes, changed)
	}))

	_, err := cache.Refresh(context.Background())
	require.NoError(t, err)
	_, err = cache.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []bool{true, false}, changes)
}

func TestCacheDefaultTTL(t *testing.T) {
	cache := NewCache(EmbeddedSource{}, 0)
	assert.Equal(t, DefaultTTL, cache.TTL())
}

func TestCacheConcurrentLoadsOnce(t *testing.T) {
	src := &scriptedSource{steps: []func() (*Catalog, error){okDefault}}
	cache := NewCache(src, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Catalog(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, src.count())
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, DefaultDocument(), 0o644))

	cat, err := NewFileSource(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025.10", cat.Version)

	_, err = NewFileSource(filepath.Join(dir, "missing.json")).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeNotFound))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = NewFileSource(bad).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeConfig))
}

func TestSourceFor(t *testing.T) {
	assert.Equal(t, "embedded", SourceFor("").Name())
	assert.Equal(t, "file:rates.yaml", SourceFor("rates.yaml").Name())
}

func TestStaticProvider(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	got, err := NewStatic(cat).Catalog(context.Background())
	require.NoError(t, err)
	assert.Same(t, cat, got)

	_, err = NewStatic(nil).Catalog(context.Background())
	assert.True(t, errors.IsType(err, errors.TypeConfig))
}

func TestWatcherRefreshesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, DefaultDocument(), 0o644))

	cache := NewCache(NewFileSource(path), time.Hour)
	_, err := cache.Catalog(context.Background())
	require.NoError(t, err)

	w, err := NewWatcher(path, cache, 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	updated := mutateDefault(t, func(doc map[string]interface{}) {
		doc["version"] = "2025.11"
	})

	// the directory watch is registered asynchronously; keep writing until
	// the refresh lands
	require.Eventually(t, func() bool {
		if err := os.WriteFile(path, updated, 0o644); err != nil {
			return false
		}
		return cache.Stats().Version == "2025.11"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
