package content

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource counts upstream calls; gate, when set, blocks fetches until closed.
type countingSource struct {
	calls    atomic.Int32
	gate     chan struct{}
	err      error
	fallback bool
}

func (s *countingSource) wait() {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
}

func (s *countingSource) FetchHome(ctx context.Context) (*HomeData, error) {
	s.wait()
	if s.err != nil {
		return nil, s.err
	}
	return &HomeData{Headline: "home"}, nil
}

func (s *countingSource) FetchCategory(ctx context.Context, id string) (*CalculatorData, error) {
	s.wait()
	if s.err != nil {
		return nil, s.err
	}
	return &CalculatorData{Title: id}, nil
}

func (s *countingSource) FetchResults(ctx context.Context) (*Results, error) {
	s.wait()
	return &Results{Headline: "results", Fallback: s.fallback}, nil
}

func (s *countingSource) FetchEmailTemplate(ctx context.Context) (*EmailTemplate, error) {
	s.wait()
	return &EmailTemplate{Subject: "email", Fallback: s.fallback}, nil
}

func TestCache_HitsWithinTTL(t *testing.T) {
	src := &countingSource{}
	c := NewCache(src, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		data, err := c.FetchCategory(ctx, "kitchens")
		require.NoError(t, err)
		assert.Equal(t, "kitchens", data.Title)
	}
	_, err := c.FetchCategory(ctx, "bathrooms")
	require.NoError(t, err)

	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	src := &countingSource{}
	c := NewCache(src, time.Minute)
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.FetchHome(context.Background())
	require.NoError(t, err)
	now = now.Add(59 * time.Second)
	_, err = c.FetchHome(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())

	now = now.Add(time.Second)
	_, err = c.FetchHome(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCache_ErrorsNotCached(t *testing.T) {
	src := &countingSource{err: &FetchError{Kind: KindNetwork, Slug: SlugHome}}
	c := NewCache(src, time.Minute)

	_, err := c.FetchHome(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
	_, err = c.FetchHome(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCache_FallbackNotCached(t *testing.T) {
	src := &countingSource{fallback: true}
	c := NewCache(src, time.Minute)

	for i := 0; i < 2; i++ {
		res, err := c.FetchResults(context.Background())
		require.NoError(t, err)
		assert.True(t, res.Fallback)
		_, err = c.FetchEmailTemplate(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(4), src.calls.Load())
}

func TestCache_DeduplicatesConcurrentMisses(t *testing.T) {
	src := &countingSource{gate: make(chan struct{})}
	c := NewCache(src, time.Minute)

	var wg sync.WaitGroup
	results := make([]*CalculatorData, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data, err := c.FetchCategory(context.Background(), "kitchens")
			assert.NoError(t, err)
			results[i] = data
		}(i)
	}

	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)
	// Give the remaining callers time to join the in-flight fetch.
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestCache_CallerCancellation(t *testing.T) {
	src := &countingSource{gate: make(chan struct{})}
	defer close(src.gate)
	c := NewCache(src, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchCategory(ctx, "kitchens")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestCache_Invalidate(t *testing.T) {
	src := &countingSource{}
	c := NewCache(src, time.Minute)

	_, _ = c.FetchHome(context.Background())
	c.Invalidate()
	_, _ = c.FetchHome(context.Background())
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCache_ZeroTTLOnlyDeduplicates(t *testing.T) {
	src := &countingSource{}
	c := NewCache(src, 0)

	_, _ = c.FetchHome(context.Background())
	_, _ = c.FetchHome(context.Background())
	assert.Equal(t, int32(2), src.calls.Load())
}
