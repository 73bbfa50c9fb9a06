package resolver

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmhodges/clock"

	ourdid "github.com/agentrust/trustcore/did"
)

// countingResolver records how many times Resolve was actually invoked,
// to verify caching and single-flight coalescing.
type countingResolver struct {
	calls int32
	delay time.Duration
	doc   *ourdid.Document
}

func (c *countingResolver) Resolve(ctx context.Context, didURL string, options ourdid.ResolutionOptions) (ourdid.ResolutionResult, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return ourdid.ResolutionResult{
		DidDocument: c.doc,
		DidResolutionMeta: ourdid.ResolutionMetadata{
			Retrieved: time.Now(),
		},
	}, nil
}

func TestResolveCachesSuccessfulResult(t *testing.T) {
	fake := &countingResolver{doc: &ourdid.Document{ID: "did:key:abc"}}
	clk := clock.NewFake()
	cache := NewMemoryCache(clk, 0)
	u := New(cache, Config{}, nil, nil)
	u.Register("key", fake)

	ctx := context.Background()
	r1, err := u.Resolve(ctx, "did:key:abc", ourdid.ResolutionOptions{})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if r1.DidResolutionMeta.Cached {
		t.Fatalf("expected first resolution to be uncached")
	}

	r2, err := u.Resolve(ctx, "did:key:abc", ourdid.ResolutionOptions{})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !r2.DidResolutionMeta.Cached {
		t.Fatalf("expected second resolution to be served from cache")
	}
	if atomic.LoadInt32(&fake.calls) != 1 {
		t.Fatalf("expected exactly one underlying resolution, got %d", fake.calls)
	}
}

func TestResolveCoalescesConcurrentLookups(t *testing.T) {
	fake := &countingResolver{doc: &ourdid.Document{ID: "did:key:abc"}, delay: 50 * time.Millisecond}
	u := New(nil, Config{}, nil, nil)
	u.Register("key", fake)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := u.Resolve(context.Background(), "did:key:abc", ourdid.ResolutionOptions{})
			if err != nil {
				t.Errorf("Resolve returned error: %v", err)
			}
		}()
	}
	wg.Wait()

	if atomic.LoadInt32(&fake.calls) != 1 {
		t.Fatalf("expected single-flight to coalesce to one call, got %d", fake.calls)
	}
}

func TestResolveUnsupportedMethod(t *testing.T) {
	u := New(nil, Config{}, nil, nil)
	result, err := u.Resolve(context.Background(), "did:nope:abc", ourdid.ResolutionOptions{})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.DidResolutionMeta.Error != ourdid.ErrorMethodNotSupported {
		t.Fatalf("expected methodNotSupported, got %v", result.DidResolutionMeta.Error)
	}
}

func TestResolveDoesNotCacheErrorsByDefault(t *testing.T) {
	notFound := &staticResolver{result: ourdid.ResolutionResult{
		DidResolutionMeta: ourdid.ResolutionMetadata{Error: ourdid.ErrorNotFound},
	}}
	cache := NewMemoryCache(clock.NewFake(), 0)
	u := New(cache, Config{}, nil, nil)
	u.Register("web", notFound)

	_, _ = u.Resolve(context.Background(), "did:web:missing.example", ourdid.ResolutionOptions{})
	if _, ok := cache.Get("did:web:missing.example"); ok {
		t.Fatalf("expected notFound result not to be cached without a configured NegativeTTL")
	}
}

func TestResolveCachesNotFoundWithNegativeTTL(t *testing.T) {
	notFound := &staticResolver{result: ourdid.ResolutionResult{
		DidResolutionMeta: ourdid.ResolutionMetadata{Error: ourdid.ErrorNotFound},
	}}
	clk := clock.NewFake()
	cache := NewMemoryCache(clk, 0)
	u := New(cache, Config{NegativeTTL: time.Minute}, nil, nil)
	u.Register("web", notFound)

	_, _ = u.Resolve(context.Background(), "did:web:missing.example", ourdid.ResolutionOptions{})
	if _, ok := cache.Get("did:web:missing.example"); !ok {
		t.Fatalf("expected notFound result to be cached with a configured NegativeTTL")
	}
}

type staticResolver struct {
	result ourdid.ResolutionResult
}

func (s *staticResolver) Resolve(ctx context.Context, didURL string, options ourdid.ResolutionOptions) (ourdid.ResolutionResult, error) {
	return s.result, nil
}

func TestMemoryCacheExpiresEntries(t *testing.T) {
	clk := clock.NewFake()
	cache := NewMemoryCache(clk, 0)
	cache.Set("did:key:abc", Entry{InsertedAt: clk.Now(), TTL: time.Minute})

	if _, ok := cache.Get("did:key:abc"); !ok {
		t.Fatalf("expected entry to be present before expiry")
	}

	clk.Add(2 * time.Minute)
	if _, ok := cache.Get("did:key:abc"); ok {
		t.Fatalf("expected entry to be expired")
	}
}

func TestMemoryCacheSweepEvictsExpired(t *testing.T) {
	clk := clock.NewFake()
	cache := NewMemoryCache(clk, 0)
	cache.Set("a", Entry{InsertedAt: clk.Now(), TTL: time.Minute})
	cache.Set("b", Entry{InsertedAt: clk.Now(), TTL: time.Hour})

	clk.Add(2 * time.Minute)
	evicted := cache.Sweep()
	if evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}
	if _, ok := cache.Get("b"); !ok {
		t.Fatalf("expected unexpired entry to survive sweep")
	}
}
