package resolver

import (
	"context"
	"time"

	"github.com/jmhodges/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	ourdid "github.com/agentrust/trustcore/did"
	trusterrors "github.com/agentrust/trustcore/errors"
	"github.com/agentrust/trustcore/log"
)

// DefaultTTL is the cache lifetime for a successful resolution (spec §4.5).
const DefaultTTL = 5 * time.Minute

// Config controls cache TTLs for the universal resolver.
type Config struct {
	// DefaultTTL applies to any resolution without a resolution error.
	DefaultTTL time.Duration
	// NegativeTTL applies only to notFound results (spec §4.5: "configurable
	// negative TTL for notFound only"). Zero disables negative caching.
	NegativeTTL time.Duration
}

// UniversalResolver dispatches by DID method to a registered method
// resolver, consulting a TTL Cache first and coalescing concurrent
// lookups for the same DID via single-flight (spec §4.5).
type UniversalResolver struct {
	resolvers map[string]ourdid.Resolver
	cache     Cache
	config    Config
	clock     clock.Clock
	group     singleflight.Group
	logger    log.Logger
	metrics   *Metrics
}

// New builds a universal resolver with the given cache. If cfg's TTLs are
// zero, DefaultTTL is used and negative caching is disabled.
func New(cache Cache, cfg Config, logger log.Logger, metrics *Metrics) *UniversalResolver {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if logger == nil {
		logger = log.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &UniversalResolver{
		resolvers: make(map[string]ourdid.Resolver),
		cache:     cache,
		config:    cfg,
		clock:     clock.New(),
		logger:    logger,
		metrics:   metrics,
	}
}

// Register associates a DID method name (e.g. "web", "key") with the
// resolver instance that handles it. Not safe to call concurrently with
// Resolve.
func (u *UniversalResolver) Register(method string, r ourdid.Resolver) {
	u.resolvers[method] = r
}

// Resolve satisfies ourdid.Resolver: look up a cached result, otherwise
// dispatch (with single-flight coalescing) to the registered method
// resolver and cache the outcome per Config.
func (u *UniversalResolver) Resolve(ctx context.Context, didURL string, options ourdid.ResolutionOptions) (ourdid.ResolutionResult, error) {
	if u.cache != nil {
		if entry, ok := u.cache.Get(didURL); ok {
			u.metrics.cacheHit()
			result := entry.Result
			result.DidResolutionMeta.Cached = true
			return result, nil
		}
	}
	u.metrics.cacheMiss()

	v, err, _ := u.group.Do(didURL, func() (interface{}, error) {
		return u.resolveUncached(ctx, didURL, options)
	})
	if err != nil {
		return ourdid.ResolutionResult{}, err
	}
	return v.(ourdid.ResolutionResult), nil
}

func (u *UniversalResolver) resolveUncached(ctx context.Context, didURL string, options ourdid.ResolutionOptions) (ourdid.ResolutionResult, error) {
	method, _, ok := ourdid.SplitMethodSpecificID(didURL)
	if !ok {
		return ourdid.ResolutionResult{
			DidResolutionMeta: ourdid.ResolutionMetadata{
				Retrieved: u.clock.Now(),
				Error:     ourdid.ErrorInvalidDid,
			},
		}, nil
	}

	r, ok := u.resolvers[method]
	if !ok {
		return ourdid.ResolutionResult{
			DidResolutionMeta: ourdid.ResolutionMetadata{
				Retrieved: u.clock.Now(),
				Error:     ourdid.ErrorMethodNotSupported,
			},
		}, nil
	}

	result, err := r.Resolve(ctx, didURL, options)
	if err != nil {
		u.logger.Warning("did resolution failed", zap.String("did", didURL), zap.Error(err))
		return result, trusterrors.Wrap(trusterrors.NetworkError, err, "resolving %s", didURL)
	}

	u.cacheResult(didURL, result)
	return result, nil
}

func (u *UniversalResolver) cacheResult(didURL string, result ourdid.ResolutionResult) {
	if u.cache == nil {
		return
	}
	if result.DidResolutionMeta.Error == "" {
		u.cache.Set(didURL, Entry{Result: result, InsertedAt: u.clock.Now(), TTL: u.config.DefaultTTL})
		return
	}
	if result.DidResolutionMeta.Error == ourdid.ErrorNotFound && u.config.NegativeTTL > 0 {
		u.cache.Set(didURL, Entry{Result: result, InsertedAt: u.clock.Now(), TTL: u.config.NegativeTTL})
	}
}
