package statuslist

import (
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmhodges/clock"

	"github.com/agentrust/trustcore/bitstring"
	ourdid "github.com/agentrust/trustcore/did"
	trusterrors "github.com/agentrust/trustcore/errors"
	"github.com/agentrust/trustcore/retry"
	"github.com/agentrust/trustcore/vc"
)

// RemoteVerifier fetches and verifies someone else's published status
// list credential over HTTP (spec §4.7 verify_remote), caching results
// under the same TTL policy the resolver uses for DID documents.
type RemoteVerifier struct {
	httpClient *http.Client
	resolver   ourdid.Resolver
	clock      clock.Clock
	ttl        time.Duration

	// RetryPolicy governs retries of the underlying HTTP fetch on
	// NetworkError (spec §7 recoverable kinds). The zero value falls
	// back to retry.DefaultPolicy().
	RetryPolicy retry.Policy

	// seedCounter makes newRand's seed unique per call even under a
	// fake clock that doesn't advance between concurrent VerifyRemote
	// calls, so no two goroutines ever touch the same *rand.Rand.
	seedCounter int64

	mu    sync.Mutex
	cache map[string]remoteCacheEntry
}

type remoteCacheEntry struct {
	state      vc.StatusState
	insertedAt time.Time
}

// NewRemoteVerifier builds a verifier that resolves issuer DIDs through
// resolver and caches decoded statuses for ttl.
func NewRemoteVerifier(httpClient *http.Client, resolver ourdid.Resolver, clk clock.Clock, ttl time.Duration) *RemoteVerifier {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if clk == nil {
		clk = clock.New()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RemoteVerifier{
		httpClient:  httpClient,
		resolver:    resolver,
		clock:       clk,
		ttl:         ttl,
		RetryPolicy: retry.DefaultPolicy(),
		cache:       make(map[string]remoteCacheEntry),
	}
}

// newRand returns a *rand.Rand private to one VerifyRemote call, so
// concurrent lookups never share mutable rand state (math/rand.Rand is
// not safe for concurrent use).
func (r *RemoteVerifier) newRand() *rand.Rand {
	seed := r.clock.Now().UnixNano() + atomic.AddInt64(&r.seedCounter, 1)
	return rand.New(rand.NewSource(seed))
}

// Check satisfies vc.StatusChecker so a RemoteVerifier can be passed
// directly to vc.Verify as its statusChecker.
func (r *RemoteVerifier) Check(ctx context.Context, entry vc.StatusEntry) (vc.StatusState, error) {
	return r.VerifyRemote(ctx, entry)
}

// VerifyRemote fetches entry.StatusListCredential, verifies its proof
// and issuer, decodes the bitstring, and reports the bit at
// entry.StatusListIndex as an active/revoked/suspended/unknown state.
func (r *RemoteVerifier) VerifyRemote(ctx context.Context, entry vc.StatusEntry) (vc.StatusState, error) {
	cacheKey := entry.StatusListCredential + "#" + entry.StatusListIndex
	if state, ok := r.cachedState(cacheKey); ok {
		return state, nil
	}

	var cred *vc.Credential
	fetchErr := retry.Do(ctx, r.RetryPolicy, r.newRand(), func(ctx context.Context) error {
		var err error
		cred, err = r.fetch(ctx, entry.StatusListCredential)
		return err
	})
	if fetchErr != nil {
		return vc.StatusUnknown, fetchErr
	}

	result, err := vc.Verify(ctx, r.resolver, nil, r.clock, cred, true)
	if err != nil {
		return vc.StatusUnknown, err
	}
	if !result.Valid {
		return vc.StatusUnknown, trusterrors.StatusUnavailableError("status list credential %q failed verification", entry.StatusListCredential)
	}

	encodedList, _ := cred.CredentialSubject["encodedList"].(string)
	if encodedList == "" {
		return vc.StatusUnknown, trusterrors.InvalidStatusListError("status list credential %q has no encodedList", entry.StatusListCredential)
	}
	length := bitstring.DefaultLength
	if lengthField, ok := cred.CredentialSubject["length"].(float64); ok && lengthField > 0 {
		length = int(lengthField)
	}
	bs, err := bitstring.Decode(encodedList, length)
	if err != nil {
		return vc.StatusUnknown, err
	}

	idx, err := strconv.Atoi(entry.StatusListIndex)
	if err != nil {
		return vc.StatusUnknown, trusterrors.MalformedInputError("statusListIndex %q is not an integer", entry.StatusListIndex)
	}
	set, err := bs.Get(idx)
	if err != nil {
		return vc.StatusUnknown, err
	}

	state := vc.StatusActive
	if set {
		purpose, _ := cred.CredentialSubject["statusPurpose"].(string)
		if purpose == "suspension" {
			state = vc.StatusSuspended
		} else {
			state = vc.StatusRevoked
		}
	}
	r.storeState(cacheKey, state)
	return state, nil
}

func (r *RemoteVerifier) fetch(ctx context.Context, url string) (*vc.Credential, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, trusterrors.MalformedInputError("invalid status list url %q: %v", url, err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, trusterrors.Wrap(trusterrors.NetworkError, err, "fetching status list credential %q", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, trusterrors.NetworkErrorf("fetching status list credential %q: http %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, trusterrors.Wrap(trusterrors.NetworkError, err, "reading status list credential %q body", url)
	}
	var cred vc.Credential
	if err := json.Unmarshal(body, &cred); err != nil {
		return nil, trusterrors.MalformedCredentialError("status list credential %q is not valid JSON: %v", url, err)
	}
	return &cred, nil
}

func (r *RemoteVerifier) cachedState(key string) (vc.StatusState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.cache[key]
	if !ok {
		return "", false
	}
	if r.clock.Now().After(entry.insertedAt.Add(r.ttl)) {
		delete(r.cache, key)
		return "", false
	}
	return entry.state, true
}

func (r *RemoteVerifier) storeState(key string, state vc.StatusState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[key] = remoteCacheEntry{state: state, insertedAt: r.clock.Now()}
}
