// Package didion implements the did:ion method (spec §4.4, reduced per
// the Open Question in spec §9): delegate resolution entirely to a
// configured ION resolver endpoint. No Sidetree protocol logic is
// implemented here.
package didion

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jmhodges/clock"

	ourdid "github.com/agentrust/trustcore/did"
)

// DefaultTimeout is the spec §4.4/§5 default resolver timeout.
const DefaultTimeout = 3 * time.Second

// Resolver implements did.Resolver for did:ion by delegating to a
// configured HTTP resolver endpoint (e.g. https://ion.tbddev.org/).
type Resolver struct {
	Endpoint   string // base URL; requests go to <Endpoint>/identifiers/<did>
	HTTPClient *http.Client
	Clock      clock.Clock
}

// New builds a did:ion resolver pointed at the given endpoint.
func New(endpoint string) *Resolver {
	return &Resolver{Endpoint: strings.TrimRight(endpoint, "/"), HTTPClient: http.DefaultClient, Clock: clock.New()}
}

func (r *Resolver) clk() clock.Clock {
	if r.Clock != nil {
		return r.Clock
	}
	return clock.New()
}

func (r *Resolver) httpClient() *http.Client {
	if r.HTTPClient != nil {
		return r.HTTPClient
	}
	return http.DefaultClient
}

func (r *Resolver) Resolve(ctx context.Context, didURL string, options ourdid.ResolutionOptions) (ourdid.ResolutionResult, error) {
	start := r.clk().Now()

	method, _, ok := ourdid.SplitMethodSpecificID(didURL)
	if !ok || method != "ion" {
		return errResult(r.clk(), start, ourdid.ErrorInvalidDid), nil
	}
	if r.Endpoint == "" {
		// No resolver configured: fail internalError per spec §4.4.
		return errResult(r.clk(), start, ourdid.ErrorInternalError), nil
	}

	timeout := DefaultTimeout
	if options.Timeout > 0 {
		timeout = options.Timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := r.Endpoint + "/identifiers/" + didURL
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return errResult(r.clk(), start, ourdid.ErrorInternalError), nil
	}
	req.Header.Set("Accept", "application/did+json, application/json")

	resp, err := r.httpClient().Do(req)
	if err != nil {
		// The resolver endpoint is unreachable: spec §4.4 calls this
		// internalError, distinct from did:web's notFound, because an
		// unresolvable ION node is an infrastructure failure, not
		// evidence the DID itself doesn't exist.
		return errResult(r.clk(), start, ourdid.ErrorInternalError), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errResult(r.clk(), start, ourdid.ErrorNotFound), nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errResult(r.clk(), start, ourdid.ErrorInternalError), nil
	}

	var doc ourdid.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return errResult(r.clk(), start, ourdid.ErrorRepresentationNotSupported), nil
	}
	if doc.ID != didURL {
		return errResult(r.clk(), start, ourdid.ErrorInvalidDid), nil
	}

	return ourdid.ResolutionResult{
		DidDocument: &doc,
		DidResolutionMeta: ourdid.ResolutionMetadata{
			ContentType: "application/did+json",
			Retrieved:   r.clk().Now(),
			Duration:    r.clk().Now().Sub(start),
		},
	}, nil
}

func errResult(clk clock.Clock, start time.Time, kind ourdid.ErrorKind) ourdid.ResolutionResult {
	return ourdid.ResolutionResult{
		DidResolutionMeta: ourdid.ResolutionMetadata{
			Retrieved: clk.Now(),
			Duration:  clk.Now().Sub(start),
			Error:     kind,
		},
	}
}
