// Package didweb implements the did:web method (spec §4.4): convert
// did:web:host[:port][:path...] to an HTTPS URL and fetch the DID
// Document it identifies.
package didweb

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jmhodges/clock"
	"github.com/miekg/dns"

	ourdid "github.com/agentrust/trustcore/did"
	trusterrors "github.com/agentrust/trustcore/errors"
)

// DefaultTimeout is the spec §4.4/§5 default resolver timeout.
const DefaultTimeout = 3 * time.Second

// Resolver implements did.Resolver for did:web.
type Resolver struct {
	HTTPClient *http.Client
	Clock      clock.Clock

	// DNSHintServer, if set, enables a `_did.<host>` TXT lookup before
	// falling back to the /.well-known/did.json path for root DIDs
	// (teacher uses the analogous miekg/dns client for CAA/DNS-01
	// lookups in va/; here it's a DID-document location hint, of the
	// form "did-uri=https://...", rather than a challenge record).
	DNSHintServer string
	dnsClient     *dns.Client
}

// New builds a did:web resolver using its own http.Client and the real
// wall clock, with redirects disabled per spec §4.4 ("follow no
// redirects cross-origin").
func New() *Resolver {
	return &Resolver{
		HTTPClient: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		Clock: clock.New(),
	}
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

// Resolve fetches and validates the DID Document for a did:web DID.
func (r *Resolver) Resolve(ctx context.Context, didURL string, options ourdid.ResolutionOptions) (ourdid.ResolutionResult, error) {
	start := r.clk().Now()

	method, msi, ok := ourdid.SplitMethodSpecificID(didURL)
	if !ok || method != "web" {
		return errResult(r.clk(), start, ourdid.ErrorInvalidDid), nil
	}

	target, err := buildURL(msi)
	if err != nil {
		return errResult(r.clk(), start, ourdid.ErrorInvalidDid), nil
	}
	if hint, ok := r.dnsHintFor(target); ok {
		target = hint
	}

	timeout := DefaultTimeout
	if options.Timeout > 0 {
		timeout = options.Timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return errResult(r.clk(), start, ourdid.ErrorInternalError), nil
	}
	req.Header.Set("Accept", "application/did+json, application/json")

	resp, err := r.httpClient().Do(req)
	if err != nil {
		return errResult(r.clk(), start, ourdid.ErrorNotFound), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errResult(r.clk(), start, ourdid.ErrorNotFound), nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errResult(r.clk(), start, ourdid.ErrorNotFound), nil
	}

	var doc ourdid.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return errResult(r.clk(), start, ourdid.ErrorRepresentationNotSupported), nil
	}
	if doc.ID != didURL {
		return errResult(r.clk(), start, ourdid.ErrorInvalidDid), nil
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/did+json"
	}

	return ourdid.ResolutionResult{
		DidDocument: &doc,
		DidResolutionMeta: ourdid.ResolutionMetadata{
			ContentType: contentType,
			Retrieved:   r.clk().Now(),
			Duration:    r.clk().Now().Sub(start),
		},
	}, nil
}

// buildURL implements the did:web-to-HTTPS URL mapping (spec §4.4):
// did:web:host[:port][:path...] -> https://host[:port]/[path/]did.json,
// with root-only DIDs using /.well-known/did.json. Port is identified
// numerically to disambiguate from path segments.
func buildURL(msi string) (string, error) {
	segments := strings.Split(msi, ":")
	if len(segments) == 0 || segments[0] == "" {
		return "", trusterrors.InvalidDidError("empty did:web method-specific-id")
	}
	host, err := url.QueryUnescape(segments[0])
	if err != nil {
		return "", trusterrors.InvalidDidError("invalid did:web host encoding: %v", err)
	}
	rest := segments[1:]

	if len(rest) > 0 {
		if port, perr := strconv.Atoi(rest[0]); perr == nil && port > 0 && port < 65536 {
			host = host + ":" + rest[0]
			rest = rest[1:]
		}
	}

	if len(rest) == 0 {
		return "https://" + host + "/.well-known/did.json", nil
	}

	pathSegments := make([]string, 0, len(rest))
	for _, seg := range rest {
		unescaped, err := url.QueryUnescape(seg)
		if err != nil {
			return "", trusterrors.InvalidDidError("invalid did:web path segment encoding: %v", err)
		}
		pathSegments = append(pathSegments, unescaped)
	}
	return "https://" + host + "/" + strings.Join(pathSegments, "/") + "/did.json", nil
}

const wellKnownSuffix = "/.well-known/did.json"

// dnsHintFor checks a `_did.<host>` TXT record for a "did-uri=..."
// location hint, only for root DIDs (those resolving to the
// /.well-known/did.json path). It never errors: a missing or malformed
// record just means no hint applies.
func (r *Resolver) dnsHintFor(target string) (string, bool) {
	if r.DNSHintServer == "" || !strings.HasSuffix(target, wellKnownSuffix) {
		return "", false
	}
	host := strings.TrimSuffix(strings.TrimPrefix(target, "https://"), wellKnownSuffix)

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn("_did."+host), dns.TypeTXT)
	client := r.dnsClient
	if client == nil {
		client = &dns.Client{Timeout: 2 * time.Second}
	}
	resp, _, err := client.Exchange(m, r.DNSHintServer)
	if err != nil || resp == nil {
		return "", false
	}
	for _, ans := range resp.Answer {
		txt, ok := ans.(*dns.TXT)
		if !ok {
			continue
		}
		for _, s := range txt.Txt {
			if strings.HasPrefix(s, "did-uri=") {
				return strings.TrimPrefix(s, "did-uri="), true
			}
		}
	}
	return "", false
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
