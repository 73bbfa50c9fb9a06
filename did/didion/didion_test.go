package didion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	ourdid "github.com/agentrust/trustcore/did"
)

func TestResolveNoEndpointConfiguredIsInternalError(t *testing.T) {
	r := &Resolver{}
	result, err := r.Resolve(context.Background(), "did:ion:EiClkZMDxPKqC9c-umQfTkR8vvZ9JPhXAq1MAoE", ourdid.ResolutionOptions{})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.DidResolutionMeta.Error != ourdid.ErrorInternalError {
		t.Fatalf("expected internalError without configured endpoint, got %v", result.DidResolutionMeta.Error)
	}
}

func TestResolveRejectsWrongMethod(t *testing.T) {
	r := New("https://ion.example")
	result, err := r.Resolve(context.Background(), "did:web:example.com", ourdid.ResolutionOptions{})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.DidResolutionMeta.Error != ourdid.ErrorInvalidDid {
		t.Fatalf("expected invalidDid, got %v", result.DidResolutionMeta.Error)
	}
}

func TestResolveDelegatesToConfiguredEndpoint(t *testing.T) {
	didURL := "did:ion:EiClkZMDxPKqC9c-umQfTkR8vvZ9JPhXAq1MAoE"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		expected := "/identifiers/" + didURL
		if req.URL.Path != expected {
			t.Errorf("unexpected path: %s", req.URL.Path)
		}
		w.Write([]byte(`{"id":"` + didURL + `","verificationMethod":[]}`))
	}))
	defer ts.Close()

	r := New(ts.URL)
	result, err := r.Resolve(context.Background(), didURL, ourdid.ResolutionOptions{})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.DidResolutionMeta.Error != "" {
		t.Fatalf("expected no error, got %v", result.DidResolutionMeta.Error)
	}
	if result.DidDocument == nil || result.DidDocument.ID != didURL {
		t.Fatalf("unexpected document: %+v", result.DidDocument)
	}
}

func TestResolveMapsNon200ToNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	r := New(ts.URL)
	result, err := r.Resolve(context.Background(), "did:ion:EiClkZMDxPKqC9c-umQfTkR8vvZ9JPhXAq1MAoE", ourdid.ResolutionOptions{})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.DidResolutionMeta.Error != ourdid.ErrorNotFound {
		t.Fatalf("expected notFound, got %v", result.DidResolutionMeta.Error)
	}
}
