package did

import "strings"

// SplitMethodSpecificID splits a DID of the form did:<method>:<msi> into
// its method and method-specific-id parts. ok is false if didURL is not
// well-formed as a DID.
func SplitMethodSpecificID(didURL string) (method, msi string, ok bool) {
	const prefix = "did:"
	if !strings.HasPrefix(didURL, prefix) {
		return "", "", false
	}
	rest := didURL[len(prefix):]
	idx := strings.Index(rest, ":")
	if idx <= 0 {
		return "", "", false
	}
	return rest[:idx], rest[idx+1:], true
}

// SplitVerificationMethodID splits an absolute verification method id
// ("<did>#<fragment>") into its DID and fragment, per spec §4.6 step 3.
func SplitVerificationMethodID(vmID string) (did, fragment string, ok bool) {
	idx := strings.Index(vmID, "#")
	if idx < 0 {
		return "", "", false
	}
	return vmID[:idx], vmID[idx+1:], true
}
