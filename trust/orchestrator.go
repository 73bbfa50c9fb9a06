package trust

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/jmhodges/clock"
	"go.uber.org/zap"

	"github.com/agentrust/trustcore/audit"
	ourdid "github.com/agentrust/trustcore/did"
	trusterrors "github.com/agentrust/trustcore/errors"
	"github.com/agentrust/trustcore/kms"
	"github.com/agentrust/trustcore/log"
	"github.com/agentrust/trustcore/statuslist"
	"github.com/agentrust/trustcore/vc"
)

// Orchestrator is a thin facade composing DID resolution, credential
// issuance/verification, status-list revocation, trust scoring, and
// the audit log into the end-to-end flows spec §4.10 names. It holds
// no state of its own beyond wiring: every method delegates to one of
// the narrower components it was built from.
type Orchestrator struct {
	Resolver   ourdid.Resolver
	KMS        kms.Provider
	StatusList *statuslist.Manager

	// StatusChecker is how VerifyAndScore checks a credential's
	// revocation state. When nil and StatusList is set, it defaults to
	// a statuslist.LocalChecker over StatusList -- the orchestrator
	// checks the list it owns directly rather than round-tripping
	// through RemoteVerifier's HTTP fetch of its own just-published
	// credential (spec §4.10 revoke -> verify_and_score).
	StatusChecker vc.StatusChecker
	AuditLog      *audit.Log
	Clock         clock.Clock
	Logger        log.Logger

	// IssuerDID and IssuerKeyRef name the identity every orchestrator
	// operation issues credentials and signs audit entries under.
	IssuerDID                  string
	IssuerKeyRef               kms.KeyRef
	VerificationMethodFragment string

	// StatusListID, when non-empty, is the status list new trust
	// declarations are allocated a revocation entry on (spec §4.10
	// revoke). An orchestrator issuing declarations without revocation
	// support leaves this empty.
	StatusListID string

	// FailClosed mirrors vc.Verify's failClosed parameter (spec §4.6
	// step 6, §7: StatusUnavailable is fail-closed by default).
	FailClosed bool

	// ScoringProfile is the weighting VerifyAndScore applies; the zero
	// value is replaced with DefaultProfile().
	ScoringProfile ScoringProfile
}

func (o *Orchestrator) clock() clock.Clock {
	if o.Clock == nil {
		return clock.New()
	}
	return o.Clock
}

func (o *Orchestrator) logger() log.Logger {
	if o.Logger == nil {
		return log.NewNop()
	}
	return o.Logger
}

func (o *Orchestrator) profile() ScoringProfile {
	if o.ScoringProfile == (ScoringProfile{}) {
		return DefaultProfile()
	}
	return o.ScoringProfile
}

func (o *Orchestrator) statusChecker() vc.StatusChecker {
	if o.StatusChecker != nil {
		return o.StatusChecker
	}
	if o.StatusList != nil {
		return statuslist.NewLocalChecker(o.StatusList)
	}
	return nil
}

// auditAppend appends an audit entry and never lets an audit failure
// mask the caller's real error; if the append itself fails it is
// logged and swallowed, matching spec §7's guidance that audit
// failures are surfaced separately from the operation they describe.
func (o *Orchestrator) auditAppend(ctx context.Context, actor string, action audit.Action, subject string, payload interface{}) {
	if o.AuditLog == nil {
		return
	}
	if _, err := o.AuditLog.Append(ctx, actor, action, subject, payload); err != nil {
		o.logger().Err("audit append failed", zap.String("action", string(action)), zap.String("subject", subject), zap.Error(err))
	}
}

// auditFailure records an operation_failed entry per spec §7: "No
// error path is permitted to mutate audit state without appending a
// corresponding operation_failed audit entry."
func (o *Orchestrator) auditFailure(ctx context.Context, actor, subject string, cause error) {
	o.auditAppend(ctx, actor, audit.ActionOperationFailed, subject, map[string]interface{}{
		"error": cause.Error(),
	})
}

// IssueTrustDeclaration builds a Verifiable Credential attesting a
// Declaration and, if StatusListID is set, allocates it a revocation
// entry on that list before issuing (spec §4.10
// issue_trust_declaration).
func (o *Orchestrator) IssueTrustDeclaration(ctx context.Context, decl Declaration) (*vc.Credential, error) {
	if decl.effectiveSchemaVersion() != currentSchemaVersion {
		err := trusterrors.MalformedInputError(
			"trust declaration schema version %d is not supported (only version %d)",
			decl.effectiveSchemaVersion(), currentSchemaVersion)
		o.auditFailure(ctx, decl.AgentID, decl.AgentID, err)
		return nil, err
	}

	var statusEntry *vc.StatusEntry
	if o.StatusListID != "" && o.StatusList != nil {
		entry, err := o.StatusList.AllocateIndex(ctx, o.StatusListID)
		if err != nil {
			o.auditFailure(ctx, decl.AgentID, decl.AgentID, err)
			return nil, err
		}
		statusEntry = &entry
		o.auditAppend(ctx, decl.AgentID, audit.ActionStatusAllocate, entry.ID, entry)
	}

	subject := map[string]interface{}{
		"id":         decl.AgentID,
		"agent_name": decl.AgentName,
		"articles":   decl.Articles,
	}

	cred, err := vc.Issue(ctx, o.KMS, o.clock(), vc.IssueParams{
		IssuerDID:                  o.IssuerDID,
		SubjectClaims:              subject,
		Types:                      []string{"TrustDeclarationCredential"},
		StatusEntry:                statusEntry,
		KeyRef:                     o.IssuerKeyRef,
		VerificationMethodFragment: o.VerificationMethodFragment,
	})
	if err != nil {
		o.auditFailure(ctx, decl.AgentID, decl.AgentID, err)
		return nil, err
	}

	o.auditAppend(ctx, decl.AgentID, audit.ActionVCIssue, decl.AgentID, cred)
	return cred, nil
}

// VerifyAndScoreResult is the output of VerifyAndScore (spec §4.10
// verify_and_score).
type VerifyAndScoreResult struct {
	Verification vc.Result
	Score        Score
}

// VerifyAndScore verifies cred (resolving the issuer, checking the
// proof and status) and, if the credential's subject carries trust
// articles, computes the declaration's trust score (spec §4.10).
func (o *Orchestrator) VerifyAndScore(ctx context.Context, cred *vc.Credential) (VerifyAndScoreResult, error) {
	result, err := vc.Verify(ctx, o.Resolver, o.statusChecker(), o.clock(), cred, o.FailClosed)
	if err != nil {
		o.auditFailure(ctx, "orchestrator", credentialSubjectID(cred), err)
		return VerifyAndScoreResult{}, err
	}
	o.auditAppend(ctx, "orchestrator", audit.ActionVCVerify, credentialSubjectID(cred), result)

	decl, ok := declarationFromSubject(cred.CredentialSubject)
	if !ok {
		return VerifyAndScoreResult{Verification: result}, nil
	}
	score, err := ScoreDeclaration(o.clock(), decl, o.profile(), nil)
	if err != nil {
		o.auditFailure(ctx, "orchestrator", decl.AgentID, err)
		return VerifyAndScoreResult{Verification: result}, err
	}
	o.auditAppend(ctx, "orchestrator", audit.ActionTrustScore, decl.AgentID, score)
	return VerifyAndScoreResult{Verification: result, Score: score}, nil
}

// BatchResult is one credential's outcome within a VerifyBatch call.
type BatchResult struct {
	CredentialID string
	Result       VerifyAndScoreResult
	Err          error
}

// BatchSummary aggregates BatchResult counts for dashboard-style
// reporting (SPEC_FULL.md §6 item 4); the dashboard itself is out of
// scope, but this count is cheap to expose to one.
type BatchSummary struct {
	Total   int
	Valid   int
	Invalid int
	Errored int
}

// VerifyBatch runs VerifyAndScore over creds independently — one
// credential's verification error never aborts the others — and
// returns every per-credential outcome alongside an aggregate summary
// (SPEC_FULL.md §6 item 4).
func (o *Orchestrator) VerifyBatch(ctx context.Context, creds []*vc.Credential) ([]BatchResult, BatchSummary) {
	results := make([]BatchResult, 0, len(creds))
	summary := BatchSummary{Total: len(creds)}

	for _, cred := range creds {
		result, err := o.VerifyAndScore(ctx, cred)
		br := BatchResult{CredentialID: credentialID(cred), Result: result, Err: err}
		results = append(results, br)

		switch {
		case err != nil:
			summary.Errored++
		case result.Verification.Valid:
			summary.Valid++
		default:
			summary.Invalid++
		}
	}
	return results, summary
}

func credentialID(cred *vc.Credential) string {
	if cred == nil {
		return ""
	}
	if cred.ID != "" {
		return cred.ID
	}
	return credentialSubjectID(cred)
}

// Revoke flips the bit backing cred's credentialStatus entry and
// re-publishes the owning status list (spec §4.10 revoke). cred must
// carry a credentialStatus allocated from a list this orchestrator's
// StatusList manages.
func (o *Orchestrator) Revoke(ctx context.Context, cred *vc.Credential, actor, reason string) (*vc.Credential, error) {
	if cred.CredentialStatus == nil {
		err := trusterrors.MalformedInputError("credential carries no credentialStatus to revoke")
		o.auditFailure(ctx, actor, credentialSubjectID(cred), err)
		return nil, err
	}
	listID := cred.CredentialStatus.StatusListCredential
	idx, err := strconv.Atoi(cred.CredentialStatus.StatusListIndex)
	if err != nil {
		wrapped := trusterrors.MalformedInputError("statusListIndex %q is not an integer", cred.CredentialStatus.StatusListIndex)
		o.auditFailure(ctx, actor, credentialSubjectID(cred), wrapped)
		return nil, wrapped
	}

	if err := o.StatusList.SetStatus(ctx, listID, idx, true, actor, reason); err != nil {
		o.auditFailure(ctx, actor, credentialSubjectID(cred), err)
		return nil, err
	}
	o.auditAppend(ctx, actor, audit.ActionStatusSet, cred.CredentialStatus.ID, map[string]interface{}{
		"reason": reason,
	})

	published, err := o.StatusList.Publish(ctx, o.KMS, listID, statuslist.PublishParams{
		IssuerDID:                  o.IssuerDID,
		KeyRef:                     o.IssuerKeyRef,
		VerificationMethodFragment: o.VerificationMethodFragment,
	})
	if err != nil {
		o.auditFailure(ctx, actor, listID, err)
		return nil, err
	}
	o.auditAppend(ctx, actor, audit.ActionStatusPublish, listID, published)
	return published, nil
}

func credentialSubjectID(cred *vc.Credential) string {
	if cred == nil || cred.CredentialSubject == nil {
		return ""
	}
	if id, ok := cred.CredentialSubject["id"].(string); ok {
		return id
	}
	return ""
}

// declarationFromSubject reconstructs a Declaration from a VC's
// credentialSubject map, as produced by IssueTrustDeclaration. The
// round trip through json.Marshal/Unmarshal handles both an
// in-process Credential (articles is still a trust.Articles struct)
// and one decoded off the wire (articles is a map[string]interface{}).
// It returns ok=false for credentials that don't carry trust articles
// (e.g. a StatusList2021Credential), which is not an error — only
// trust-declaration credentials are scoreable.
func declarationFromSubject(subject map[string]interface{}) (Declaration, bool) {
	articlesRaw, ok := subject["articles"]
	if !ok {
		return Declaration{}, false
	}
	raw, err := json.Marshal(articlesRaw)
	if err != nil {
		return Declaration{}, false
	}
	var articles Articles
	if err := json.Unmarshal(raw, &articles); err != nil {
		return Declaration{}, false
	}
	id, _ := subject["id"].(string)
	name, _ := subject["agent_name"].(string)
	return Declaration{
		AgentID:       id,
		AgentName:     name,
		SchemaVersion: currentSchemaVersion,
		Articles:      articles,
	}, true
}
