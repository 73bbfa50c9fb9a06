package audit

// Action is the closed vocabulary of operations this module's
// components record to the audit log (SPEC_FULL.md §6 item 2).
type Action string

const (
	ActionVCIssue          Action = "vc.issue"
	ActionVCVerify         Action = "vc.verify"
	ActionStatusAllocate   Action = "status.allocate"
	ActionStatusSet        Action = "status.set"
	ActionStatusPublish    Action = "status.publish"
	ActionDIDResolve       Action = "did.resolve"
	ActionTrustScore       Action = "trust.score"
	ActionOperationFailed  Action = "operation_failed"
)
