package statuslist

import (
	"context"
	"strconv"

	trusterrors "github.com/agentrust/trustcore/errors"
	"github.com/agentrust/trustcore/vc"
)

// LocalChecker satisfies vc.StatusChecker by reading straight out of a
// Manager's in-process state, with no HTTP round trip. It is the
// StatusChecker a caller that owns the status list it issues against
// uses in place of RemoteVerifier, which exists to check a list someone
// else published (spec §4.7 verify_remote vs. local GetStatus).
type LocalChecker struct {
	Manager *Manager
}

// NewLocalChecker builds a LocalChecker over mgr.
func NewLocalChecker(mgr *Manager) *LocalChecker {
	return &LocalChecker{Manager: mgr}
}

// Check implements vc.StatusChecker.
func (c *LocalChecker) Check(ctx context.Context, entry vc.StatusEntry) (vc.StatusState, error) {
	idx, err := strconv.Atoi(entry.StatusListIndex)
	if err != nil {
		return vc.StatusUnknown, trusterrors.MalformedInputError("statusListIndex %q is not an integer", entry.StatusListIndex)
	}
	set, err := c.Manager.GetStatus(ctx, entry.StatusListCredential, idx)
	if err != nil {
		return vc.StatusUnknown, err
	}
	if !set {
		return vc.StatusActive, nil
	}
	if entry.StatusPurpose == "suspension" {
		return vc.StatusSuspended, nil
	}
	return vc.StatusRevoked, nil
}
