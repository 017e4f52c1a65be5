package model

import "errors"

// Sentinel errors for the taxonomy in spec.md §7, checked with errors.Is --
// the same plain-sentinel style as FC/utils/errors.go (ErrLockTimeout,
// ErrTimeout) rather than a bespoke error-wrapping framework.
var (
	// ErrConflict is returned when a Prepare-time conflict check fails: a
	// referenced key is locked by a concurrent Coord transaction, or a Read
	///Delete targets a missing key.
	ErrConflict = errors.New("granola: conflict")

	// ErrPeerConflict marks a local outcome finalized because a peer voted
	// Conflict during the Accept phase.
	ErrPeerConflict = errors.New("granola: peer voted conflict")

	// ErrLateConflict marks a local outcome finalized because run_nexts
	// re-detected a conflict at execution time.
	ErrLateConflict = errors.New("granola: late conflict at execution")

	// ErrUnreachableTID is returned by GetProposedTs for a tid the
	// repository has never seen -- a programming error in the caller.
	ErrUnreachableTID = errors.New("granola: unreachable tid")
)

// Outcome is the per-tid result GetResult hands back: either the value of
// the transaction's last operation, or a descriptive error (spec.md §3,
// "done" map).
type Outcome struct {
	Value *Record
	Err   error
}
