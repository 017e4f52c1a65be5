package storage

import "granola/model"

// Transaction is a repository's local view of one tid (spec.md §3).
type Transaction struct {
	TID        model.TxnID
	Mode       model.Mode
	ProposedTS uint64
	WaitingFor int
	Operations []model.Operation

	// locksHeld records whether this Coord transaction currently owns
	// entries in the repository's LockTable, so run_nexts knows to release
	// them before the transaction's own run-time conflict check.
	locksHeld bool
}

// Runnable reports whether this transaction has collected every vote it is
// waiting for (I4: waiting_for == 0 is necessary for a transaction to run).
func (t *Transaction) Runnable() bool {
	return t.WaitingFor == 0
}
