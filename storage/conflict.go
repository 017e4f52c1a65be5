package storage

import "granola/model"

// checkConflict walks every operation in ops and fails if any referenced key
// is currently locked, or any Read/Delete targets a missing key (spec.md
// §4.2). Create does not require absence and Update does not require
// presence -- those two choices are part of the contract and are preserved
// here rather than "fixed".
func checkConflict(store map[model.Key]model.Record, locks *LockTable, ops []model.Operation) error {
	for _, op := range ops {
		for _, k := range op.ReferencedKeys() {
			if locks.Contains(k) {
				return model.ErrConflict
			}
		}
		for _, k := range op.RequiredKeys() {
			if _, ok := store[k]; !ok {
				return model.ErrConflict
			}
		}
	}
	return nil
}
