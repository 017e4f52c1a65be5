package model

import (
	"fmt"
	"sync/atomic"
)

// TxnID is a globally unique 128-bit transaction identifier, assigned by the
// client driver (spec.md §3). A single uint64 counter -- the teacher's
// actual choice in FC/configs.GetTxnID / FC/utils.GetTxnID -- cannot satisfy
// "globally unique across clients"; TxnID widens that same atomic-counter
// idiom to 128 bits by pairing a client instance id with a per-client
// monotonic counter instead of reaching for a UUID library the example
// corpus never imports (see DESIGN.md).
type TxnID struct {
	Hi uint64 // client instance id
	Lo uint64 // per-client monotonic counter
}

func (t TxnID) String() string {
	return fmt.Sprintf("%x-%x", t.Hi, t.Lo)
}

// Less defines the tid tie-break ordering used by I5 (smallest proposed_ts
// runs next, ties broken by tid ordering).
func (t TxnID) Less(o TxnID) bool {
	if t.Hi != o.Hi {
		return t.Hi < o.Hi
	}
	return t.Lo < o.Lo
}

// TxnIDGenerator assigns unique tids for one client instance, mirroring the
// atomic-counter idiom of FC/configs.GetTxnID.
type TxnIDGenerator struct {
	instance uint64
	counter  uint64
}

// NewTxnIDGenerator returns a generator stamping every tid it produces with
// instanceID in the high word.
func NewTxnIDGenerator(instanceID uint64) *TxnIDGenerator {
	return &TxnIDGenerator{instance: instanceID}
}

// Next returns the next unique tid for this client instance.
func (g *TxnIDGenerator) Next() TxnID {
	return TxnID{Hi: g.instance, Lo: atomic.AddUint64(&g.counter, 1)}
}
