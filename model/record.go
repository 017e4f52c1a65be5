// Package model holds the value/operation model shared by every Granola
// repository: records, keys, the expression tree operations are built from,
// transaction identifiers and votes.
package model

import "fmt"

// Key identifies a record within one repository's store. It generalizes
// FC/storage/row.go's `type Key uint64`.
type Key uint64

// Record is the opaque value a repository stores: a pair of signed 64-bit
// integers supporting component-wise addition and subtraction (spec.md §3).
type Record struct {
	A int64
	B int64
}

// Add returns the component-wise sum of r and other.
func (r Record) Add(other Record) Record {
	return Record{A: r.A + other.A, B: r.B + other.B}
}

// Sub returns the component-wise difference of r and other.
func (r Record) Sub(other Record) Record {
	return Record{A: r.A - other.A, B: r.B - other.B}
}

func (r Record) String() string {
	return fmt.Sprintf("(%d,%d)", r.A, r.B)
}
