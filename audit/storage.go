package audit

import "context"

// Storage is the append-only persistence capability the Log serializes
// writes through (spec §4.8 Concurrency: single writer per log,
// lock-free concurrent readers). The physical store is external to the
// core; memory and filesystem implementations are provided here.
type Storage interface {
	// Append persists entry, which the caller has already assigned the
	// next contiguous Seq. Implementations do not renumber or reorder.
	Append(ctx context.Context, entry *Entry) error

	// Get returns the entry at seq, or a NotFound error.
	Get(ctx context.Context, seq uint64) (*Entry, error)

	// Range returns entries with Seq in [fromSeq, toSeq], inclusive,
	// in ascending order.
	Range(ctx context.Context, fromSeq, toSeq uint64) ([]*Entry, error)

	// Tail returns the highest-Seq entry, or a NotFound error if the
	// log is empty.
	Tail(ctx context.Context) (*Entry, error)
}
