package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// MaxBatchOperations is the ceiling on the number of document mutations
// committed in a single atomic transaction.
const MaxBatchOperations = 500

// WriteOp is one document mutation: an insert, an update (optionally upsert)
// or a delete against a single collection. Every update in the fan-out and
// propagation paths is a last-write-wins field overwrite or an atomic $inc,
// so re-issuing a committed op is always safe.
type WriteOp struct {
	Collection string
	Filter     bson.M
	Update     bson.M      // $set/$inc/$addToSet/$pull document; nil unless an update op
	Insert     interface{} // document to insert; nil unless an insert op
	Upsert     bool
	Delete     bool
	DeleteMany bool
}

// Committer commits a bounded sequence of write operations atomically.
type Committer interface {
	Commit(ctx context.Context, ops []WriteOp) error
}

// BatchWriter chunks an arbitrary sequence of operations into bounded atomic
// commits. Each full chunk is committed as soon as the running count reaches
// MaxBatchOperations; Flush commits whatever remains. Committed chunks stay
// applied even if a later chunk fails, so callers must treat each chunk as
// independently durable.
type BatchWriter struct {
	committer Committer
	pending   []WriteOp
	committed int
}

// NewBatchWriter creates a BatchWriter committing through the given Committer
func NewBatchWriter(c Committer) *BatchWriter {
	return &BatchWriter{committer: c}
}

// Add queues operations, committing every full chunk before returning
func (w *BatchWriter) Add(ctx context.Context, ops ...WriteOp) error {
	w.pending = append(w.pending, ops...)
	for len(w.pending) >= MaxBatchOperations {
		chunk := w.pending[:MaxBatchOperations]
		if err := w.committer.Commit(ctx, chunk); err != nil {
			return err
		}
		w.committed += len(chunk)
		w.pending = w.pending[MaxBatchOperations:]
	}
	return nil
}

// Flush commits the remaining partial chunk, if any
func (w *BatchWriter) Flush(ctx context.Context) error {
	if len(w.pending) == 0 {
		return nil
	}
	chunk := w.pending
	w.pending = nil
	if err := w.committer.Commit(ctx, chunk); err != nil {
		return err
	}
	w.committed += len(chunk)
	return nil
}

// Committed returns the number of operations durably committed so far
func (w *BatchWriter) Committed() int {
	return w.committed
}

// Pending returns the number of operations queued but not yet committed
func (w *BatchWriter) Pending() int {
	return len(w.pending)
}
