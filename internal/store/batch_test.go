package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

// fakeCommitter records every committed chunk
type fakeCommitter struct {
	chunks  [][]WriteOp
	failOn  int // 1-based commit index to fail at; 0 never fails
	commits int
}

func (f *fakeCommitter) Commit(ctx context.Context, ops []WriteOp) error {
	f.commits++
	if f.failOn != 0 && f.commits == f.failOn {
		return errors.New("commit failed")
	}
	chunk := make([]WriteOp, len(ops))
	copy(chunk, ops)
	f.chunks = append(f.chunks, chunk)
	return nil
}

func makeOps(n int) []WriteOp {
	ops := make([]WriteOp, n)
	for i := range ops {
		ops[i] = WriteOp{
			Collection: CollFeedEntries,
			Filter:     bson.M{"owner_id": fmt.Sprintf("user-%d", i)},
			Update:     bson.M{"$set": bson.M{"seq": i}},
			Upsert:     true,
		}
	}
	return ops
}

func TestBatchWriterChunking(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		wantChunks []int
	}{
		{"empty", 0, nil},
		{"below ceiling", 42, []int{42}},
		{"exactly one chunk", MaxBatchOperations, []int{MaxBatchOperations}},
		{"one over", MaxBatchOperations + 1, []int{MaxBatchOperations, 1}},
		{"many chunks", 2*MaxBatchOperations + 200, []int{MaxBatchOperations, MaxBatchOperations, 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeCommitter{}
			w := NewBatchWriter(fc)

			require.NoError(t, w.Add(context.Background(), makeOps(tt.total)...))
			require.NoError(t, w.Flush(context.Background()))

			var sizes []int
			for _, c := range fc.chunks {
				sizes = append(sizes, len(c))
			}
			assert.Equal(t, tt.wantChunks, sizes)
			assert.Equal(t, tt.total, w.Committed())
			assert.Zero(t, w.Pending())
		})
	}
}

func TestBatchWriterPreservesOrder(t *testing.T) {
	fc := &fakeCommitter{}
	w := NewBatchWriter(fc)

	total := MaxBatchOperations + 10
	require.NoError(t, w.Add(context.Background(), makeOps(total)...))
	require.NoError(t, w.Flush(context.Background()))

	seq := 0
	for _, chunk := range fc.chunks {
		for _, op := range chunk {
			assert.Equal(t, seq, op.Update["$set"].(bson.M)["seq"])
			seq++
		}
	}
	assert.Equal(t, total, seq)
}

func TestBatchWriterIncrementalAdds(t *testing.T) {
	fc := &fakeCommitter{}
	w := NewBatchWriter(fc)

	// ops trickle in one at a time, as fan-out emits them
	for i := 0; i < MaxBatchOperations+3; i++ {
		require.NoError(t, w.Add(context.Background(), makeOps(1)...))
	}
	assert.Len(t, fc.chunks, 1, "full chunk should commit as soon as the ceiling is reached")
	assert.Equal(t, 3, w.Pending())

	require.NoError(t, w.Flush(context.Background()))
	assert.Len(t, fc.chunks, 2)
}

func TestBatchWriterPartialFailureKeepsCommittedChunks(t *testing.T) {
	fc := &fakeCommitter{failOn: 2}
	w := NewBatchWriter(fc)

	err := w.Add(context.Background(), makeOps(2*MaxBatchOperations)...)
	require.Error(t, err)

	// first chunk stays durable, failed chunk is surfaced to the caller
	assert.Len(t, fc.chunks, 1)
	assert.Equal(t, MaxBatchOperations, w.Committed())
}

func TestBatchWriterFlushEmptyIsNoop(t *testing.T) {
	fc := &fakeCommitter{}
	w := NewBatchWriter(fc)
	require.NoError(t, w.Flush(context.Background()))
	assert.Zero(t, fc.commits)
}
