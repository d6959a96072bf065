package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// sessionCommitter applies a chunk of write operations inside a single
// MongoDB session transaction, grouping ops per collection into unordered
// bulk writes.
type sessionCommitter struct {
	db     *mongo.Database
	logger *zap.Logger
}

// NewSessionCommitter creates a Committer backed by MongoDB transactions
func NewSessionCommitter(db *mongo.Database, logger *zap.Logger) Committer {
	return &sessionCommitter{db: db, logger: logger}
}

// Commit applies all ops in one transaction, or none of them
func (c *sessionCommitter) Commit(ctx context.Context, ops []WriteOp) error {
	if len(ops) == 0 {
		return nil
	}
	if len(ops) > MaxBatchOperations {
		return fmt.Errorf("commit of %d operations exceeds the %d-operation transaction ceiling", len(ops), MaxBatchOperations)
	}

	grouped := make(map[string][]mongo.WriteModel)
	order := make([]string, 0, 4)
	for _, op := range ops {
		model, err := writeModel(op)
		if err != nil {
			return err
		}
		if _, seen := grouped[op.Collection]; !seen {
			order = append(order, op.Collection)
		}
		grouped[op.Collection] = append(grouped[op.Collection], model)
	}

	session, err := c.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		for _, name := range order {
			_, err := c.db.Collection(name).BulkWrite(sc, grouped[name], options.BulkWrite().SetOrdered(false))
			if err != nil {
				return nil, fmt.Errorf("bulk write to %s failed: %w", name, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	c.logger.Debug("committed write batch",
		zap.Int("operations", len(ops)),
		zap.Int("collections", len(order)))
	return nil
}

func writeModel(op WriteOp) (mongo.WriteModel, error) {
	switch {
	case op.Insert != nil:
		return mongo.NewInsertOneModel().SetDocument(op.Insert), nil
	case op.DeleteMany:
		return mongo.NewDeleteManyModel().SetFilter(op.Filter), nil
	case op.Delete:
		return mongo.NewDeleteOneModel().SetFilter(op.Filter), nil
	case op.Update != nil:
		return mongo.NewUpdateOneModel().
			SetFilter(op.Filter).
			SetUpdate(op.Update).
			SetUpsert(op.Upsert), nil
	default:
		return nil, fmt.Errorf("write op on %s has no insert, update or delete payload", op.Collection)
	}
}
