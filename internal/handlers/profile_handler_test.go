package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loopline-app/backend/internal/models"
	"github.com/loopline-app/backend/internal/store"
)

// Deleting an account removes its comment and reaction documents, so the
// tallies embedded on other authors' updates must be decremented by exactly
// what the account contributed. Updates the account authored are excluded,
// they are deleted outright in the same commit.
func TestCounterDecrementOps(t *testing.T) {
	otherA := primitive.NewObjectID()
	otherB := primitive.NewObjectID()
	own := primitive.NewObjectID()
	authored := map[string]bool{own.Hex(): true}

	comments := []models.Comment{
		{UpdateID: otherA.Hex(), UserID: "leaver"},
		{UpdateID: otherA.Hex(), UserID: "leaver"},
		{UpdateID: own.Hex(), UserID: "leaver"},
	}
	reactions := []models.Reaction{
		{UpdateID: otherA.Hex(), UserID: "leaver", Types: []string{"love", "wow"}},
		{UpdateID: otherB.Hex(), UserID: "leaver", Types: []string{"love"}},
		{UpdateID: own.Hex(), UserID: "leaver", Types: []string{"love"}},
	}

	ops := counterDecrementOps(comments, reactions, authored)
	require.Len(t, ops, 2, "one op per foreign update, authored updates skipped")

	byID := make(map[string]store.WriteOp)
	for _, op := range ops {
		assert.Equal(t, store.CollUpdates, op.Collection)
		id := op.Filter["_id"].(primitive.ObjectID)
		byID[id.Hex()] = op
	}

	incA := byID[otherA.Hex()].Update["$inc"].(bson.M)
	assert.Equal(t, bson.M{
		"comment_count":       -2,
		"reaction_count":      -2,
		"reaction_types.love": -1,
		"reaction_types.wow":  -1,
	}, incA)

	incB := byID[otherB.Hex()].Update["$inc"].(bson.M)
	assert.Equal(t, bson.M{
		"reaction_count":      -1,
		"reaction_types.love": -1,
	}, incB)
}

func TestCounterDecrementOpsEdgeCases(t *testing.T) {
	ops := counterDecrementOps(nil, nil, nil)
	assert.Empty(t, ops, "nothing contributed, nothing to decrement")

	ops = counterDecrementOps(nil, []models.Reaction{
		{UpdateID: primitive.NewObjectID().Hex(), Types: nil},
	}, nil)
	assert.Empty(t, ops, "reaction documents without active types are ignored")

	ops = counterDecrementOps([]models.Comment{{UpdateID: "not-an-object-id"}}, nil, nil)
	assert.Empty(t, ops, "malformed update ids are skipped")
}
