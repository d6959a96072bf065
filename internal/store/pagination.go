package store

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrBadCursor is returned when a continuation cursor cannot be decoded.
// Handlers surface it as a 400, never as a silent restart from the beginning.
var ErrBadCursor = errors.New("invalid pagination cursor")

// Cursor is the decoded resume point of an ordered stream: the creation
// timestamp and document id of the last item of the previous page. It is
// meaningful only inside this server's trust boundary.
type Cursor struct {
	CreatedAt time.Time
	ID        primitive.ObjectID
}

// EncodeCursor encodes a resume point as an opaque token
func EncodeCursor(createdAt time.Time, id primitive.ObjectID) string {
	raw := fmt.Sprintf("%d.%s", createdAt.UnixNano(), id.Hex())
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor decodes a token produced by EncodeCursor. Any malformed,
// truncated or tampered token fails with ErrBadCursor.
func DecodeCursor(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrBadCursor
	}
	parts := strings.SplitN(string(raw), ".", 2)
	if len(parts) != 2 {
		return Cursor{}, ErrBadCursor
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Cursor{}, ErrBadCursor
	}
	id, err := primitive.ObjectIDFromHex(parts[1])
	if err != nil {
		return Cursor{}, ErrBadCursor
	}
	return Cursor{CreatedAt: time.Unix(0, nanos), ID: id}, nil
}

// CursorFilter returns the query filter resuming a created_at-descending
// stream after the cursor position, with the document id breaking timestamp
// ties. An empty token yields nil (start from the top).
func CursorFilter(token string) (bson.M, error) {
	if token == "" {
		return nil, nil
	}
	cur, err := DecodeCursor(token)
	if err != nil {
		return nil, err
	}
	return bson.M{"$or": bson.A{
		bson.M{"created_at": bson.M{"$lt": cur.CreatedAt}},
		bson.M{"created_at": cur.CreatedAt, "_id": bson.M{"$lt": cur.ID}},
	}}, nil
}

// TrimPage implements the limit+1 paging contract: items must have been
// fetched with limit+1; if the extra item came back there is a next page and
// the cursor of the limit-th item is returned, otherwise the stream is
// exhausted and the cursor is empty. Pages are replayed against the live
// collection, so inserts and deletes between pages can shift results; callers
// get completeness only over a quiescent stream.
func TrimPage[T any](items []T, limit int, cursorOf func(T) string) ([]T, string) {
	if limit < 1 || len(items) <= limit {
		return items, ""
	}
	page := items[:limit]
	return page, cursorOf(page[limit-1])
}
