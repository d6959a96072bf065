package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCursorRoundTrip(t *testing.T) {
	id := primitive.NewObjectID()
	at := time.Now().Truncate(time.Nanosecond)

	token := EncodeCursor(at, id)
	cur, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, id, cur.ID)
	assert.Equal(t, at.UnixNano(), cur.CreatedAt.UnixNano())
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"empty payload", ""},
		{"no separator", "aGVsbG8"},
		{"bad timestamp", "eC5hYmNkZWYxMjM0NTY3ODkwYWJjZGVmMTI"},
		{"bad object id", "MTIzNDUubm90LWFuLWlk"},
		{"truncated token", EncodeCursor(time.Now(), primitive.NewObjectID())[:8]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCursor(tt.token)
			assert.ErrorIs(t, err, ErrBadCursor)
		})
	}
}

func TestCursorFilterEmptyToken(t *testing.T) {
	filter, err := CursorFilter("")
	require.NoError(t, err)
	assert.Nil(t, filter)
}

func TestCursorFilterBadToken(t *testing.T) {
	_, err := CursorFilter("garbage")
	assert.ErrorIs(t, err, ErrBadCursor)
}

func TestTrimPage(t *testing.T) {
	cursorOf := func(s string) string { return "cur-" + s }

	t.Run("exhausted stream returns no cursor", func(t *testing.T) {
		page, next := TrimPage([]string{"a", "b"}, 5, cursorOf)
		assert.Equal(t, []string{"a", "b"}, page)
		assert.Empty(t, next)
	})

	t.Run("exactly limit returns no cursor", func(t *testing.T) {
		page, next := TrimPage([]string{"a", "b", "c"}, 3, cursorOf)
		assert.Len(t, page, 3)
		assert.Empty(t, next)
	})

	t.Run("limit plus one yields cursor of last kept item", func(t *testing.T) {
		page, next := TrimPage([]string{"a", "b", "c", "d"}, 3, cursorOf)
		assert.Equal(t, []string{"a", "b", "c"}, page)
		assert.Equal(t, "cur-c", next)
	})
}

// Following next_cursor from nil to nil over a quiescent stream yields the
// full ordered set with no gaps and no duplicates, for any limit >= 1.
func TestPagingCompleteness(t *testing.T) {
	var all []string
	for i := 0; i < 17; i++ {
		all = append(all, fmt.Sprintf("item-%02d", i))
	}
	cursorOf := func(s string) string { return s }

	// simulates a repository fetch of limit+1 items after a cursor position
	fetch := func(after string, limit int) []string {
		start := 0
		if after != "" {
			for i, s := range all {
				if s == after {
					start = i + 1
					break
				}
			}
		}
		end := start + limit + 1
		if end > len(all) {
			end = len(all)
		}
		return all[start:end]
	}

	for limit := 1; limit <= len(all)+1; limit++ {
		var got []string
		cursor := ""
		for {
			page, next := TrimPage(fetch(cursor, limit), limit, cursorOf)
			got = append(got, page...)
			if next == "" {
				break
			}
			cursor = next
		}
		require.Equal(t, all, got, "limit %d", limit)
	}
}
