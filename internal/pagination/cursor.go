package pagination

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

// Cursor represents a decoded pagination cursor
type Cursor struct {
	LastID    string
	Timestamp time.Time
}

var (
	ErrInvalidCursor = errors.New("invalid cursor format")
)

// EncodeCursor creates a URL-safe cursor from the last item ID and timestamp
func EncodeCursor(lastID string, timestamp time.Time) string {
	if lastID == "" {
		return ""
	}
	raw := lastID + "|" + timestamp.UTC().Format(time.RFC3339Nano)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor decodes a cursor and returns the last ID and timestamp
func DecodeCursor(cursor string) (*Cursor, error) {
	if cursor == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 || parts[0] == "" {
		return nil, ErrInvalidCursor
	}

	timestamp, err := time.Parse(time.RFC3339Nano, parts[1])
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &Cursor{
		LastID:    parts[0],
		Timestamp: timestamp,
	}, nil
}

// Page returns up to limit items following the cursor (all remaining items
// when limit <= 0) and the cursor of the next page, empty on the last page.
// A cursor that names no item, or names it with another timestamp, is
// invalid.
func Page[T any](items []T, cursor string, limit int, getID func(T) string, getTimestamp func(T) time.Time) ([]T, string, error) {
	start := 0
	c, err := DecodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}
	if c != nil {
		start = -1
		for i, item := range items {
			if getID(item) == c.LastID {
				if !getTimestamp(item).Equal(c.Timestamp) {
					return nil, "", ErrInvalidCursor
				}
				start = i + 1
				break
			}
		}
		if start < 0 {
			return nil, "", ErrInvalidCursor
		}
	}

	end := len(items)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	page := items[start:end]

	if end == len(items) || len(page) == 0 {
		return page, "", nil
	}
	last := page[len(page)-1]
	return page, EncodeCursor(getID(last), getTimestamp(last)), nil
}
