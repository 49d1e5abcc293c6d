package ledger

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Cursor is an opaque keyset-pagination token. Listing orders by
// (occurred_at DESC, id DESC); the cursor names the last row the
// caller has seen.
type Cursor struct {
	OccurredAt    time.Time     `json:"o"`
	TransactionID TransactionID `json:"t"`
}

var cursorEncoding = base64.URLEncoding.WithPadding(base64.NoPadding)

// Encode renders the cursor as a URL-safe token.
func (c Cursor) Encode() string {
	raw, _ := json.Marshal(c)
	return cursorEncoding.EncodeToString(raw)
}

// DecodeCursor parses a token produced by Encode. Malformed tokens are
// a client error.
func DecodeCursor(token string) (Cursor, error) {
	raw, err := cursorEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, errInvalidAmountf("malformed cursor")
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, errInvalidAmountf("malformed cursor")
	}
	if c.TransactionID == uuid.Nil && c.OccurredAt.IsZero() {
		return Cursor{}, errInvalidAmountf("malformed cursor")
	}
	return c, nil
}
