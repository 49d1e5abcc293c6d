package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{
		OccurredAt:    time.Date(2024, 3, 10, 18, 30, 0, 0, time.UTC),
		TransactionID: uuid.New(),
	}

	token := c.Encode()
	assert.NotContains(t, token, "=", "token must be unpadded")

	decoded, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.True(t, c.OccurredAt.Equal(decoded.OccurredAt))
	assert.Equal(t, c.TransactionID, decoded.TransactionID)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, token := range []string{"", "not base64!!", "aGVsbG8", "e30"} {
		_, err := DecodeCursor(token)
		assert.ErrorIs(t, err, ErrInvalidAmount, "token %q", token)
	}
}

func TestListFilterNormalize(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	// Defaults
	f, err := ListFilter{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, f.Limit)

	// Clamping
	f, err = ListFilter{Limit: 10_000}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, f.Limit)

	// Inverted range
	_, err = ListFilter{From: &to, To: &from}.Normalize()
	assert.ErrorIs(t, err, ErrInvalidFlow)

	// Explicitly empty kind list is a caller bug
	_, err = ListFilter{Kinds: []TransactionKind{}}.Normalize()
	assert.ErrorIs(t, err, ErrInvalidAmount)

	// Unknown kind
	_, err = ListFilter{Kinds: []TransactionKind{"gift"}}.Normalize()
	assert.ErrorIs(t, err, ErrInvalidFlow)
}

func TestListFilterWantsTransfers(t *testing.T) {
	assert.False(t, ListFilter{}.WantsTransfers())
	assert.True(t, ListFilter{IncludeTransfers: true}.WantsTransfers())
	assert.True(t, ListFilter{Kinds: []TransactionKind{KindTransferFlow}}.WantsTransfers())
	assert.False(t, ListFilter{Kinds: []TransactionKind{KindIncome}}.WantsTransfers())
}
