package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExpenseEvent(t *testing.T) {
	e := NewExpenseEvent(ExpenseCreated, 42)
	assert.Equal(t, ExpenseCreated, e.Type)
	assert.Equal(t, int64(42), e.ExpenseID)
	assert.WithinDuration(t, time.Now(), e.Timestamp, time.Second)
}

func TestExpenseEventJSONRoundTrip(t *testing.T) {
	original := &ExpenseEvent{
		Type:      ExpenseDeleted,
		ExpenseID: 7,
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := original.ToJSON()
	require.NoError(t, err)

	parsed, err := ExpenseEventFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, original.Type, parsed.Type)
	assert.Equal(t, original.ExpenseID, parsed.ExpenseID)
	assert.True(t, parsed.Timestamp.Equal(original.Timestamp))
}

func TestExpenseEventFromJSONInvalid(t *testing.T) {
	_, err := ExpenseEventFromJSON([]byte(`{"expense_id": "not_a_number"}`))
	assert.Error(t, err)
}
