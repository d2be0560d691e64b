package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventEnvelope(t *testing.T) {
	evt := NewEvent(EventOrderDelivered, "0b8c6f0e-3a52-4f0e-9a8e-1f2d3c4b5a69", OrderDeliveredPayload{
		UserID: "u1", Email: "ana@example.com", FirstName: "Ana",
	})

	var env Envelope = evt
	assert.NotEmpty(t, env.EventID())
	assert.Equal(t, EventOrderDelivered, env.EventType())
	assert.Equal(t, evt.AggregateID, env.Aggregate())
	assert.Equal(t, evt.Time, env.OccurredAt())

	b, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.EqualValues(t, 1, decoded["version"])
	assert.Equal(t, "ana@example.com", decoded["payload"].(map[string]any)["email"])
}
