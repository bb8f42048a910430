package relay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInboundObject(t *testing.T) {
	msg, ok := parseInbound([]byte(`{"type":"chat","room":"abc","fromId":"p1","fromName":"Pat","text":"hi"}`))
	require.True(t, ok)

	assert.Equal(t, "chat", msg.Type)
	assert.Equal(t, "abc", msg.Room)
	assert.Equal(t, "p1", msg.FromID)
	assert.Equal(t, "Pat", msg.FromName)
	assert.Contains(t, msg.fields, "text")
}

func TestParseInboundMissingFields(t *testing.T) {
	msg, ok := parseInbound([]byte(`{"text":"no discriminator"}`))
	require.True(t, ok)

	assert.Empty(t, msg.Type)
	assert.Empty(t, msg.Room)
	assert.Empty(t, msg.FromID)
}

func TestParseInboundNonStringFields(t *testing.T) {
	msg, ok := parseInbound([]byte(`{"type":42,"room":["x"]}`))
	require.True(t, ok)

	assert.Empty(t, msg.Type)
	assert.Empty(t, msg.Room)
}

func TestParseInboundRejectsNonObjects(t *testing.T) {
	malformed := [][]byte{
		[]byte(`not json at all`),
		[]byte(`"just a string"`),
		[]byte(`[1,2,3]`),
		[]byte(`42`),
		[]byte(`null`),
		[]byte(``),
	}

	for _, raw := range malformed {
		_, ok := parseInbound(raw)
		assert.False(t, ok, "payload %q should be rejected", raw)
	}
}

func TestStampedOverwritesSenderLabels(t *testing.T) {
	msg, ok := parseInbound([]byte(`{"type":"chat","text":"hi","fromId":"spoofed","fromName":"Mallory"}`))
	require.True(t, ok)

	payload, err := msg.stamped("p1", "Alice")
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))

	assert.Equal(t, "p1", decoded["fromId"])
	assert.Equal(t, "Alice", decoded["fromName"])
	assert.Equal(t, "chat", decoded["type"])
	assert.Equal(t, "hi", decoded["text"])
}
