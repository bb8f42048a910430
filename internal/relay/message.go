// Package relay defines the wire messages exchanged with clients: the parsed
// inbound field bag and the server-generated reply shapes.
package relay

import "encoding/json"

// Inbound message types the router handles itself. Any other type is treated
// as an application payload and relayed to room peers after re-stamping.
const (
	typeJoin      = "join"
	typeRoomCount = "room_count_query"
	typeKeepalive = "ping_keepalive"
)

// Outbound server-generated message types.
const (
	typeAck        = "ack"
	typeError      = "error"
	typeRoomCounts = "room_counts"
	typePong       = "pong_keepalive"
	typeLeave      = "leave"
)

// inboundMessage is a parsed client payload: the discriminator fields the
// router cares about, plus the raw field bag so application messages pass
// through the relay without the server knowing their shape.
type inboundMessage struct {
	Type     string
	Room     string
	FromID   string
	FromName string

	fields map[string]json.RawMessage
}

// parseInbound decodes raw into an inboundMessage. The second return value is
// false when the payload is not a JSON object; such payloads are dropped by
// the router without a reply.
func parseInbound(raw []byte) (*inboundMessage, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, false
	}
	return &inboundMessage{
		Type:     stringField(fields, "type"),
		Room:     stringField(fields, "room"),
		FromID:   stringField(fields, "fromId"),
		FromName: stringField(fields, "fromName"),
		fields:   fields,
	}, true
}

// stringField extracts a string value from the field bag, returning "" when
// the key is absent or holds a non-string value.
func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// stamped serializes the original payload with fromId and fromName overwritten
// by the server-verified values, so receivers can trust the sender labels no
// matter what the sender claimed.
func (m *inboundMessage) stamped(identity, name string) ([]byte, error) {
	idRaw, err := json.Marshal(identity)
	if err != nil {
		return nil, err
	}
	nameRaw, err := json.Marshal(name)
	if err != nil {
		return nil, err
	}
	m.fields["fromId"] = idRaw
	m.fields["fromName"] = nameRaw
	return json.Marshal(m.fields)
}

type ackMessage struct {
	Type        string `json:"type"`
	Room        string `json:"room"`
	YourID      string `json:"yourId"`
	PlayerCount int    `json:"playerCount"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type roomCountsMessage struct {
	Type   string         `json:"type"`
	Counts map[string]int `json:"counts"`
}

type pongMessage struct {
	Type string `json:"type"`
}

type leaveMessage struct {
	Type     string `json:"type"`
	FromID   string `json:"fromId"`
	FromName string `json:"fromName"`
	TS       int64  `json:"ts"`
}
