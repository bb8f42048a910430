package relay

import (
	"strings"
	"time"
)

// maxRoomCodeLength caps normalized room codes.
const maxRoomCodeLength = 32

// Room is a named group of sessions that receive each other's relayed
// messages. Membership and the activity timestamp are guarded by the owning
// Registry's mutex; nothing mutates a Room except through Registry methods.
type Room struct {
	code       string
	members    map[*Session]struct{}
	lastActive time.Time
}

func newRoom(code string, now time.Time) *Room {
	return &Room{
		code:       code,
		members:    make(map[*Session]struct{}),
		lastActive: now,
	}
}

// Code returns the normalized room code identifying this room.
func (r *Room) Code() string {
	return r.code
}

// NormalizeRoomCode uppercases code, strips every character outside A-Z, 0-9,
// and underscore, and truncates the result to maxRoomCodeLength. The result
// may be empty; normalization is idempotent.
func NormalizeRoomCode(code string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(code) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	normalized := b.String()
	if len(normalized) > maxRoomCodeLength {
		normalized = normalized[:maxRoomCodeLength]
	}
	return normalized
}
