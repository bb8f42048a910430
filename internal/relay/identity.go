package relay

import (
	"strings"

	"github.com/google/uuid"
)

// generatedIDPrefix marks identities minted by the server for sessions that
// join without declaring one, keeping them distinguishable from client-chosen
// identities.
const generatedIDPrefix = "guest_"

// newIdentity returns a short random alphanumeric token to use as a session
// identity when the join message did not declare one.
func newIdentity() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return generatedIDPrefix + token[:8]
}
