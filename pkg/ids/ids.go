package ids

import (
	"strings"

	"github.com/google/uuid"
)

// LocalPrefix marks ids generated on the device. Server ids never carry it.
const LocalPrefix = "local_"

// ID identifies a message or conversation. It is either a server id or a
// client-generated local id awaiting reconciliation.
type ID string

// NewLocal returns a fresh local id.
func NewLocal() ID {
	return ID(LocalPrefix + uuid.NewString())
}

// NewNonce returns a correlation nonce sent alongside a mutation so the
// server's answer can be matched to the optimistic local entry.
func NewNonce() string {
	return uuid.NewString()
}

func Server(id string) ID {
	return ID(id)
}

func (id ID) IsLocal() bool {
	return strings.HasPrefix(string(id), LocalPrefix)
}

func (id ID) String() string {
	return string(id)
}
