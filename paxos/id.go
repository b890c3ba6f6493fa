package paxos

import "github.com/google/uuid"

// ID is a stable, transport-independent address for exactly one role
// instance's mailbox. The core never interprets an ID beyond equality; it
// is opaque to the protocol.
type ID struct {
	u uuid.UUID
}

// NewID allocates a fresh, globally unique ID.
func NewID() ID {
	return ID{u: uuid.New()}
}

// Zero reports whether this is the unset ID value.
func (id ID) Zero() bool {
	return id.u == uuid.Nil
}

func (id ID) String() string {
	return id.u.String()
}
