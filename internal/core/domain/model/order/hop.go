package order

import (
	"custody/internal/core/domain/model/kernel"
)

// Hop is one position on the custody track.
type Hop struct {
	owner    kernel.UUID
	received bool
	given    bool
}

// NewHop creates a hop for owner with the given flags.
func NewHop(owner kernel.UUID, received, given bool) (Hop, error) {
	if err := owner.Validate(); err != nil {
		return Hop{}, err
	}
	return Hop{owner: owner, received: received, given: given}, nil
}

func (h Hop) Owner() kernel.UUID {
	return h.owner
}

func (h Hop) Received() bool {
	return h.received
}

func (h Hop) Given() bool {
	return h.given
}

// IsComplete reports whether the good both arrived at and left this hop.
func (h Hop) IsComplete() bool {
	return h.received && h.given
}
