package services

import (
	"fmt"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/order"
	"custody/internal/core/domain/model/party"
	"custody/internal/core/domain/model/registry"
	"custody/internal/pkg/errs"
)

// ChainBuilder materializes the custody chain of a pending order.
//
// Business rules:
//   - Every intermediary must be a constructed party with the Middleman role
//   - Intermediaries keep the order the coordinator supplied
//   - Ordering rules on the track itself are enforced by the Order aggregate
//
// Example usage:
//
//	builder := services.NewChainBuilder()
//	entries, err := builder.Build(o, middlemen)
//	if err != nil {
//	    return err
//	}
//	// persist o, then save entries to the queue registry
type ChainBuilder struct {
	projector QueueProjector
}

func NewChainBuilder() ChainBuilder {
	return ChainBuilder{projector: NewQueueProjector()}
}

// Build validates intermediaries, builds the order's track and returns the
// pending delivery entries of every hop.
//
// Parameters:
//   - o: a pending order
//   - intermediaries: directory entries in custody order, possibly empty
//
// Returns:
//   - []registry.PendingDelivery: seller, intermediaries and buyer entries
//   - error: ValueIsInvalidError for a party that cannot carry goods, or any
//     error from Order.BuildTrack
func (b ChainBuilder) Build(o *order.Order, intermediaries []party.Party) ([]registry.PendingDelivery, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	ids := make([]kernel.UUID, 0, len(intermediaries))
	for i, p := range intermediaries {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if !p.CanCarry() {
			return nil, errs.NewValueIsInvalidErrorWithCause(
				fmt.Sprintf("intermediaries[%d]", i),
				fmt.Errorf("party %s has role %s, only %s can carry goods", p.ID(), p.Role(), kernel.RoleMiddleman),
			)
		}
		ids = append(ids, p.ID())
	}

	if err := o.BuildTrack(ids); err != nil {
		return nil, err
	}

	return b.projector.All(o), nil
}
