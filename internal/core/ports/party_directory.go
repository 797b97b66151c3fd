package ports

import (
	"context"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/party"
)

// PartyDirectory is the read side of the identity collaborator.
type PartyDirectory interface {
	// Get returns errs.ObjectNotFoundError for an unknown id.
	Get(ctx context.Context, id kernel.UUID) (party.Party, error)

	// ListByRole returns parties ordered by name.
	ListByRole(ctx context.Context, role kernel.Role) ([]party.Party, error)

	// Save creates or replaces a directory entry.
	Save(ctx context.Context, p party.Party) error
}
