// Package commands contains the custody operations that modify state.
// Every command follows the same cycle: validate the command, load the order
// inside a unit of work, mutate it through the aggregate, commit conditionally
// on the loaded revision together with the projections it affects, then
// anchor the new track.
package commands

import (
	"context"

	"custody/internal/core/domain/model/order"
	"custody/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
type (
	// TxManager handles transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
		Savepoint(ctx context.Context, name string) error
		RollbackTo(ctx context.Context, name string) error
	}

	// OrderRepoFactory provides access to the order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// QueueRepoFactory provides access to the per-party projections within a transaction.
	QueueRepoFactory interface {
		QueueRepository() ports.QueueRepository
	}

	// DirectoryFactory provides access to the party directory and product catalog.
	DirectoryFactory interface {
		PartyDirectory() ports.PartyDirectory
		ProductCatalog() ports.ProductCatalog
	}

	// UoW manages transactions across orders, projections and directories.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   o, err := uow.OrderRepository().Get(ctx, id)
	//   // ... mutate o
	//   err = uow.OrderRepository().Update(ctx, o)
	//
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		OrderRepoFactory
		QueueRepoFactory
		DirectoryFactory
	}

	// UoWFactory creates new unit of work instances.
	UoWFactory interface {
		Create() UoW
	}

	// Anchorer submits the track of a committed order to the content-anchor
	// store. Failures are *errs.AnchorError.
	Anchorer interface {
		Anchor(ctx context.Context, o *order.Order) (string, error)
	}
)
