package ports

import (
	"context"
)

// UnitOfWorkFactory creates new UnitOfWork instances for each request/command.
// This ensures proper isolation between concurrent operations.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork represents a business transaction boundary.
// Client code must explicitly manage transaction lifecycle.
type UnitOfWork interface {
	// Begin starts a new transaction.
	Begin(ctx context.Context) error

	// Commit commits the current transaction.
	// Returns error if no active transaction or commit fails.
	Commit(ctx context.Context) error

	// Rollback rolls back the current transaction.
	// Returns error if no active transaction or rollback fails.
	Rollback(ctx context.Context) error

	// Savepoint marks a point inside the active transaction that RollbackTo
	// can return to without abandoning the transaction.
	Savepoint(ctx context.Context, name string) error

	// RollbackTo discards every write made since the named savepoint.
	RollbackTo(ctx context.Context, name string) error

	// OrderRepository returns an OrderRepository bound to the current transaction.
	OrderRepository() OrderRepository

	// QueueRepository returns a QueueRepository bound to the current transaction.
	QueueRepository() QueueRepository

	PartyDirectory() PartyDirectory

	ProductCatalog() ProductCatalog
}
