package ports

import (
	"context"

	"custody/internal/core/domain/model/catalog"
	"custody/internal/core/domain/model/kernel"
)

// ProductCatalog is the read side of the catalog collaborator.
type ProductCatalog interface {
	// FindProduct returns errs.ObjectNotFoundError for an unknown id.
	FindProduct(ctx context.Context, id kernel.UUID) (catalog.Product, error)

	Save(ctx context.Context, p catalog.Product) error
}
