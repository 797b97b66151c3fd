package commands

import (
	"context"
	"errors"
	"log/slog"

	"custody/internal/core/domain/model/catalog"
	"custody/internal/core/domain/model/kernel"
	"custody/internal/pkg/errs"
)

type AddProductCommandHandler struct {
	uowFactory UoWFactory
	logger     *slog.Logger
}

func NewAddProductCommandHandler(uowFactory UoWFactory, logger *slog.Logger) AddProductCommandHandler {
	return AddProductCommandHandler{
		uowFactory: uowFactory,
		logger:     logger.With("component", "add_product"),
	}
}

// Handle requires a seller caller and a registered coordinator. Relisting
// a product the caller owns replaces its name and coordinator.
func (h *AddProductCommandHandler) Handle(ctx context.Context, cmd AddProductCommand) (catalog.Product, error) {
	if err := cmd.Validate(); err != nil {
		return catalog.Product{}, err
	}
	if !cmd.Caller().Is(kernel.RoleSeller) {
		return catalog.Product{}, errs.NewForbiddenError("add product", "only sellers can list products")
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return catalog.Product{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	existing, err := uow.ProductCatalog().FindProduct(ctx, cmd.ProductID())
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
	case err != nil:
		return catalog.Product{}, err
	case !existing.Seller().IsEqual(cmd.Caller().ID()):
		return catalog.Product{}, errs.NewForbiddenError("add product", "product is listed by another seller")
	}

	coordinator, err := uow.PartyDirectory().Get(ctx, cmd.CoordinatorID())
	if err != nil {
		return catalog.Product{}, err
	}
	if coordinator.Role() != kernel.RoleCoordinatorAdmin {
		return catalog.Product{}, errs.NewValueIsInvalidError("coordinator_id")
	}

	p, err := catalog.NewProduct(cmd.ProductID(), cmd.Name(), cmd.Caller().ID(), coordinator.ID())
	if err != nil {
		return catalog.Product{}, err
	}
	if err = uow.ProductCatalog().Save(ctx, p); err != nil {
		return catalog.Product{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return catalog.Product{}, err
	}

	h.logger.InfoContext(ctx, "product listed",
		"product_id", p.ID().String(), "party_id", p.Seller().String(), "coordinator_id", p.Coordinator().String())
	return p, nil
}
