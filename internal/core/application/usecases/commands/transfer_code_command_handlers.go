package commands

import (
	"context"
	"log/slog"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/order"
	"custody/internal/pkg/errs"
)

// GenerateTransferCodeCommandHandler issues a fresh transfer code for the hop
// after the caller's, replacing any live code of the order.
type GenerateTransferCodeCommandHandler struct {
	uowFactory UoWFactory
	retrier    RevisionRetrier
	clock      kernel.Clock
	generate   func() (string, error)
	logger     *slog.Logger
}

func NewGenerateTransferCodeCommandHandler(
	uowFactory UoWFactory,
	retrier RevisionRetrier,
	clock kernel.Clock,
	logger *slog.Logger,
) GenerateTransferCodeCommandHandler {
	return GenerateTransferCodeCommandHandler{
		uowFactory: uowFactory,
		retrier:    retrier,
		clock:      clock,
		generate:   order.GenerateTransferCodeDigits,
		logger:     logger.With("component", "generate_transfer_code"),
	}
}

// Handle returns the issued code, digits included; only the requester ever
// sees them.
func (h *GenerateTransferCodeCommandHandler) Handle(ctx context.Context, cmd GenerateTransferCodeCommand) (order.TransferCode, error) {
	if err := cmd.Validate(); err != nil {
		return order.TransferCode{}, err
	}

	var code order.TransferCode
	err := h.retrier.Do(ctx, "generate_transfer_code", func() error {
		uow := h.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return err
		}
		defer func() {
			_ = uow.Rollback(ctx)
		}()

		o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
		if err != nil {
			return err
		}

		digits, err := h.generate()
		if err != nil {
			return err
		}
		code, err = o.IssueTransferCode(cmd.Caller().ID(), digits, h.clock.Now())
		if err != nil {
			return err
		}

		if err = uow.OrderRepository().Update(ctx, o); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})
	if err != nil {
		return order.TransferCode{}, err
	}

	h.logger.InfoContext(ctx, "transfer code issued",
		"order_id", cmd.OrderID().String(), "party_id", cmd.Caller().ID().String(), "hop", code.TargetHop())
	return code, nil
}

// VerifyTransferCodeCommandHandler marks an order's live code as verified.
// Verification never moves custody.
type VerifyTransferCodeCommandHandler struct {
	uowFactory UoWFactory
	retrier    RevisionRetrier
	clock      kernel.Clock
	logger     *slog.Logger
}

func NewVerifyTransferCodeCommandHandler(
	uowFactory UoWFactory,
	retrier RevisionRetrier,
	clock kernel.Clock,
	logger *slog.Logger,
) VerifyTransferCodeCommandHandler {
	return VerifyTransferCodeCommandHandler{
		uowFactory: uowFactory,
		retrier:    retrier,
		clock:      clock,
		logger:     logger.With("component", "verify_transfer_code"),
	}
}

func (h *VerifyTransferCodeCommandHandler) Handle(ctx context.Context, cmd VerifyTransferCodeCommand) (order.TransferCode, error) {
	if err := cmd.Validate(); err != nil {
		return order.TransferCode{}, err
	}

	var code order.TransferCode
	err := h.retrier.Do(ctx, "verify_transfer_code", func() error {
		uow := h.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return err
		}
		defer func() {
			_ = uow.Rollback(ctx)
		}()

		o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
		if err != nil {
			return err
		}
		if !o.IsParticipant(cmd.Caller().ID()) {
			return errs.NewForbiddenError("verify transfer code", "caller is not on the custody chain")
		}

		if err = o.VerifyTransferCode(cmd.Code(), h.clock.Now()); err != nil {
			return err
		}
		code, _ = o.TransferCode()

		if err = uow.OrderRepository().Update(ctx, o); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})
	if err != nil {
		h.logger.InfoContext(ctx, "transfer code rejected",
			"order_id", cmd.OrderID().String(), "party_id", cmd.Caller().ID().String(), "error", err)
		return order.TransferCode{}, err
	}

	h.logger.InfoContext(ctx, "transfer code verified",
		"order_id", cmd.OrderID().String(), "hop", code.TargetHop())
	return code, nil
}
