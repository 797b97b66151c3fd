package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"custody/internal/core/domain/model/party"
	"custody/internal/pkg/errs"
)

type RegisterPartyCommandHandler struct {
	uowFactory UoWFactory
	logger     *slog.Logger
}

func NewRegisterPartyCommandHandler(uowFactory UoWFactory, logger *slog.Logger) RegisterPartyCommandHandler {
	return RegisterPartyCommandHandler{
		uowFactory: uowFactory,
		logger:     logger.With("component", "register_party"),
	}
}

// Handle creates or renames the caller's directory entry. A party keeps the
// role it registered with; a token asserting another role is rejected.
func (h *RegisterPartyCommandHandler) Handle(ctx context.Context, cmd RegisterPartyCommand) (party.Party, error) {
	if err := cmd.Validate(); err != nil {
		return party.Party{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return party.Party{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	directory := uow.PartyDirectory()
	existing, err := directory.Get(ctx, cmd.Caller().ID())
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
	case err != nil:
		return party.Party{}, err
	case existing.Role() != cmd.Caller().Role():
		return party.Party{}, errs.NewConflictError("role",
			fmt.Sprintf("party is registered as %s, not %s", existing.Role(), cmd.Caller().Role()))
	}

	p, err := party.NewParty(cmd.Caller().ID(), cmd.Name(), cmd.Caller().Role())
	if err != nil {
		return party.Party{}, err
	}
	if err = directory.Save(ctx, p); err != nil {
		return party.Party{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return party.Party{}, err
	}

	h.logger.InfoContext(ctx, "party registered", "party_id", p.ID().String(), "role", p.Role().String())
	return p, nil
}
