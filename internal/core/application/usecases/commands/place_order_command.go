package commands

import (
	"errors"
	"fmt"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/pkg/errs"
	"custody/internal/pkg/guard"
)

var ErrPlaceOrderCommandIsNotConstructed = errors.New(
	"PlaceOrderCommand must be created via NewPlaceOrderCommand constructor",
)

// PlaceOrderCommand represents a buyer ordering a quantity of a product.
//
// Example:
//
//	cmd, err := NewPlaceOrderCommand(caller, kernel.NewUUID(), productID, 2)
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//	o, err := handler.Handle(ctx, cmd)
type PlaceOrderCommand struct { //nolint:recvcheck //using for validation
	caller    kernel.Caller
	orderID   kernel.UUID
	productID kernel.UUID
	quantity  int

	guard guard.ConstructorGuard
}

func NewPlaceOrderCommand(caller kernel.Caller, orderID, productID kernel.UUID, quantity int) (PlaceOrderCommand, error) {
	cmd := PlaceOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setCaller(caller),
		cmd.setIDs(orderID, productID),
		cmd.setQuantity(quantity),
	); err != nil {
		return PlaceOrderCommand{}, err
	}

	return cmd, nil
}

func (c PlaceOrderCommand) Validate() error {
	return c.guard.Validate(ErrPlaceOrderCommandIsNotConstructed)
}

func (c PlaceOrderCommand) Caller() kernel.Caller {
	return c.caller
}

func (c PlaceOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c PlaceOrderCommand) ProductID() kernel.UUID {
	return c.productID
}

func (c PlaceOrderCommand) Quantity() int {
	return c.quantity
}

func (c *PlaceOrderCommand) setCaller(caller kernel.Caller) error {
	if err := caller.Validate(); err != nil {
		return err
	}
	c.caller = caller
	return nil
}

func (c *PlaceOrderCommand) setIDs(orderID, productID kernel.UUID) error {
	if err := errors.Join(orderID.Validate(), productID.Validate()); err != nil {
		return err
	}
	c.orderID = orderID
	c.productID = productID
	return nil
}

func (c *PlaceOrderCommand) setQuantity(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is not greater than 0", quantity))
	}
	c.quantity = quantity
	return nil
}
