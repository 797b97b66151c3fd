package order

import (
	"errors"
	"fmt"
	"time"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// Order is the aggregate root tracking custody of one purchased good.
//
// Order follows these invariants:
//   - Buyer and seller are different parties
//   - Quantity is positive
//   - Before acceptance the track is empty and the seller holds the good
//   - After acceptance the current holder owns exactly one hop of the track
//   - At most one transfer code is live
type Order struct {
	id          kernel.UUID
	productID   kernel.UUID
	quantity    int
	buyer       kernel.UUID
	seller      kernel.UUID
	coordinator kernel.UUID

	currentHolder kernel.UUID
	track         []Hop
	workflow      WorkflowStatus
	delivery      DeliveryStatus
	transferCode  *TransferCode
	anchorID      string

	// revision is the committed revision this instance was loaded with.
	revision      int64
	isConstructed bool
}

// Transfer describes one successful custody advance.
type Transfer struct {
	From      int
	To        int
	FromOwner kernel.UUID
	ToOwner   kernel.UUID
	Delivered bool
}

// Snapshot carries every field of an Order for persistence adapters.
type Snapshot struct {
	ID            kernel.UUID
	ProductID     kernel.UUID
	Quantity      int
	Buyer         kernel.UUID
	Seller        kernel.UUID
	Coordinator   kernel.UUID
	CurrentHolder kernel.UUID
	Track         []Hop
	Workflow      WorkflowStatus
	Delivery      DeliveryStatus
	TransferCode  *TransferCode
	AnchorID      string
	Revision      int64
}

// NewOrder creates a pending, in-transit order held by the seller and
// without a track.
//
// Example:
//
//	o, err := order.NewOrder(kernel.NewUUID(), productID, 2, buyerID, sellerID, coordinatorID)
//	if err != nil {
//	    return err
//	}
func NewOrder(id, productID kernel.UUID, quantity int, buyer, seller, coordinator kernel.UUID) (*Order, error) {
	return RestoreOrder(Snapshot{
		ID:            id,
		ProductID:     productID,
		Quantity:      quantity,
		Buyer:         buyer,
		Seller:        seller,
		Coordinator:   coordinator,
		CurrentHolder: seller,
		Workflow:      Pending,
		Delivery:      InTransit,
	})
}

// RestoreOrder rebuilds an order from storage and re-checks its invariants.
func RestoreOrder(s Snapshot) (*Order, error) {
	o := &Order{isConstructed: true}

	if err := errors.Join(
		o.setIdentity(s.ID, s.ProductID),
		o.setQuantity(s.Quantity),
		o.setParties(s.Buyer, s.Seller, s.Coordinator),
		s.Workflow.Validate(),
		s.Delivery.Validate(),
	); err != nil {
		return nil, err
	}
	o.workflow = s.Workflow
	o.delivery = s.Delivery
	o.anchorID = s.AnchorID
	o.revision = s.Revision

	if err := o.setTrack(s.Track, s.CurrentHolder); err != nil {
		return nil, err
	}
	if s.TransferCode != nil {
		if err := s.TransferCode.Validate(); err != nil {
			return nil, err
		}
		code := *s.TransferCode
		o.transferCode = &code
	}

	return o, nil
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) ProductID() kernel.UUID {
	return o.productID
}

func (o *Order) Quantity() int {
	return o.quantity
}

func (o *Order) Buyer() kernel.UUID {
	return o.buyer
}

func (o *Order) Seller() kernel.UUID {
	return o.seller
}

func (o *Order) Coordinator() kernel.UUID {
	return o.coordinator
}

func (o *Order) CurrentHolder() kernel.UUID {
	return o.currentHolder
}

func (o *Order) WorkflowStatus() WorkflowStatus {
	return o.workflow
}

func (o *Order) DeliveryStatus() DeliveryStatus {
	return o.delivery
}

func (o *Order) AnchorID() string {
	return o.anchorID
}

func (o *Order) Revision() int64 {
	return o.revision
}

// TransferCode returns the live code, if any.
func (o *Order) TransferCode() (TransferCode, bool) {
	if o.transferCode == nil {
		return TransferCode{}, false
	}
	return *o.transferCode, true
}

// Track returns a copy of the hops in custody order.
func (o *Order) Track() []Hop {
	track := make([]Hop, len(o.track))
	copy(track, o.track)
	return track
}

// Owners returns the hop owners in custody order.
func (o *Order) Owners() []kernel.UUID {
	owners := make([]kernel.UUID, 0, len(o.track))
	for _, h := range o.track {
		owners = append(owners, h.owner)
	}
	return owners
}

// IndexOf returns the hop index owned by party, or -1.
func (o *Order) IndexOf(party kernel.UUID) int {
	for i, h := range o.track {
		if h.owner.IsEqual(party) {
			return i
		}
	}
	return -1
}

// Frontier returns the index of the current holder's hop, or -1 while the
// track is not built.
func (o *Order) Frontier() int {
	return o.IndexOf(o.currentHolder)
}

// IsParticipant reports whether party owns a hop of the track.
func (o *Order) IsParticipant(party kernel.UUID) bool {
	return o.IndexOf(party) >= 0
}

// IsVisibleTo reports whether party may read the order.
func (o *Order) IsVisibleTo(party kernel.UUID) bool {
	return o.buyer.IsEqual(party) || o.seller.IsEqual(party) || o.coordinator.IsEqual(party) || o.IsParticipant(party)
}

func (o *Order) IsDelivered() bool {
	return o.delivery == Delivered
}

// BuildTrack materializes the custody chain: seller, then intermediaries in
// the given order, then buyer. The order becomes Accepted.
//
// Intermediaries must be distinct and must be neither the seller nor the
// buyer, so that every party owns at most one hop.
func (o *Order) BuildTrack(intermediaries []kernel.UUID) error {
	accepted, err := o.workflow.Accept()
	if err != nil {
		return err
	}
	if len(o.track) != 0 {
		return errs.NewConflictError("track", "custody chain is already built")
	}

	seen := map[kernel.UUID]struct{}{o.seller: {}, o.buyer: {}}
	track := make([]Hop, 0, len(intermediaries)+2)
	track = append(track, Hop{owner: o.seller, received: true, given: false})
	for i, m := range intermediaries {
		if err = m.Validate(); err != nil {
			return errs.NewValueIsInvalidErrorWithCause(fmt.Sprintf("intermediaries[%d]", i), err)
		}
		if _, dup := seen[m]; dup {
			return errs.NewValueIsInvalidErrorWithCause(
				fmt.Sprintf("intermediaries[%d]", i),
				fmt.Errorf("%s already appears on the custody chain", m),
			)
		}
		seen[m] = struct{}{}
		track = append(track, Hop{owner: m})
	}
	track = append(track, Hop{owner: o.buyer, received: false, given: true})

	o.track = track
	o.currentHolder = o.seller
	o.workflow = accepted
	return nil
}

// Advance moves custody from the current holder to the next hop. When every
// hop is complete afterwards the order becomes Delivered and its transfer code
// is dropped.
func (o *Order) Advance() (Transfer, error) {
	i := o.Frontier()
	if i < 0 {
		return Transfer{}, errs.NewTerminalStateError(o.id, "current holder is not on the custody chain")
	}
	if i == len(o.track)-1 {
		return Transfer{}, errs.NewTerminalStateError(o.id, "current holder is the last hop of the custody chain")
	}

	o.track[i].given = true
	o.track[i+1].received = true
	o.currentHolder = o.track[i+1].owner

	transfer := Transfer{
		From:      i,
		To:        i + 1,
		FromOwner: o.track[i].owner,
		ToOwner:   o.track[i+1].owner,
	}

	if o.isTrackComplete() {
		delivered, err := o.delivery.Deliver()
		if err != nil {
			return Transfer{}, err
		}
		o.delivery = delivered
		o.transferCode = nil
		transfer.Delivered = true
	}

	return transfer, nil
}

// IssueTransferCode stores a fresh code authorising the hop after the
// requester's own, replacing any previous code.
func (o *Order) IssueTransferCode(requester kernel.UUID, digits string, now time.Time) (TransferCode, error) {
	i := o.IndexOf(requester)
	if i < 0 {
		return TransferCode{}, errs.NewForbiddenError("issue transfer code", "requester is not on the custody chain")
	}
	if i == len(o.track)-1 {
		return TransferCode{}, errs.NewTerminalStateError(o.id, "requester holds the last hop, there is no hop to authorise")
	}

	code, err := NewTransferCode(digits, now, i+1)
	if err != nil {
		return TransferCode{}, err
	}
	o.transferCode = &code
	return code, nil
}

// VerifyTransferCode marks the live code as verified. It does not move
// custody and can be repeated while the code is valid.
func (o *Order) VerifyTransferCode(digits string, now time.Time) error {
	if o.transferCode == nil {
		return errs.NewConflictError("transfer code", "no transfer code has been issued for this order")
	}
	if !o.transferCode.Matches(digits) {
		return errs.NewConflictError("transfer code", "code does not match")
	}
	if o.transferCode.IsExpired(now) {
		return errs.NewConflictError("transfer code", "code has expired")
	}
	o.transferCode.verified = true
	return nil
}

// ConsumeTransferCode requires a verified code for the hop right after the
// frontier and clears it.
func (o *Order) ConsumeTransferCode() error {
	if o.transferCode == nil || !o.transferCode.verified {
		return errs.NewConflictError("transfer code", "custody can only move with a verified transfer code")
	}
	if o.transferCode.targetHop != o.Frontier()+1 {
		return errs.NewConflictError(
			"transfer code",
			fmt.Sprintf("code authorises hop %d, next hop is %d", o.transferCode.targetHop, o.Frontier()+1),
		)
	}
	o.transferCode = nil
	return nil
}

// RecordAnchor stores the content identifier of the latest anchored track.
func (o *Order) RecordAnchor(anchorID string) error {
	if anchorID == "" {
		return errs.NewValueIsRequiredError("anchorID")
	}
	o.anchorID = anchorID
	return nil
}

// MarkCommitted is called by repositories once a conditional write of this
// instance succeeded.
func (o *Order) MarkCommitted() {
	o.revision++
}

// Snapshot exports the full state for persistence.
func (o *Order) Snapshot() Snapshot {
	var code *TransferCode
	if o.transferCode != nil {
		c := *o.transferCode
		code = &c
	}
	return Snapshot{
		ID:            o.id,
		ProductID:     o.productID,
		Quantity:      o.quantity,
		Buyer:         o.buyer,
		Seller:        o.seller,
		Coordinator:   o.coordinator,
		CurrentHolder: o.currentHolder,
		Track:         o.Track(),
		Workflow:      o.workflow,
		Delivery:      o.delivery,
		TransferCode:  code,
		AnchorID:      o.anchorID,
		Revision:      o.revision,
	}
}

func (o *Order) isTrackComplete() bool {
	for _, h := range o.track {
		if !h.IsComplete() {
			return false
		}
	}
	return len(o.track) > 0
}

func (o *Order) setIdentity(id, productID kernel.UUID) error {
	if err := errors.Join(id.Validate(), productID.Validate()); err != nil {
		return err
	}
	o.id = id
	o.productID = productID
	return nil
}

func (o *Order) setQuantity(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity is invalid", fmt.Errorf("%d is not greater than 0", quantity))
	}
	o.quantity = quantity
	return nil
}

func (o *Order) setParties(buyer, seller, coordinator kernel.UUID) error {
	if err := errors.Join(buyer.Validate(), seller.Validate(), coordinator.Validate()); err != nil {
		return err
	}
	if buyer.IsEqual(seller) {
		return errs.NewValueIsInvalidErrorWithCause("buyer", errors.New("buyer and seller must be different parties"))
	}
	o.buyer = buyer
	o.seller = seller
	o.coordinator = coordinator
	return nil
}

// setTrack must run after setParties and the status setters.
func (o *Order) setTrack(track []Hop, holder kernel.UUID) error {
	if err := holder.Validate(); err != nil {
		return err
	}

	if len(track) == 0 {
		if o.workflow != Pending {
			return errs.NewValueIsInvalidErrorWithCause("track", errors.New("accepted order must have a custody chain"))
		}
		if !holder.IsEqual(o.seller) {
			return errs.NewValueIsInvalidErrorWithCause("currentHolder", errors.New("seller holds the good until the chain is built"))
		}
		o.currentHolder = holder
		return nil
	}

	if o.workflow != Accepted {
		return errs.NewValueIsInvalidErrorWithCause("track", errors.New("pending order must not have a custody chain"))
	}
	if len(track) < 2 || !track[0].owner.IsEqual(o.seller) || !track[len(track)-1].owner.IsEqual(o.buyer) {
		return errs.NewValueIsInvalidErrorWithCause("track", errors.New("custody chain must run from seller to buyer"))
	}

	holders := 0
	for _, h := range track {
		if err := h.owner.Validate(); err != nil {
			return err
		}
		if h.owner.IsEqual(holder) {
			holders++
		}
	}
	if holders != 1 {
		return errs.NewValueIsInvalidErrorWithCause("currentHolder", fmt.Errorf("holder owns %d hops, expected exactly one", holders))
	}

	o.track = make([]Hop, len(track))
	copy(o.track, track)
	o.currentHolder = holder
	return nil
}
