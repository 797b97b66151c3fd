package http

import (
	"time"

	"custody/internal/core/application/usecases/commands"
	"custody/internal/core/application/usecases/queries"
	"custody/internal/core/domain/model/order"
)

// Request bodies.
type (
	RegisterPartyRequest struct {
		Name string `json:"name"`
	}

	AddProductRequest struct {
		ProductID     string `json:"product_id"`
		Name          string `json:"name"`
		CoordinatorID string `json:"coordinator_id"`
	}

	PlaceOrderRequest struct {
		OrderID   string `json:"order_id"`
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}

	BuildCustodyChainRequest struct {
		Intermediaries []string `json:"intermediaries"`
	}

	VerifyTransferCodeRequest struct {
		Code string `json:"code"`
	}
)

type RegisteredParty struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type ListedProduct struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	SellerID      string `json:"seller_id"`
	CoordinatorID string `json:"coordinator_id"`
}

type Party struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type Product struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type Hop struct {
	Owner         Party `json:"owner"`
	ReceiveStatus bool  `json:"receive_status"`
	GiveStatus    bool  `json:"give_status"`
}

type Order struct {
	ID             string  `json:"id"`
	Product        Product `json:"product"`
	Quantity       int     `json:"quantity"`
	Buyer          Party   `json:"buyer"`
	Seller         Party   `json:"seller"`
	Coordinator    Party   `json:"coordinator"`
	CurrentHolder  Party   `json:"current_holder"`
	WorkflowStatus string  `json:"workflow_status"`
	DeliveryStatus string  `json:"delivery_status"`
	Track          []Hop   `json:"track"`
	AnchorID       string  `json:"anchor_id,omitempty"`
	Revision       int64   `json:"revision"`
}

type CustodyChain struct {
	OrderID       string `json:"order_id"`
	CurrentHolder Party  `json:"current_holder"`
	Frontier      int    `json:"frontier"`
	Track         []Hop  `json:"track"`
	AnchorID      string `json:"anchor_id,omitempty"`
}

type Transfer struct {
	From      int    `json:"from"`
	To        int    `json:"to"`
	FromOwner string `json:"from_owner"`
	ToOwner   string `json:"to_owner"`
	Delivered bool   `json:"delivered"`
}

type AdvanceResult struct {
	Order    Order    `json:"order"`
	Transfer Transfer `json:"transfer"`
}

// IssuedTransferCode is returned only to the party that generated it.
type IssuedTransferCode struct {
	Code      string    `json:"code"`
	TargetHop int       `json:"target_hop"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type VerifiedTransferCode struct {
	TargetHop int       `json:"target_hop"`
	Verified  bool      `json:"verified"`
	ExpiresAt time.Time `json:"expires_at"`
}

type TransferCodeAudit struct {
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	TargetHop int       `json:"target_hop"`
	Verified  bool      `json:"verified"`
	Expired   bool      `json:"expired"`
}

type TransferAudit struct {
	OrderID       string             `json:"order_id"`
	Product       Product            `json:"product"`
	CurrentHolder Party              `json:"current_holder"`
	Track         []Hop              `json:"track"`
	AnchorID      string             `json:"anchor_id,omitempty"`
	TransferCode  *TransferCodeAudit `json:"transfer_code"`
}

type PendingRequest struct {
	OrderID     string    `json:"order_id"`
	RequestedAt time.Time `json:"requested_at"`
	Product     Product   `json:"product"`
	Quantity    int       `json:"quantity"`
	Buyer       Party     `json:"buyer"`
	Seller      Party     `json:"seller"`
}

type PendingDelivery struct {
	OrderID       string  `json:"order_id"`
	ReceiveStatus bool    `json:"receive_status"`
	GiveStatus    bool    `json:"give_status"`
	Product       Product `json:"product"`
	CurrentHolder Party   `json:"current_holder"`
}

// Mapping from use case results.

func partyOf(ref queries.PartyRef) Party {
	return Party{ID: ref.ID.String(), Name: ref.Name}
}

func productOf(ref queries.ProductRef) Product {
	return Product{ID: ref.ID.String(), Name: ref.Name}
}

func hopsOf(track []queries.HopResponse) []Hop {
	hops := make([]Hop, len(track))
	for i, h := range track {
		hops[i] = Hop{Owner: partyOf(h.Party), ReceiveStatus: h.Received, GiveStatus: h.Given}
	}
	return hops
}

// orderOf maps an aggregate returned by a command. Names are not resolved.
func orderOf(o *order.Order) Order {
	track := o.Track()
	hops := make([]Hop, len(track))
	for i, h := range track {
		hops[i] = Hop{Owner: Party{ID: h.Owner().String()}, ReceiveStatus: h.Received(), GiveStatus: h.Given()}
	}
	return Order{
		ID:             o.ID().String(),
		Product:        Product{ID: o.ProductID().String()},
		Quantity:       o.Quantity(),
		Buyer:          Party{ID: o.Buyer().String()},
		Seller:         Party{ID: o.Seller().String()},
		Coordinator:    Party{ID: o.Coordinator().String()},
		CurrentHolder:  Party{ID: o.CurrentHolder().String()},
		WorkflowStatus: o.WorkflowStatus().String(),
		DeliveryStatus: o.DeliveryStatus().String(),
		Track:          hops,
		AnchorID:       o.AnchorID(),
		Revision:       o.Revision(),
	}
}

func custodyOf(result commands.CustodyResult) *Order {
	if result.Order == nil {
		return nil
	}
	o := orderOf(result.Order)
	if result.AnchorID != "" {
		o.AnchorID = result.AnchorID
	}
	return &o
}

func advanceOf(result commands.AdvanceResult) *AdvanceResult {
	o := custodyOf(result.CustodyResult)
	if o == nil {
		return nil
	}
	t := result.Transfer
	return &AdvanceResult{
		Order: *o,
		Transfer: Transfer{
			From:      t.From,
			To:        t.To,
			FromOwner: t.FromOwner.String(),
			ToOwner:   t.ToOwner.String(),
			Delivered: t.Delivered,
		},
	}
}

func queriedOrderOf(r queries.GetOrderQueryResponse) Order {
	return Order{
		ID:             r.ID.String(),
		Product:        productOf(r.Product),
		Quantity:       r.Quantity,
		Buyer:          partyOf(r.Buyer),
		Seller:         partyOf(r.Seller),
		Coordinator:    partyOf(r.Coordinator),
		CurrentHolder:  partyOf(r.CurrentHolder),
		WorkflowStatus: r.WorkflowStatus,
		DeliveryStatus: r.DeliveryStatus,
		Track:          hopsOf(r.Track),
		AnchorID:       r.AnchorID,
		Revision:       r.Revision,
	}
}
