package ports

import (
	"context"
)

// HopView is the anchored projection of one hop.
type HopView struct {
	Owner         string `json:"owner"`
	ReceiveStatus bool   `json:"receive_status"`
	GiveStatus    bool   `json:"give_status"`
}

// AnchorRequest is one submission to the content-anchor store.
type AnchorRequest struct {
	// IdempotencyKey is stable for the same order and track state.
	IdempotencyKey string
	OrderID        string
	Track          []HopView
}

// AnchorClient uploads track snapshots to a write-once content-addressed
// store and returns the content identifier.
type AnchorClient interface {
	Upload(ctx context.Context, request AnchorRequest) (string, error)
}
