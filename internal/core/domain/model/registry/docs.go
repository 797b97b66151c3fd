// Package registry defines the per-party work queue projections.
//
// A PendingRequest marks an order waiting for its coordinator to build the
// custody chain. A PendingDelivery mirrors the hop flags a party holds on an
// order that is still in transit. Both are derived data: they can always be
// recomputed from the canonical order.
package registry
