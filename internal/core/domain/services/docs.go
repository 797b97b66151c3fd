// Package services provides domain services that coordinate business rules
// spanning more than one aggregate of the custody system.
//
// The package includes:
//   - ChainBuilder: validates intermediaries against the party directory and
//     materializes an order's custody chain
//   - QueueProjector: derives the per-party pending delivery projections from
//     the canonical order
//
// Domain services are stateless; callers load the aggregates, hand them over
// and persist the results.
package services
