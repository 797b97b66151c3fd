// Package order provides the Order aggregate: the canonical record of who
// physically holds a purchased good and how it moves along its custody chain.
//
// The package includes:
//   - Order: the aggregate root holding the track, the current holder pointer,
//     the workflow and delivery statuses, the live transfer code and the last
//     anchor identifier
//   - Hop: one position on the track with its receive and give flags
//   - TransferCode: the short lived one-time code bound to the next hop
//   - WorkflowStatus and DeliveryStatus: the two small state machines of an order
//
// Key business rules:
//   - The track is [seller] + intermediaries (in the given order) + [buyer]
//   - The seller hop starts as received, the buyer hop starts as given
//   - The current holder always owns exactly one hop and only moves forward by one
//   - Once every hop is received and given the order is delivered
//   - Only one transfer code is live per order and it expires after 15 minutes
//
// Every mutation bumps the revision on commit; repositories refuse writes made
// against a stale revision.
package order
