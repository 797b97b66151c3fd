// Package catalog holds the read-only product view the custody system needs:
// who sells a product and which coordinator routes its orders.
package catalog
