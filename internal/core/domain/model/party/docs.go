// Package party models the participants known to the custody system: buyers,
// sellers, middlemen and coordinators. Parties are owned by the identity
// collaborator; this package only mirrors the fields custody rules depend on.
package party
