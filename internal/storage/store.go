// Package storage provides the persistent key-value store behind tokens,
// the cart, and checkout drafts.
//
// The contract is deliberately fail-safe: no operation ever returns an
// error. Serialization problems, missing files, unreachable backends and
// corrupted payloads are logged and treated as "no data", so corrupted
// persisted state can never crash the client.
package storage

// Domain names one independently stored slot. Each domain is saved and
// cleared as a whole document, which keeps multi-field invariants (such as
// the access/refresh token pair) atomic at the storage layer.
type Domain string

const (
	DomainAuthTokens Domain = "auth_tokens"
	DomainCart       Domain = "shopping_cart"
	DomainCheckout   Domain = "checkout_data"
)

// Store persists JSON documents per domain.
type Store interface {
	// Save serializes v into the domain's slot. Failures are swallowed.
	Save(domain Domain, v any)

	// Load deserializes the domain's slot into out and reports whether a
	// usable value was found. Missing or corrupt data yields false with
	// out untouched.
	Load(domain Domain, out any) bool

	// Clear removes the domain's slot.
	Clear(domain Domain)
}
