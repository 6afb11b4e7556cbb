// Package token extracts actor records from signed cookies and bearer
// tokens, mirroring Datasette's cookie and bearer actor_from_request hooks.
// Every failure mode here is silent: a bad signature, a malformed payload, or
// an expired token all just mean "no actor", never a surfaced error.
package token

import (
	"github.com/gorilla/securecookie"
)

// Signer signs and verifies namespaced payloads, the Go analogue of
// itsdangerous's URLSafeTimedSerializer. Implemented with
// gorilla/securecookie rather than hand-rolled HMAC so that signing is an
// ecosystem primitive, not a bespoke one.
type Signer struct {
	sc *securecookie.SecureCookie
}

// NewSigner builds a Signer from a hash key (required, HMAC) and an
// optional block key (AES, for encryption on top of authentication). Pass
// nil blockKey to sign-only, matching itsdangerous's default behaviour.
func NewSigner(hashKey, blockKey []byte) *Signer {
	sc := securecookie.New(hashKey, blockKey)
	sc.SetSerializer(securecookie.JSONEncoder{})
	return &Signer{sc: sc}
}

// Sign encodes payload under the given namespace.
func (s *Signer) Sign(namespace string, payload any) (string, error) {
	return s.sc.Encode(namespace, payload)
}

// Unsign decodes a token produced by Sign for the same namespace into dst.
// It fails (a securecookie.Error, treated as BadSignature by callers in this
// package) if the namespace doesn't match, the MAC is invalid, or the token
// is malformed.
func (s *Signer) Unsign(namespace, tok string, dst any) error {
	return s.sc.Decode(namespace, tok, dst)
}
