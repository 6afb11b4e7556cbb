package token

import (
	"time"

	catauthz "github.com/pthm/catauthz"
)

const cookieName = "ds_actor"
const cookieNamespace = "actor"

type cookiePayload struct {
	A map[string]any `json:"a"`
	E string         `json:"e,omitempty"`
}

// ActorFromCookie mirrors Datasette's actor_from_cookie: looks for ds_actor,
// verifies it in the "actor" namespace, and enforces the optional
// base62-encoded expiry. Any failure (cookie absent, bad signature,
// malformed payload, expired) returns (nil, false) rather than an error.
func ActorFromCookie(signer *Signer, cookies map[string]string) (catauthz.Actor, bool) {
	raw, ok := cookies[cookieName]
	if !ok {
		return nil, false
	}

	var payload cookiePayload
	if err := signer.Unsign(cookieNamespace, raw, &payload); err != nil {
		return nil, false
	}
	if payload.A == nil {
		return nil, false
	}

	if payload.E != "" {
		expiresAt, ok := base62Decode(payload.E)
		if !ok {
			return nil, false
		}
		if time.Now().Unix() > expiresAt {
			return nil, false
		}
	}

	return catauthz.Actor(payload.A), true
}

// SignActorCookie is the inverse of ActorFromCookie, for code that needs to
// mint a ds_actor cookie value (tests, a login flow living outside this
// package's scope).
func SignActorCookie(signer *Signer, actor catauthz.Actor, expiresAt *time.Time) (string, error) {
	payload := cookiePayload{A: map[string]any(actor)}
	if expiresAt != nil {
		payload.E = base62Encode(expiresAt.Unix())
	}
	return signer.Sign(cookieNamespace, payload)
}
