package token

import (
	"strings"
	"time"

	catauthz "github.com/pthm/catauthz"
)

const bearerPrefix = "Bearer "
const tokenPrefix = "dstok_"
const tokenNamespace = "token"

type bearerPayload struct {
	A string         `json:"a"`
	T int64          `json:"t"`
	D *int64         `json:"d,omitempty"`
	R map[string]any `json:"_r,omitempty"`
}

// BearerOptions configures ActorFromBearer with the engine-wide token
// settings (allow_signed_tokens, max_signed_tokens_ttl).
type BearerOptions struct {
	// AllowSignedTokens gates the whole mechanism (allow_signed_tokens).
	AllowSignedTokens bool
	// MaxTTL caps the token's duration, and is applied even when the token
	// specified no duration of its own (max_signed_tokens_ttl). Zero means
	// no cap.
	MaxTTL int64
}

// ActorFromBearer mirrors Datasette's actor_from_bearer. All failure modes
// (disabled, missing/malformed header, bad signature, bad timestamp,
// expired) return (nil, false).
func ActorFromBearer(signer *Signer, authorization string, opts BearerOptions) (catauthz.Actor, bool) {
	if !opts.AllowSignedTokens {
		return nil, false
	}
	if authorization == "" || !strings.HasPrefix(authorization, bearerPrefix) {
		return nil, false
	}
	tok := strings.TrimPrefix(authorization, bearerPrefix)
	if !strings.HasPrefix(tok, tokenPrefix) {
		return nil, false
	}
	tok = strings.TrimPrefix(tok, tokenPrefix)

	var payload bearerPayload
	if err := signer.Unsign(tokenNamespace, tok, &payload); err != nil {
		return nil, false
	}
	if payload.T == 0 {
		return nil, false
	}

	duration := payload.D
	if opts.MaxTTL > 0 {
		if duration == nil || *duration > opts.MaxTTL {
			capped := opts.MaxTTL
			duration = &capped
		}
	}

	if duration != nil {
		if time.Now().Unix()-payload.T > *duration {
			return nil, false
		}
	}

	actor := catauthz.Actor{
		"id":    payload.A,
		"token": "dstok",
	}
	if payload.R != nil {
		actor["_r"] = payload.R
	}
	if duration != nil {
		actor["token_expires"] = payload.T + *duration
	}
	return actor, true
}

// SignBearerToken is the inverse of ActorFromBearer, producing a
// "dstok_<signed>" value (without the "Bearer " prefix) for tests or a
// token-issuance flow living outside this package's scope.
func SignBearerToken(signer *Signer, actorID string, issuedAt time.Time, duration *int64, restrictions map[string]any) (string, error) {
	payload := bearerPayload{A: actorID, T: issuedAt.Unix(), D: duration, R: restrictions}
	signed, err := signer.Sign(tokenNamespace, payload)
	if err != nil {
		return "", err
	}
	return tokenPrefix + signed, nil
}
