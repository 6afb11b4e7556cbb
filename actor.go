package catauthz

// Actor is an opaque record evaluated against rules. It carries no identity
// or session logic of its own; the engine only reads a handful of recognised
// keys and passes the rest through untouched to providers.
type Actor map[string]any

// ID returns the actor's "id" key, or "" if absent or not a string.
func (a Actor) ID() string {
	v, _ := a["id"].(string)
	return v
}

// TokenSource returns the "token" key set by the token extractor (e.g.
// "dstok"), or "" if the actor was not produced by a token.
func (a Actor) TokenSource() string {
	v, _ := a["token"].(string)
	return v
}

// TokenExpires returns the advisory "token_expires" Unix-seconds value and
// whether it was present.
func (a Actor) TokenExpires() (int64, bool) {
	switch v := a["token_expires"].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// Restrictions parses the actor's "_r" key, if present, into a Restrictions
// value. An actor with no "_r" key has no restrictions: the result is the
// zero value (for which IsEmpty reports true) and false.
func (a Actor) Restrictions() (Restrictions, bool) {
	raw, ok := a["_r"]
	if !ok || raw == nil {
		return Restrictions{}, false
	}
	return ParseRestrictions(raw), true
}

// IsRoot reports whether the actor's id is exactly "root", the sentinel
// checked by the root-user provider.
func (a Actor) IsRoot() bool {
	return a.ID() == "root"
}
