package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSigner() *Signer {
	return NewSigner([]byte("0123456789abcdef0123456789abcdef"), nil)
}

func TestBase62_RoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, 61, 62, 12345, 999999999} {
		enc := base62Encode(n)
		dec, ok := base62Decode(enc)
		require.True(t, ok)
		assert.Equal(t, n, dec)
	}
}

func TestBase62_DecodeRejectsGarbage(t *testing.T) {
	_, ok := base62Decode("not!valid")
	assert.False(t, ok)
	_, ok = base62Decode("")
	assert.False(t, ok)
}

func TestSigner_RoundTrip(t *testing.T) {
	s := testSigner()
	type payload struct {
		A string `json:"a"`
	}
	signed, err := s.Sign("ns1", payload{A: "hello"})
	require.NoError(t, err)

	var out payload
	require.NoError(t, s.Unsign("ns1", signed, &out))
	assert.Equal(t, "hello", out.A)
}

func TestSigner_NamespaceMismatchFails(t *testing.T) {
	s := testSigner()
	signed, err := s.Sign("ns1", map[string]string{"a": "hello"})
	require.NoError(t, err)

	var out map[string]string
	err = s.Unsign("ns2", signed, &out)
	assert.Error(t, err)
}

func TestActorFromCookie_RoundTrip(t *testing.T) {
	s := testSigner()
	actor := map[string]any{"id": "alice"}
	signed, err := SignActorCookie(s, actor, nil)
	require.NoError(t, err)

	got, ok := ActorFromCookie(s, map[string]string{"ds_actor": signed})
	require.True(t, ok)
	assert.Equal(t, "alice", got.ID())
}

func TestActorFromCookie_AbsentCookie(t *testing.T) {
	s := testSigner()
	_, ok := ActorFromCookie(s, map[string]string{})
	assert.False(t, ok)
}

func TestActorFromCookie_BadSignatureIsSilent(t *testing.T) {
	s := testSigner()
	_, ok := ActorFromCookie(s, map[string]string{"ds_actor": "garbage-not-signed"})
	assert.False(t, ok)
}

func TestActorFromCookie_ExpiredIsSilent(t *testing.T) {
	s := testSigner()
	past := time.Now().Add(-time.Hour)
	signed, err := SignActorCookie(s, map[string]any{"id": "alice"}, &past)
	require.NoError(t, err)

	_, ok := ActorFromCookie(s, map[string]string{"ds_actor": signed})
	assert.False(t, ok)
}

func TestActorFromCookie_FutureExpiryIsHonored(t *testing.T) {
	s := testSigner()
	future := time.Now().Add(time.Hour)
	signed, err := SignActorCookie(s, map[string]any{"id": "alice"}, &future)
	require.NoError(t, err)

	got, ok := ActorFromCookie(s, map[string]string{"ds_actor": signed})
	require.True(t, ok)
	assert.Equal(t, "alice", got.ID())
}

func TestActorFromBearer_RoundTrip(t *testing.T) {
	s := testSigner()
	signed, err := SignBearerToken(s, "alice", time.Now(), nil, nil)
	require.NoError(t, err)

	actor, ok := ActorFromBearer(s, "Bearer "+signed, BearerOptions{AllowSignedTokens: true})
	require.True(t, ok)
	assert.Equal(t, "alice", actor.ID())
	assert.Equal(t, "dstok", actor.TokenSource())
}

func TestActorFromBearer_DisabledReturnsNoActor(t *testing.T) {
	s := testSigner()
	signed, err := SignBearerToken(s, "alice", time.Now(), nil, nil)
	require.NoError(t, err)

	_, ok := ActorFromBearer(s, "Bearer "+signed, BearerOptions{AllowSignedTokens: false})
	assert.False(t, ok)
}

func TestActorFromBearer_MissingPrefixIsSilent(t *testing.T) {
	s := testSigner()
	_, ok := ActorFromBearer(s, "not-a-bearer-header", BearerOptions{AllowSignedTokens: true})
	assert.False(t, ok)

	_, ok = ActorFromBearer(s, "Bearer no-dstok-prefix", BearerOptions{AllowSignedTokens: true})
	assert.False(t, ok)
}

func TestActorFromBearer_ExpiredDurationIsSilent(t *testing.T) {
	s := testSigner()
	duration := int64(60)
	issued := time.Now().Add(-time.Hour)
	signed, err := SignBearerToken(s, "alice", issued, &duration, nil)
	require.NoError(t, err)

	_, ok := ActorFromBearer(s, "Bearer "+signed, BearerOptions{AllowSignedTokens: true})
	assert.False(t, ok)
}

func TestActorFromBearer_MaxTTLCapsEvenUnboundedToken(t *testing.T) {
	s := testSigner()
	issued := time.Now().Add(-2 * time.Hour)
	// No duration specified on the token itself.
	signed, err := SignBearerToken(s, "alice", issued, nil, nil)
	require.NoError(t, err)

	_, ok := ActorFromBearer(s, "Bearer "+signed, BearerOptions{AllowSignedTokens: true, MaxTTL: 3600})
	assert.False(t, ok, "a 2h-old token with no stated duration must be capped by MaxTTL and rejected")
}

func TestActorFromBearer_CarriesRestrictions(t *testing.T) {
	s := testSigner()
	restrictions := map[string]any{"a": []any{"view-table"}}
	signed, err := SignBearerToken(s, "alice", time.Now(), nil, restrictions)
	require.NoError(t, err)

	actor, ok := ActorFromBearer(s, "Bearer "+signed, BearerOptions{AllowSignedTokens: true})
	require.True(t, ok)
	r, ok := actor.Restrictions()
	require.True(t, ok)
	assert.Equal(t, []string{"view-table"}, r.Global)
}
