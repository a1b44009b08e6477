package credential_test

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/storage"
)

var (
	testKey = []byte("test-signing-key-0123456789abcdef")
	epoch   = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func newIssuer(t *testing.T, clock clockwork.Clock) *credential.Issuer {
	t.Helper()

	iss, err := credential.NewIssuer(credential.IssuerConfig{
		TTL:           time.Hour,
		SigningMethod: credential.MethodHS256,
		PrivateKey:    testKey,
		Issuer:        "gosession-test",
	}, clock)
	require.NoError(t, err)
	return iss
}

func signClaims(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testKey)
	require.NoError(t, err)
	return tok
}

func newStore(t *testing.T, clock clockwork.Clock) *credential.Store {
	t.Helper()
	return credential.NewStore(storage.NewMemory(), "", credential.WithClock(clock))
}

func TestIsValidExpiryBoundary(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	iss := newIssuer(t, clock)
	ctx := context.Background()

	tests := []struct {
		name  string
		exp   time.Time
		valid bool
	}{
		{"expired one second ago", epoch.Add(-time.Second), false},
		{"expires in an hour", epoch.Add(time.Hour), true},
		{"expires exactly now", epoch, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := iss.IssueWindow("user-1", epoch.Add(-time.Minute), tt.exp, nil)
			require.NoError(t, err)

			c, err := credential.Decode(tok)
			require.NoError(t, err, "token must decode even when expired")
			assert.Equal(t, "user-1", c.Subject)

			store := newStore(t, clock)
			require.NoError(t, store.Store(ctx, tok))
			assert.Equal(t, tt.valid, store.IsValid(ctx))
		})
	}
}

func TestIsValidFailsClosed(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	future := jwt.NewNumericDate(epoch.Add(time.Hour))
	payloadOnly := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"u","exp":9999999999}`))

	tokens := map[string]string{
		"garbage":           "not-a-token",
		"two segments":      "abc.def",
		"bad base64":        "a.!!!.c",
		"payload not json":  "eyJhbGciOiJIUzI1NiJ9." + base64.RawURLEncoding.EncodeToString([]byte("nope")) + ".sig",
		"header missing":    "." + payloadOnly + ".sig",
		"missing subject":   signClaims(t, jwt.MapClaims{"exp": future}),
		"empty subject":     signClaims(t, jwt.MapClaims{"sub": "", "exp": future}),
		"missing expiry":    signClaims(t, jwt.MapClaims{"sub": "user-1"}),
		"expiry wrong type": signClaims(t, jwt.MapClaims{"sub": "user-1", "exp": "tomorrow"}),
		"subject not text":  signClaims(t, jwt.MapClaims{"sub": 42, "exp": future}),
	}

	for name, tok := range tokens {
		t.Run(name, func(t *testing.T) {
			store := newStore(t, clock)
			require.NoError(t, store.Store(context.Background(), tok))

			assert.NotPanics(t, func() {
				assert.False(t, store.IsValid(context.Background()))
				assert.Equal(t, 0, store.MinutesUntilExpiry(context.Background()))
			})
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	future := jwt.NewNumericDate(epoch.Add(time.Hour))

	_, err := credential.Decode("")
	assert.ErrorIs(t, err, credential.ErrEmpty)

	_, err = credential.Decode("x.y")
	assert.ErrorIs(t, err, credential.ErrMalformed)

	_, err = credential.Decode(signClaims(t, jwt.MapClaims{"exp": future}))
	assert.ErrorIs(t, err, credential.ErrMissingSubject)

	_, err = credential.Decode(signClaims(t, jwt.MapClaims{"sub": "user-1"}))
	assert.ErrorIs(t, err, credential.ErrMissingExpiry)
}

func TestDecodeRequiresKnownAlg(t *testing.T) {
	seg := base64.RawURLEncoding.EncodeToString
	payload := seg([]byte(`{"sub":"user-1","exp":4102444800}`))

	for name, header := range map[string]string{
		"missing": `{"typ":"JWT"}`,
		"unknown": `{"alg":"XS999","typ":"JWT"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := credential.Decode(seg([]byte(header)) + "." + payload + ".sig")
			assert.ErrorIs(t, err, credential.ErrMalformed)
		})
	}

	c, err := credential.Decode(seg([]byte(`{"alg":"HS256","typ":"JWT"}`)) + "." + payload + ".sig")
	require.NoError(t, err)
	assert.Equal(t, "user-1", c.Subject)
}

func TestMissingCredentialIsInvalid(t *testing.T) {
	store := newStore(t, clockwork.NewFakeClockAt(epoch))

	tok, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tok)
	assert.False(t, store.IsValid(context.Background()))

	_, err = store.Current(context.Background())
	assert.ErrorIs(t, err, credential.ErrNotFound)
}

func TestStoreRejectsEmptyToken(t *testing.T) {
	store := newStore(t, clockwork.NewFakeClockAt(epoch))
	assert.ErrorIs(t, store.Store(context.Background(), ""), credential.ErrEmpty)
}

func TestClearRemovesCredential(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	store := newStore(t, clock)
	ctx := context.Background()

	tok, err := newIssuer(t, clock).Issue("user-1", nil)
	require.NoError(t, err)
	require.NoError(t, store.Store(ctx, tok))
	require.True(t, store.IsValid(ctx))

	require.NoError(t, store.Clear(ctx))
	assert.False(t, store.IsValid(ctx))
}

func TestValidityFollowsClock(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	store := newStore(t, clock)
	ctx := context.Background()

	tok, err := newIssuer(t, clock).Issue("user-1", nil)
	require.NoError(t, err)
	require.NoError(t, store.Store(ctx, tok))

	assert.Equal(t, 60, store.MinutesUntilExpiry(ctx))

	clock.Advance(30*time.Minute + 10*time.Second)
	assert.Equal(t, 29, store.MinutesUntilExpiry(ctx))
	assert.True(t, store.IsValid(ctx))

	clock.Advance(30 * time.Minute)
	assert.Equal(t, 0, store.MinutesUntilExpiry(ctx))
	assert.False(t, store.IsValid(ctx))
}

func TestCurrentIsMemoizedPerToken(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	store := newStore(t, clock)
	iss := newIssuer(t, clock)
	ctx := context.Background()

	first, err := iss.Issue("user-1", nil)
	require.NoError(t, err)
	require.NoError(t, store.Store(ctx, first))

	a, err := store.Current(ctx)
	require.NoError(t, err)
	b, err := store.Current(ctx)
	require.NoError(t, err)
	assert.Same(t, a, b)

	second, err := iss.Issue("user-2", nil)
	require.NoError(t, err)
	require.NoError(t, store.Store(ctx, second))

	c, err := store.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-2", c.Subject)
	assert.NotSame(t, a, c)
	assert.Equal(t, "user-1", a.Subject, "earlier credential is unchanged")
}

func TestIssuerVerify(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	iss := newIssuer(t, clock)

	tok, err := iss.Issue("user-1", map[string]any{"role": "member"})
	require.NoError(t, err)

	c, err := iss.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", c.Subject)
	assert.Equal(t, "member", c.Claims["role"])

	clock.Advance(2 * time.Hour)
	_, err = iss.Verify(tok)
	assert.Error(t, err)

	other, err := credential.NewIssuer(credential.IssuerConfig{
		TTL: time.Hour, SigningMethod: credential.MethodHS256, PrivateKey: []byte("another-key-entirely-0123456789"),
	}, clock)
	require.NoError(t, err)
	fresh, err := other.Issue("user-1", nil)
	require.NoError(t, err)
	_, err = iss.Verify(fresh)
	assert.Error(t, err)
}

func TestNewIssuerValidation(t *testing.T) {
	_, err := credential.NewIssuer(credential.IssuerConfig{SigningMethod: credential.MethodHS256, PrivateKey: testKey}, nil)
	assert.Error(t, err)

	_, err = credential.NewIssuer(credential.IssuerConfig{TTL: time.Hour, SigningMethod: credential.MethodHS256}, nil)
	assert.Error(t, err)

	_, err = credential.NewIssuer(credential.IssuerConfig{TTL: time.Hour, SigningMethod: "rs512", PrivateKey: testKey}, nil)
	assert.Error(t, err)
}
