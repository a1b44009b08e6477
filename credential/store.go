package credential

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/MrEthical07/goSession/storage"
)

// DefaultKey is the well-known storage key the credential is persisted under.
const DefaultKey = "gosession:credential"

// Store owns the credential persisted in a [storage.KV].
//
// Store is safe for concurrent use. The most recently decoded credential is
// memoized by its raw value, so the expiry of a given token is read once.
type Store struct {
	kv     storage.KV
	key    string
	clock  clockwork.Clock
	logger *slog.Logger

	cached atomic.Pointer[Credential]
}

// Option configures a [Store].
type Option func(*Store)

// WithClock sets the clock validity is measured against.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger used for storage failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a credential store over kv. An empty key uses [DefaultKey].
func NewStore(kv storage.KV, key string, opts ...Option) *Store {
	if key == "" {
		key = DefaultKey
	}
	if kv == nil {
		kv = storage.NewMemory()
	}

	s := &Store{
		kv:     kv,
		key:    key,
		clock:  clockwork.NewRealClock(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the storage key.
func (s *Store) Key() string {
	return s.key
}

// Store persists token as the current credential.
func (s *Store) Store(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmpty
	}
	if err := s.kv.Set(ctx, s.key, token); err != nil {
		return err
	}
	s.cached.Store(nil)
	return nil
}

// Read returns the stored token, or "" when none is stored.
func (s *Store) Read(ctx context.Context) (string, error) {
	token, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return "", err
	}
	if !found {
		return "", nil
	}
	return token, nil
}

// Clear removes the stored credential.
func (s *Store) Clear(ctx context.Context) error {
	s.cached.Store(nil)
	return s.kv.Delete(ctx, s.key)
}

// Current returns the decoded stored credential.
func (s *Store) Current(ctx context.Context) (*Credential, error) {
	token, err := s.Read(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNotFound
	}

	if c := s.cached.Load(); c != nil && c.Raw == token {
		return c, nil
	}

	c, err := Decode(token)
	if err != nil {
		return nil, err
	}
	s.cached.Store(c)
	return c, nil
}

// IsValid reports whether a well-formed, unexpired credential is stored.
// Every failure path yields false.
func (s *Store) IsValid(ctx context.Context) bool {
	c, err := s.Current(ctx)
	if err != nil {
		s.logger.DebugContext(ctx, "credential invalid", "key", s.key, "error", err)
		return false
	}
	return c.ValidAt(s.clock.Now())
}

// MinutesUntilExpiry returns whole minutes until the stored credential
// expires, or 0 when it is missing, undecodable, or already expired.
func (s *Store) MinutesUntilExpiry(ctx context.Context) int {
	c, err := s.Current(ctx)
	if err != nil {
		return 0
	}
	return c.MinutesUntil(s.clock.Now())
}
