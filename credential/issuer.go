package credential

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

// SigningMethod selects the algorithm an [Issuer] signs with.
type SigningMethod string

const (
	MethodEd25519 SigningMethod = "ed25519"
	MethodHS256   SigningMethod = "hs256"
)

// IssuerConfig configures an [Issuer].
type IssuerConfig struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	KeyID         string
}

// Issuer mints and verifies signed credentials. The client layer never needs
// it; it backs the example server, the CLI mint command and tests.
type Issuer struct {
	config IssuerConfig
	clock  clockwork.Clock
}

// NewIssuer validates cfg and returns an Issuer. A nil clock uses real time.
func NewIssuer(cfg IssuerConfig, clock clockwork.Clock) (*Issuer, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires private key")
		}
	case MethodEd25519:
		if len(cfg.PrivateKey) > 0 {
			if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
				return nil, err
			}
		}
		if len(cfg.PublicKey) == 0 {
			return nil, errors.New("ed25519 requires public key")
		}
		if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unsupported signing method")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Issuer{config: cfg, clock: clock}, nil
}

// Issue mints a token for subject expiring after the configured TTL.
func (i *Issuer) Issue(subject string, extra map[string]any) (string, error) {
	now := i.clock.Now()
	return i.IssueWindow(subject, now, now.Add(i.config.TTL), extra)
}

// IssueWindow mints a token with explicit issued-at and expiry times.
func (i *Issuer) IssueWindow(subject string, issuedAt, expiresAt time.Time, extra map[string]any) (string, error) {
	if subject == "" {
		return "", ErrMissingSubject
	}

	claims := jwt.MapClaims{}
	for k, v := range extra {
		claims[k] = v
	}
	claims["sub"] = subject
	claims["iat"] = jwt.NewNumericDate(issuedAt)
	claims["exp"] = jwt.NewNumericDate(expiresAt)
	if i.config.Issuer != "" {
		claims["iss"] = i.config.Issuer
	}
	if i.config.Audience != "" {
		claims["aud"] = i.config.Audience
	}

	token := jwt.NewWithClaims(i.method(), claims)
	if i.config.KeyID != "" {
		token.Header["kid"] = i.config.KeyID
	}

	signKey, err := i.signKey()
	if err != nil {
		return "", err
	}
	return token.SignedString(signKey)
}

// Verify checks the signature and registered claims of tokenStr and returns
// the decoded credential.
func (i *Issuer) Verify(tokenStr string) (*Credential, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{i.method().Alg()}),
		jwt.WithTimeFunc(i.clock.Now),
		jwt.WithExpirationRequired(),
	}
	if i.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(i.config.Issuer))
	}
	if i.config.Audience != "" {
		options = append(options, jwt.WithAudience(i.config.Audience))
	}

	parser := jwt.NewParser(options...)
	_, err := parser.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != i.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		if i.config.KeyID != "" {
			kid, _ := t.Header["kid"].(string)
			if kid != i.config.KeyID {
				return nil, errors.New("unknown kid")
			}
		}
		return i.verifyKey()
	})
	if err != nil {
		return nil, err
	}

	return Decode(tokenStr)
}

func (i *Issuer) method() jwt.SigningMethod {
	switch i.config.SigningMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func (i *Issuer) signKey() (interface{}, error) {
	switch i.config.SigningMethod {
	case MethodHS256:
		return i.config.PrivateKey, nil
	default:
		if len(i.config.PrivateKey) == 0 {
			return nil, errors.New("ed25519 issuer has no private key")
		}
		return parseEdPrivateKey(i.config.PrivateKey)
	}
}

func (i *Issuer) verifyKey() (interface{}, error) {
	switch i.config.SigningMethod {
	case MethodHS256:
		return i.config.PrivateKey, nil
	default:
		return parseEdPublicKey(i.config.PublicKey)
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
