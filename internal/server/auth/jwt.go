// Package auth signs and decodes the service's access and refresh tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpireLayout is the wire format of the "expire" claim, always UTC.
const ExpireLayout = "2006-01-02 15:04:05.000000"

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Verdict is the outcome of decoding a token.
type Verdict int

const (
	OK Verdict = iota
	Malformed
	Expired
)

func (v Verdict) String() string {
	switch v {
	case OK:
		return "ok"
	case Malformed:
		return "malformed"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Claims carries the user login, role names, pair identifier (jti), the
// absolute expiry and the token kind. No "exp" claim is emitted: expiry is
// checked against Expire.
type Claims struct {
	User   string   `json:"user"`
	Roles  []string `json:"roles"`
	Expire string   `json:"expire"`
	Kind   Kind     `json:"kind"`
	jwt.RegisteredClaims
}

// ExpiresAt parses the expire claim.
func (c *Claims) ExpiresAt() (time.Time, error) {
	return time.ParseInLocation(ExpireLayout, c.Expire, time.UTC)
}

// Signer issues and decodes HMAC-signed tokens.
type Signer struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// NewSigner returns a Signer for the named HMAC algorithm (HS256, HS384 or
// HS512).
func NewSigner(secret, algorithm string) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("empty secret key")
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	return &Signer{secret: []byte(secret), method: method, now: time.Now}, nil
}

// Issue mints a token of the given kind valid for lifetime and returns it
// with its expiry.
func (s *Signer) Issue(user string, roles []string, jti string, kind Kind, lifetime time.Duration) (string, time.Time, error) {
	if roles == nil {
		roles = []string{}
	}
	expire := s.now().UTC().Add(lifetime)

	token := jwt.NewWithClaims(s.method, Claims{
		User:             user,
		Roles:            roles,
		Expire:           expire.Format(ExpireLayout),
		Kind:             kind,
		RegisteredClaims: jwt.RegisteredClaims{ID: jti},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expire, nil
}

// Decode verifies the signature first and the expiry second. Claims are
// returned for OK and Expired tokens; Malformed yields nil claims. A token
// whose expiry equals the current instant is still valid.
func (s *Signer) Decode(tokenString string) (*Claims, Verdict) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{s.method.Alg()}))
	if err != nil || !token.Valid {
		return nil, Malformed
	}

	if claims.User == "" || claims.ID == "" {
		return nil, Malformed
	}
	expire, err := claims.ExpiresAt()
	if err != nil {
		return nil, Malformed
	}

	if s.now().UTC().After(expire) {
		return claims, Expired
	}
	return claims, OK
}
