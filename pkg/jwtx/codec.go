package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrVerification = errors.New("jwtx: verification failed")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrWrongType    = errors.New("jwtx: wrong token type")
	ErrIssuer       = errors.New("jwtx: issuer mismatch")

	// ErrEmptySecret is a construction-time failure; a codec without signing
	// material must never exist.
	ErrEmptySecret = errors.New("jwtx: empty signing secret")
)

// Codec signs and verifies session tokens with a single fixed symmetric
// algorithm (HS256). The algorithm is pinned at verification time via
// jwt.WithValidMethods and never read from the token header, which closes
// the algorithm-confusion attack (including alg=none).
type Codec struct {
	secret []byte
	issuer string
}

// NewCodec creates a codec from the process signing secret. The secret is
// held for the codec's lifetime and never logged.
func NewCodec(secret []byte, issuer string) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &Codec{secret: secret, issuer: issuer}, nil
}

// Sign serializes and signs the claim set into the compact
// header.payload.signature form.
func (c *Codec) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies the token and returns its claims. Failures are classified:
//
//   - ErrExpired: signature fine, exp in the past
//   - ErrNotYetValid: signature fine, nbf in the future
//   - ErrMalformed: not structurally a token
//   - ErrVerification: bad signature or a disallowed algorithm
//   - ErrWrongType: valid token of the other type
//   - ErrIssuer: valid token minted by a different issuer
func (c *Codec) Decode(token string, want TokenType) (Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	parsed, err := parser.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return Claims{}, classifyParseError(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrVerification
	}

	if c.issuer != "" && claims.Issuer != c.issuer {
		return Claims{}, ErrIssuer
	}

	// Type check last: signature and expiry are fine, the caller just
	// presented the wrong kind of token.
	if claims.TokenType != want {
		return Claims{}, ErrWrongType
	}

	return *claims, nil
}

// DecodeUnsafe structurally decodes a token with NO signature check. It
// exists for revocation bookkeeping and diagnostics, where we only need the
// jti and exp of a token we are about to distrust anyway. It must never feed
// an authentication decision.
func (c *Codec) DecodeUnsafe(token string) (Claims, bool) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}, false
	}
	return claims, true
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		// Signature failures, rejected algorithms, anything else
		// cryptographic all collapse to one bucket for the caller.
		return ErrVerification
	}
}

// TokenPrefix returns a short prefix of a token for diagnostic logging.
// Full token strings never reach logs.
func TokenPrefix(token string) string {
	const n = 8
	if len(token) <= n {
		return token
	}
	return token[:n] + "..."
}
