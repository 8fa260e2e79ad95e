package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types embedded in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Purposes for single-use tokens. These tokens carry no session binding and
// no persisted state: validity is signature + expiry + purpose match only. A
// consumed token therefore stays valid until it expires; the receiving side
// must change user state idempotently.
const (
	PurposeEmailVerification = "email_verification"
	PurposePasswordReset     = "password_reset"
)

// Claims is the signed claim set for every token the codec issues. Session
// tokens carry SessionID and TokenType; single-use tokens carry Purpose
// instead.
type Claims struct {
	SessionID string `json:"session_id,omitempty"`
	TokenType string `json:"type,omitempty"`
	Purpose   string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens with a process-wide HS256 secret. It is
// stateless and safe for concurrent use.
type Codec struct {
	signingKey []byte
	issuer     string
	now        func() time.Time
}

// CodecOption configures Codec behavior.
type CodecOption func(*Codec)

// WithCodecClock overrides the time source (useful for tests).
func WithCodecClock(fn func() time.Time) CodecOption {
	return func(c *Codec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewCodec constructs a Codec. The signing key is required.
func NewCodec(signingKey, issuer string, opts ...CodecOption) (*Codec, error) {
	if strings.TrimSpace(signingKey) == "" {
		return nil, errors.New("auth: signing key is required")
	}
	c := &Codec{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// IssueAccess signs a short-lived access token bound to a session.
func (c *Codec) IssueAccess(userID, sessionID string, ttl time.Duration) (string, error) {
	return c.issueSession(userID, sessionID, TokenTypeAccess, ttl)
}

// IssueRefresh signs a refresh token bound to a session.
func (c *Codec) IssueRefresh(userID, sessionID string, ttl time.Duration) (string, error) {
	return c.issueSession(userID, sessionID, TokenTypeRefresh, ttl)
}

func (c *Codec) issueSession(userID, sessionID, tokenType string, ttl time.Duration) (string, error) {
	if userID == "" || sessionID == "" {
		return "", errors.New("auth: user and session ids are required")
	}
	if ttl <= 0 {
		return "", errors.New("auth: ttl must be greater than zero")
	}
	now := c.now().UTC()
	claims := Claims{
		SessionID: sessionID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.signingKey)
}

// IssueSingleUse signs a session-less token for email verification or
// password reset.
func (c *Codec) IssueSingleUse(userID, purpose string, ttl time.Duration) (string, error) {
	if userID == "" || purpose == "" {
		return "", errors.New("auth: user id and purpose are required")
	}
	if ttl <= 0 {
		return "", errors.New("auth: ttl must be greater than zero")
	}
	now := c.now().UTC()
	claims := Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.signingKey)
}

// Decode verifies signature, structure and expiry in one step. Every failure
// collapses into ErrTokenInvalid; callers cannot distinguish expired from
// tampered from malformed.
func (c *Codec) Decode(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenInvalid
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrTokenInvalid
		}
		return c.signingKey, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithIssuedAt())
	if err != nil {
		return nil, ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if c.issuer != "" && claims.Issuer != c.issuer {
		return nil, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// VerifySingleUse decodes a single-use token and checks its purpose,
// returning the subject user id. A wrong purpose is a bad request rather
// than an authentication failure.
func (c *Codec) VerifySingleUse(token, expectedPurpose string) (string, error) {
	claims, err := c.Decode(token)
	if err != nil {
		return "", ErrBadRequest
	}
	if claims.Purpose != expectedPurpose || claims.TokenType != "" {
		return "", ErrBadRequest
	}
	return claims.Subject, nil
}

// Fingerprint returns the fixed-length one-way digest of a token string.
// Stores persist fingerprints, never raw tokens.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
