package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers malformed, badly signed, expired, and revoked
// tokens alike.
var ErrInvalidToken = errors.New("invalid token")

// Claims defines the JWT claims structure.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issuer creates and validates signed session tokens. Revocation is held
// server-side in a set keyed by the token's jti; entries carry the token's
// own expiry so Sweep can drop them once they would have died anyway. A
// token moves Issued -> Valid -> Expired or Revoked and never back.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu          sync.RWMutex
	revoked     map[string]time.Time // jti -> token expiry
	userCutoffs map[string]time.Time // user id -> revoke-all cutoff
}

// NewIssuer creates an Issuer signing with secret and issuing tokens valid
// for ttl.
func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	return &Issuer{
		secret:      secret,
		ttl:         ttl,
		now:         time.Now,
		revoked:     make(map[string]time.Time),
		userCutoffs: make(map[string]time.Time),
	}
}

// Issue creates a new signed token for the given user.
func (i *Issuer) Issue(userID, username string) (string, error) {
	now := i.now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify parses and validates a token string, including revocation state.
// A revocation completed on another goroutine is visible here as soon as
// Revoke returns; both sides go through the same mutex.
func (i *Issuer) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	i.mu.RLock()
	_, revoked := i.revoked[claims.ID]
	cutoff, hasCutoff := i.userCutoffs[claims.UserID]
	i.mu.RUnlock()

	if revoked {
		return nil, ErrInvalidToken
	}
	if hasCutoff && claims.IssuedAt != nil && !claims.IssuedAt.Time.After(cutoff) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Revoke marks the session carried by tokenStr unusable for all future
// Verify calls. Revoking an unknown, malformed, or already-revoked token is
// a no-op; logout stays idempotent.
func (i *Issuer) Revoke(tokenStr string) {
	claims := &Claims{}
	// Skip claims validation so an already-expired token revokes cleanly
	// instead of erroring out of the parse.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil || !token.Valid || claims.ID == "" {
		return
	}

	expiry := i.now().Add(i.ttl)
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}

	i.mu.Lock()
	i.revoked[claims.ID] = expiry
	i.mu.Unlock()
}

// RevokeUser invalidates every token issued to userID up to now. Tokens
// issued afterwards verify normally.
func (i *Issuer) RevokeUser(userID string) {
	i.mu.Lock()
	i.userCutoffs[userID] = i.now()
	i.mu.Unlock()
}

// Sweep drops revocation entries for tokens that have since expired on
// their own, and user cutoffs old enough that no live token can predate
// them. Run periodically to keep the set bounded.
func (i *Issuer) Sweep() {
	now := i.now()
	i.mu.Lock()
	defer i.mu.Unlock()
	for jti, expiry := range i.revoked {
		if now.After(expiry) {
			delete(i.revoked, jti)
		}
	}
	for userID, cutoff := range i.userCutoffs {
		if now.Sub(cutoff) > i.ttl {
			delete(i.userCutoffs, userID)
		}
	}
}
