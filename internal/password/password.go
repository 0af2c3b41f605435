package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher derives and checks salted bcrypt digests. The cost is the bcrypt
// work factor; bcrypt salts internally, so hashing the same plaintext twice
// yields different digests.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher with the given work factor. Out-of-range costs
// fall back to the bcrypt default.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash derives a salted digest from the plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored digest. A mismatch is
// a false return, never an error.
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
