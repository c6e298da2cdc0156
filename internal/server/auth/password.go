package auth

import "golang.org/x/crypto/bcrypt"

// maxConcurrentHashes bounds how many bcrypt computations run at once so a
// burst of registrations cannot occupy every request goroutine in hashing.
const maxConcurrentHashes = 8

// PasswordHasher wraps bcrypt with a fixed work factor. Each digest embeds
// its own random salt, so Hash is never deterministic while Verify remains
// exact. Safe for concurrent use.
type PasswordHasher struct {
	cost int
	sem  chan struct{}
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{
		cost: cost,
		sem:  make(chan struct{}, maxConcurrentHashes),
	}
}

// Hash computes the one-way digest of a plaintext password. The plaintext is
// never stored or logged.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	h.sem <- struct{}{}
	defer func() { <-h.sem }()

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches the digest.
func (h *PasswordHasher) Verify(plaintext, digest string) bool {
	h.sem <- struct{}{}
	defer func() { <-h.sem }()

	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
