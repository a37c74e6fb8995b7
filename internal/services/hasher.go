package services

import "golang.org/x/crypto/bcrypt"

// PasswordHasher wraps bcrypt hashing and verification. Each Hash call salts
// independently, so the same plaintext never produces the same secret twice.
type PasswordHasher struct {
	cost      int
	dummyHash []byte
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.DefaultCost {
		cost = bcrypt.DefaultCost
	}
	// The dummy hash backs CompareDummy; it must cost the same as a real
	// verification so unknown-user logins are not distinguishable by timing.
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-credential"), cost)
	if err != nil {
		panic(err)
	}
	return &PasswordHasher{cost: cost, dummyHash: dummy}
}

func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored secret. Structurally
// invalid secrets simply verify as false.
func (h *PasswordHasher) Verify(plaintext, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(secret), []byte(plaintext)) == nil
}

// CompareDummy burns a full bcrypt comparison against a throwaway hash. It is
// called on the no-such-user login path so that path costs the same as a
// wrong-password one.
func (h *PasswordHasher) CompareDummy(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(plaintext))
}
