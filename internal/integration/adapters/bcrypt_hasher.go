package adapters

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
)

const minPasswordLength = 8

// bcrypt ignores input beyond 72 bytes; longer passwords are refused instead.
const maxPasswordLength = 72

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a PasswordHasher using cost, or bcrypt.DefaultCost when
// cost is outside the range bcrypt accepts.
func NewBcryptHasher(cost int) adapter.PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return bcryptHasher{cost: cost}
}

func (h bcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hash), nil
}

func (h bcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (h bcryptHasher) CheckPolicy(password string) error {
	switch {
	case len(password) < minPasswordLength:
		return fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	case len(password) > maxPasswordLength:
		return fmt.Errorf("password must be at most %d bytes long", maxPasswordLength)
	}
	return nil
}
