package kernel

import (
	"fmt"

	"github.com/matthewhartstonge/argon2"
)

type PasswordHasher struct {
	config argon2.Config
}

func NewPasswordHasher() *PasswordHasher {
	return NewPasswordHasherWithConfig(argon2.DefaultConfig())
}

func NewPasswordHasherWithConfig(config argon2.Config) *PasswordHasher {
	return &PasswordHasher{config: config}
}

// Hash returns the argon2id hash of password in PHC string form.
func (h *PasswordHasher) Hash(password string) (string, error) {
	encoded, err := h.config.HashEncoded([]byte(password))
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(encoded), nil
}

// Verify reads the parameters from encoded, so hashes made with other
// settings still verify.
func (h *PasswordHasher) Verify(password, encoded string) bool {
	ok, err := argon2.VerifyEncoded([]byte(password), []byte(encoded))
	return err == nil && ok
}
