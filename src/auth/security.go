package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const hashMethod = "argon2id"

// HashParams are the Argon2id cost parameters used for new hashes. Stored
// hashes carry their own parameters, so changing these does not
// invalidate existing users.
type HashParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

// DefaultHashParams follows the OWASP Argon2id recommendation.
var DefaultHashParams = HashParams{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	KeyLen:  32,
	SaltLen: 16,
}

// Bounds for hash parameters. Stored hashes outside them are never run.
const (
	minTime    = 1
	maxTime    = 16
	maxMemory  = 1 << 20 // 1 GiB in KiB
	minKeyLen  = 16
	maxKeyLen  = 64
	minSaltLen = 8
	maxSaltLen = 64
)

func checkParams(time, memory uint32, threads uint8, keyLen uint32) error {
	switch {
	case time < minTime || time > maxTime:
		return fmt.Errorf("%w: time %d", ErrInvalidHashParams, time)
	case threads == 0:
		return fmt.Errorf("%w: threads must be positive", ErrInvalidHashParams)
	case memory < 8*uint32(threads) || memory > maxMemory:
		return fmt.Errorf("%w: memory %d KiB", ErrInvalidHashParams, memory)
	case keyLen < minKeyLen || keyLen > maxKeyLen:
		return fmt.Errorf("%w: key length %d", ErrInvalidHashParams, keyLen)
	}
	return nil
}

func (p HashParams) validate() error {
	if p.SaltLen < minSaltLen || p.SaltLen > maxSaltLen {
		return fmt.Errorf("%w: salt length %d", ErrInvalidHashParams, p.SaltLen)
	}
	return checkParams(p.Time, p.Memory, p.Threads, p.KeyLen)
}

// validate checks a stored hash before it is ever recomputed.
func (h PasswordHash) validate() error {
	if h.Method != hashMethod {
		return fmt.Errorf("%w: unsupported method %q", ErrInvalidHashParams, h.Method)
	}
	if err := checkParams(h.Time, h.Memory, h.Threads, h.KeyLen); err != nil {
		return err
	}
	if len(h.Hash) != int(h.KeyLen) {
		return fmt.Errorf("%w: hash is %d bytes, want %d", ErrInvalidHashParams, len(h.Hash), h.KeyLen)
	}
	if len(h.Salt) < minSaltLen || len(h.Salt) > maxSaltLen {
		return fmt.Errorf("%w: salt length %d", ErrInvalidHashParams, len(h.Salt))
	}
	return nil
}

func hashPassword(password string, params HashParams) (PasswordHash, error) {
	salt := make([]byte, params.SaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return PasswordHash{}, fmt.Errorf("failed to generate salt: %w", err)
	}

	return PasswordHash{
		Hash:    argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Threads, params.KeyLen),
		Salt:    salt,
		Method:  hashMethod,
		Time:    params.Time,
		Memory:  params.Memory,
		Threads: params.Threads,
		KeyLen:  params.KeyLen,
	}, nil
}

// Verify reports whether password produces the stored hash.
func (h PasswordHash) Verify(password string) bool {
	if h.validate() != nil {
		return false
	}
	hash := argon2.IDKey([]byte(password), h.Salt, h.Time, h.Memory, h.Threads, h.KeyLen)
	return subtle.ConstantTimeCompare(hash, h.Hash) == 1
}

// VerifyCredentials checks username and password against the store and
// returns the matching user without its hash.
func (s *UserStore) VerifyCredentials(username, password string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, storedUser := range s.users {
		if storedUser.Username != username {
			continue
		}
		if !storedUser.PasswordHash.Verify(password) {
			return nil, ErrInvalidCredentials
		}
		return storedUser.public(), nil
	}

	// burn the same work as a real check so unknown names are not cheaper
	argon2.IDKey([]byte(password), make([]byte, s.params.SaltLen),
		s.params.Time, s.params.Memory, s.params.Threads, s.params.KeyLen)
	return nil, ErrInvalidCredentials
}
