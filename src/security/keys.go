package security

import "crypto/sha256"

// KeySize is the length of the derived AES-256 key in bytes.
const KeySize = sha256.Size

// Key is the key material derived from a database password.
type Key [KeySize]byte

// DeriveKey hashes the password into AES-256 key material.
//
// The derivation is a single unsalted SHA-256 round. Files written by
// earlier releases depend on it, so it must stay this way even though a
// salted, slow KDF would resist offline guessing far better.
func DeriveKey(password string) Key {
	return Key(sha256.Sum256([]byte(password)))
}
