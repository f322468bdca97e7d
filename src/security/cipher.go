package security

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// BlockSize is the AES block size, which is also the IV length.
const BlockSize = aes.BlockSize

// ErrDecryptionFailure is returned when a blob cannot be decrypted. This
// covers a wrong password as well as truncated or corrupted blobs.
var ErrDecryptionFailure = errors.New("decryption failure")

// Cipher encrypts and decrypts whole payloads with AES-256-CBC.
//
// Blobs are base64(iv || ciphertext), with a fresh random IV per call
// and PKCS#7 padding on the plaintext.
type Cipher struct {
	block cipher.Block
	rand  io.Reader
}

// NewCipher creates a cipher for the given key.
func NewCipher(key Key) (*Cipher, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	return &Cipher{block: block, rand: rand.Reader}, nil
}

// Encrypt pads and encrypts plaintext and returns the text-encoded blob.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	padded := pad(plaintext)

	raw := make([]byte, BlockSize+len(padded))
	iv := raw[:BlockSize]
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return nil, fmt.Errorf("failed to generate IV: %w", err)
	}

	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(raw[BlockSize:], padded)

	out := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(out, raw)
	return out, nil
}

// Decrypt reverses Encrypt. Every malformed input is reported as
// ErrDecryptionFailure.
func (c *Cipher) Decrypt(blob []byte) ([]byte, error) {
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(blob)))
	n, err := base64.StdEncoding.Decode(raw, bytes.TrimSpace(blob))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrDecryptionFailure, err)
	}
	raw = raw[:n]

	// Need the IV plus at least one full block of ciphertext.
	if len(raw) < 2*BlockSize {
		return nil, fmt.Errorf("%w: blob too short (%d bytes)", ErrDecryptionFailure, len(raw))
	}
	iv, ciphertext := raw[:BlockSize], raw[BlockSize:]
	if len(ciphertext)%BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext is not a multiple of the block size", ErrDecryptionFailure)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plaintext, ciphertext)

	return unpad(plaintext)
}

// pad applies PKCS#7 padding. A full block is added when the input is
// already aligned.
func pad(data []byte) []byte {
	n := BlockSize - len(data)%BlockSize
	out := make([]byte, len(data), len(data)+n)
	copy(out, data)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%BlockSize != 0 {
		return nil, fmt.Errorf("%w: invalid padded length %d", ErrDecryptionFailure, len(data))
	}
	n := int(data[len(data)-1])
	if n == 0 || n > BlockSize {
		return nil, fmt.Errorf("%w: invalid padding", ErrDecryptionFailure)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: invalid padding", ErrDecryptionFailure)
		}
	}
	return data[:len(data)-n], nil
}
