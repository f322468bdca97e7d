package security

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	EmptyData   = []byte("")
	SingleData  = []byte("a")
	BlockData   = []byte("0123456789abcdef")
	JSONData    = []byte(`{"users": [{"name": "Alice", "age": 25}]}`)
	UnicodeData = []byte("a®Ďƃɕʶ ̂ΆԃЌԵﬗאر݃ݓޤ‎߅ࡄখஷഖคබໄ၇ꩦႦᄓᎄⷄꬓᏄᑖᣆᚅᛕᜅᜤᝄᝣ‴№⁷✚z")

	AllData = [][]byte{EmptyData, SingleData, BlockData, JSONData, UnicodeData}
)

func newTestCipher(t *testing.T, password string) *Cipher {
	t.Helper()
	c, err := NewCipher(DeriveKey(password))
	require.NoError(t, err)
	return c
}

func TestDeriveKeyIsSHA256(t *testing.T) {
	t.Parallel()

	key := DeriveKey("password")
	assert.Equal(t, "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8", hex.EncodeToString(key[:]))
	assert.Equal(t, key, DeriveKey("password"))
	assert.NotEqual(t, key, DeriveKey("Password"))
}

func TestEncryptAndDecrypt(t *testing.T) {
	t.Parallel()

	c := newTestCipher(t, "pwd@123")
	for _, plaintext := range AllData {
		blob, err := c.Encrypt(plaintext)
		require.NoError(t, err)

		decrypted, err := c.Decrypt(blob)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestEncryptLayout(t *testing.T) {
	t.Parallel()

	c := newTestCipher(t, "pwd@123")
	for _, plaintext := range AllData {
		blob, err := c.Encrypt(plaintext)
		require.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(string(blob))
		require.NoError(t, err)

		padded := (len(plaintext)/BlockSize + 1) * BlockSize
		assert.Len(t, raw, BlockSize+padded)
	}
}

func TestEncryptUsesFreshIV(t *testing.T) {
	t.Parallel()

	c := newTestCipher(t, "pwd@123")
	a, err := c.Encrypt(JSONData)
	require.NoError(t, err)
	b, err := c.Encrypt(JSONData)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestEncryptPrependsIV(t *testing.T) {
	t.Parallel()

	c := newTestCipher(t, "pwd@123")
	iv := bytes.Repeat([]byte{0x42}, BlockSize)
	c.rand = bytes.NewReader(iv)

	blob, err := c.Encrypt(JSONData)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(string(blob))
	require.NoError(t, err)
	assert.Equal(t, iv, raw[:BlockSize])

	decrypted, err := c.Decrypt(blob)
	require.NoError(t, err)
	assert.Equal(t, JSONData, decrypted)
}

func TestDecryptMalformedBlobsFail(t *testing.T) {
	t.Parallel()

	c := newTestCipher(t, "pwd@123")
	blob, err := c.Encrypt(JSONData)
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(string(blob))
	require.NoError(t, err)

	cases := map[string][]byte{
		"empty":          {},
		"not base64":     []byte("!!not-base64!!"),
		"iv only":        []byte(base64.StdEncoding.EncodeToString(raw[:BlockSize])),
		"short iv":       []byte(base64.StdEncoding.EncodeToString(raw[:BlockSize-1])),
		"unaligned tail": []byte(base64.StdEncoding.EncodeToString(raw[:len(raw)-1])),
	}
	for name, input := range cases {
		_, err := c.Decrypt(input)
		assert.ErrorIs(t, err, ErrDecryptionFailure, name)
	}
}

func TestDecryptToleratesTrailingNewline(t *testing.T) {
	t.Parallel()

	c := newTestCipher(t, "pwd@123")
	blob, err := c.Encrypt(JSONData)
	require.NoError(t, err)

	decrypted, err := c.Decrypt(append(blob, '\n'))
	require.NoError(t, err)
	assert.Equal(t, JSONData, decrypted)
}

// A wrong key almost always breaks the padding. When it happens to leave
// valid padding the output still must not be the original plaintext.
func TestDecryptWrongPasswordFails(t *testing.T) {
	t.Parallel()

	right := newTestCipher(t, "correct")
	wrong := newTestCipher(t, "incorrect")
	for _, plaintext := range AllData {
		blob, err := right.Encrypt(plaintext)
		require.NoError(t, err)

		decrypted, err := wrong.Decrypt(blob)
		if err != nil {
			assert.ErrorIs(t, err, ErrDecryptionFailure)
			continue
		}
		assert.NotEqual(t, plaintext, decrypted)
	}
}

func TestUnpadRejectsBadPadding(t *testing.T) {
	t.Parallel()

	zero := make([]byte, BlockSize)
	tooLarge := bytes.Repeat([]byte{BlockSize + 1}, BlockSize)
	mixed := append(bytes.Repeat([]byte{'x'}, BlockSize-3), 0x01, 0x03, 0x03)

	for _, data := range [][]byte{nil, zero, tooLarge, mixed, []byte("short")} {
		_, err := unpad(data)
		assert.ErrorIs(t, err, ErrDecryptionFailure)
	}
}

func TestPadRoundTrip(t *testing.T) {
	t.Parallel()

	for _, data := range AllData {
		padded := pad(data)
		assert.Zero(t, len(padded)%BlockSize)

		out, err := unpad(padded)
		require.NoError(t, err)
		assert.Equal(t, data, out)
	}
}
