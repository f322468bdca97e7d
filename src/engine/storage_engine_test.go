package engine

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"secdb/src/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newFileStore(t *testing.T, path, password string) *FileSnapshotStore {
	t.Helper()
	store, err := NewFileSnapshotStore(path, password, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// writeBlob encrypts plaintext the same way the store does and writes it
// as the whole file.
func writeBlob(t *testing.T, path, password string, plaintext []byte) {
	t.Helper()
	c, err := security.NewCipher(security.DeriveKey(password))
	require.NoError(t, err)
	blob, err := c.Encrypt(plaintext)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, blob, 0600))
}

func sampleDatabase() Database {
	return Database{
		"users": {
			{"name": "Alice", "age": float64(25), "tags": []interface{}{"a", "b"}},
			{"name": "Bob", "age": float64(30), "address": map[string]interface{}{"city": "Oslo"}},
		},
		"empty": {},
	}
}

func TestFileSnapshotStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.secdb")
	store := newFileStore(t, path, "pwd@123")

	exists, err := store.Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Save(sampleDatabase()))
	exists, err = store.Exists()
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, sampleDatabase(), loaded)
}

func TestFileSnapshotStoreFileIsBase64Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.secdb")
	store := newFileStore(t, path, "pwd@123")
	require.NoError(t, store.Save(sampleDatabase()))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(string(content))
	require.NoError(t, err)
	assert.Zero(t, len(raw)%security.BlockSize)
	assert.NotContains(t, string(content), "Alice")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileSnapshotStoreReadsExternalSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xdatabase.secdb")
	writeBlob(t, path, "pwd@123", []byte(`{"users": [{"name": "Alice", "age": 25}]}`))

	store := newFileStore(t, path, "pwd@123")
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Database{"users": {{"name": "Alice", "age": float64(25)}}}, loaded)
}

func TestFileSnapshotStoreKeepsLargeIntegers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xdatabase.secdb")
	writeBlob(t, path, "pwd@123", []byte(`{"users": [{"id": 9007199254740993, "n": 25, "f": 2.5, "huge": 1e400}]}`))

	store := newFileStore(t, path, "pwd@123")
	loaded, err := store.Load()
	require.NoError(t, err)
	doc := loaded["users"][0]
	assert.Equal(t, json.Number("9007199254740993"), doc["id"])
	assert.Equal(t, float64(25), doc["n"])
	assert.Equal(t, 2.5, doc["f"])
	assert.Equal(t, json.Number("1e400"), doc["huge"])

	require.NoError(t, store.Save(loaded))
	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	c, err := security.NewCipher(security.DeriveKey("pwd@123"))
	require.NoError(t, err)
	plaintext, err := c.Decrypt(blob)
	require.NoError(t, err)
	assert.Contains(t, string(plaintext), `"id":9007199254740993`)
	assert.Contains(t, string(plaintext), `"huge":1e400`)
}

func TestFileSnapshotStoreWrongPassword(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.secdb")

	writer := newFileStore(t, path, "correct")
	require.NoError(t, writer.Save(sampleDatabase()))
	require.NoError(t, writer.Close())

	reader := newFileStore(t, path, "wrong")
	db, err := reader.Load()
	assert.ErrorIs(t, err, ErrDecryptionFailure)
	assert.Nil(t, db)
}

func TestFileSnapshotStoreCorruptedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.secdb")

	store := newFileStore(t, path, "pwd@123")
	require.NoError(t, store.Save(sampleDatabase()))
	good, err := os.ReadFile(path)
	require.NoError(t, err)

	cases := map[string][]byte{
		"empty":     {},
		"garbage":   []byte("this is not a blob"),
		"truncated": good[:len(good)/2],
	}
	for name, content := range cases {
		require.NoError(t, os.WriteFile(path, content, 0600))
		_, err := store.Load()
		assert.ErrorIs(t, err, ErrDecryptionFailure, name)
	}
}

func TestFileSnapshotStoreMalformedSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.secdb")
	store := newFileStore(t, path, "pwd@123")

	for _, plaintext := range []string{
		`{"users": [`,
		`null`,
		`["users"]`,
		`{"users": [null]}`,
		`{"users": [1, 2]}`,
	} {
		writeBlob(t, path, "pwd@123", []byte(plaintext))
		_, err := store.Load()
		assert.ErrorIs(t, err, ErrSerializationFailure, plaintext)
	}
}

func TestFileSnapshotStoreNullCollectionLoadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.secdb")
	writeBlob(t, path, "pwd@123", []byte(`{"users": null}`))

	store := newFileStore(t, path, "pwd@123")
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Database{"users": {}}, loaded)
}

func TestFileSnapshotStoreMissingFileIsIOFailure(t *testing.T) {
	store := newFileStore(t, filepath.Join(t.TempDir(), "db.secdb"), "pwd@123")
	_, err := store.Load()
	assert.ErrorIs(t, err, ErrIOFailure)
}

func TestFileSnapshotStoreSaveIntoMissingDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.secdb")
	store := newFileStore(t, path, "pwd@123")

	// the lock file lives beside the data file, so remove the directory
	// only after the store exists
	require.NoError(t, os.RemoveAll(dir))
	assert.ErrorIs(t, store.Save(sampleDatabase()), ErrIOFailure)
}

func TestFileSnapshotStoreIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.secdb")
	first, err := NewFileSnapshotStore(path, "pwd@123", nil)
	require.NoError(t, err)

	_, err = NewFileSnapshotStore(path, "pwd@123", nil)
	assert.ErrorIs(t, err, ErrIOFailure)

	require.NoError(t, first.Close())
	require.NoError(t, first.Close())

	second, err := NewFileSnapshotStore(path, "pwd@123", nil)
	require.NoError(t, err)
	assert.NoError(t, second.Close())
}
