package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"unicode/utf8"

	"secdb/src/helpers"
	"secdb/src/security"

	"go.uber.org/zap"
)

// SnapshotStore persists whole Database snapshots.
type SnapshotStore interface {
	// Exists reports whether a snapshot has been written before. An
	// error means the answer is unknown; it is never a reason to start
	// from an empty Database.
	Exists() (bool, error)

	Load() (Database, error)

	// Save replaces the stored snapshot with db.
	Save(db Database) error

	Close() error
}

// FileSnapshotStore keeps the snapshot as the sole content of one file:
// base64(iv || AES-256-CBC(json(db))). Writes go through a temp file and
// rename, so a crash leaves either the old or the new snapshot.
//
// The store holds an exclusive flock on "<path>.lock" until Close.
type FileSnapshotStore struct {
	path   string
	mode   os.FileMode
	cipher *security.Cipher
	lock   *os.File
	logger *zap.SugaredLogger
}

// NewFileSnapshotStore derives the key from password and locks path for
// this process.
func NewFileSnapshotStore(path, password string, logger *zap.SugaredLogger) (*FileSnapshotStore, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	c, err := security.NewCipher(security.DeriveKey(password))
	if err != nil {
		return nil, err
	}

	lock, err := helpers.LockFile(path + ".lock")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return &FileSnapshotStore{
		path:   path,
		mode:   0600,
		cipher: c,
		lock:   lock,
		logger: logger,
	}, nil
}

// Path returns the data file path.
func (s *FileSnapshotStore) Path() string {
	return s.path
}

func (s *FileSnapshotStore) Exists() (bool, error) {
	exists, err := helpers.FileExists(s.path)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return exists, nil
}

// Load reads, decrypts and decodes the data file. Failures are returned
// as ErrIOFailure, ErrDecryptionFailure or ErrSerializationFailure; an
// unreadable file never turns into an empty Database.
func (s *FileSnapshotStore) Load() (Database, error) {
	blob, err := helpers.ReadDataFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	plaintext, err := s.cipher.Decrypt(blob)
	if err != nil {
		return nil, fmt.Errorf("error decrypting %s: %w", s.path, err)
	}

	// A wrong key occasionally survives the padding check; its output is
	// random bytes, which are practically never valid UTF-8.
	if !utf8.Valid(plaintext) {
		return nil, fmt.Errorf("error decrypting %s: %w: plaintext is not valid UTF-8", s.path, ErrDecryptionFailure)
	}

	db, err := decodeSnapshot(plaintext)
	if err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", s.path, err)
	}

	s.logger.Infow("Loaded database snapshot",
		"path", s.path,
		"collections", db.Collections(),
		"documents", db.Documents())
	return db, nil
}

// Save encodes, encrypts and atomically writes db.
func (s *FileSnapshotStore) Save(db Database) error {
	plaintext, err := encodeSnapshot(db)
	if err != nil {
		return err
	}

	blob, err := s.cipher.Encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("error encrypting snapshot: %w", err)
	}

	if err := helpers.WriteFileAtomic(s.path, blob, s.mode); err != nil {
		return fmt.Errorf("%w: error writing %s: %w", ErrIOFailure, s.path, err)
	}

	s.logger.Debugw("Saved database snapshot",
		"path", s.path,
		"collections", db.Collections(),
		"bytes", len(blob))
	return nil
}

// Close releases the file lock.
func (s *FileSnapshotStore) Close() error {
	if s.lock == nil {
		return nil
	}
	err := helpers.UnlockFile(s.lock)
	s.lock = nil
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}

func encodeSnapshot(db Database) ([]byte, error) {
	out := make(map[string][]Document, len(db))
	for name, docs := range db {
		if docs == nil {
			docs = []Document{}
		}
		out[name] = docs
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailure, err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (Database, error) {
	var db Database
	if err := helpers.DecodeJSON(data, &db); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailure, err)
	}
	if db == nil {
		return nil, fmt.Errorf("%w: snapshot is not an object", ErrSerializationFailure)
	}

	for name, docs := range db {
		if docs == nil {
			db[name] = []Document{}
			continue
		}
		for i, doc := range docs {
			if doc == nil {
				return nil, fmt.Errorf("%w: document %d in collection %q is not an object",
					ErrSerializationFailure, i, name)
			}
			CanonicalValue(doc)
		}
	}
	return db, nil
}

var _ SnapshotStore = (*FileSnapshotStore)(nil)
