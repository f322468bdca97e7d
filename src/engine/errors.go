package engine

import (
	"errors"

	"secdb/src/security"
)

var (
	// ErrCollectionNotFound is returned when an operation names a
	// collection that does not exist.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrCollectionAlreadyExists is returned by CreateCollection when the
	// name is taken.
	ErrCollectionAlreadyExists = errors.New("collection already exists")
	// ErrDecryptionFailure is returned when the data file cannot be
	// decrypted: wrong password, truncated or corrupted blob.
	ErrDecryptionFailure = security.ErrDecryptionFailure
	// ErrSerializationFailure is returned when the decrypted snapshot is
	// not valid structured text, or a value cannot be serialized.
	ErrSerializationFailure = errors.New("serialization failure")
	// ErrIOFailure wraps file system errors on the data file.
	ErrIOFailure = errors.New("io failure")
	// ErrClosed is returned by operations on a closed DocumentStore.
	ErrClosed = errors.New("document store is closed")
)

// Kind names an error category in a form that survives the wire.
type Kind string

const (
	KindCollectionNotFound      Kind = "CollectionNotFound"
	KindCollectionAlreadyExists Kind = "CollectionAlreadyExists"
	KindDecryptionFailure       Kind = "DecryptionFailure"
	KindSerializationFailure    Kind = "SerializationFailure"
	KindIOFailure               Kind = "IOFailure"
	KindClosed                  Kind = "Closed"
	KindInternal                Kind = "Internal"
)

var kindErrors = []struct {
	kind Kind
	err  error
}{
	{KindCollectionNotFound, ErrCollectionNotFound},
	{KindCollectionAlreadyExists, ErrCollectionAlreadyExists},
	{KindDecryptionFailure, ErrDecryptionFailure},
	{KindSerializationFailure, ErrSerializationFailure},
	{KindIOFailure, ErrIOFailure},
	{KindClosed, ErrClosed},
}

// KindOf classifies err. Errors outside the taxonomy are KindInternal;
// a nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, ke := range kindErrors {
		if errors.Is(err, ke.err) {
			return ke.kind
		}
	}
	return KindInternal
}

// ErrorOf returns the sentinel error for kind, or nil if the kind is not
// part of the engine taxonomy.
func ErrorOf(kind Kind) error {
	for _, ke := range kindErrors {
		if ke.kind == kind {
			return ke.err
		}
	}
	return nil
}
