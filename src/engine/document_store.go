package engine

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// DocumentStore owns the in-memory Database and mirrors every mutation to
// its SnapshotStore.
//
// A single mutex guards each whole operation, including the snapshot
// write, so callers may share one store between goroutines. Every
// successful mutating call writes exactly one full snapshot; a call that
// fails (unknown collection, save error) writes nothing and leaves the
// in-memory state unchanged.
type DocumentStore struct {
	mu     sync.Mutex
	data   Database
	store  SnapshotStore
	logger *zap.SugaredLogger
	closed bool
}

// Open opens the encrypted data file at path, loading it when it exists
// and starting empty otherwise.
func Open(path, password string, logger *zap.SugaredLogger) (*DocumentStore, error) {
	store, err := NewFileSnapshotStore(path, password, logger)
	if err != nil {
		return nil, err
	}

	ds, err := NewDocumentStore(store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return ds, nil
}

// NewDocumentStore hydrates a DocumentStore from store. Load failures are
// returned as-is; they are never replaced by an empty Database.
func NewDocumentStore(store SnapshotStore, logger *zap.SugaredLogger) (*DocumentStore, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	ds := &DocumentStore{
		store:  store,
		logger: logger,
		data:   Database{},
	}

	exists, err := store.Exists()
	if err != nil {
		logger.Errorw("Failed to check data file", "error", err)
		return nil, err
	}
	if exists {
		db, err := store.Load()
		if err != nil {
			logger.Errorw("Failed to load database", "error", err)
			return nil, err
		}
		ds.data = db
	} else {
		logger.Info("No data file found, starting with an empty database")
	}

	return ds, nil
}

// Close releases the underlying store. Later calls return ErrClosed.
func (s *DocumentStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.store.Close()
}

// commit persists next and makes it the current state.
func (s *DocumentStore) commit(op string, next Database) error {
	if err := s.store.Save(next); err != nil {
		s.logger.Errorw("Failed to persist snapshot", "op", op, "error", err)
		return err
	}
	s.data = next
	return nil
}

func (s *DocumentStore) collection(name string) ([]Document, error) {
	docs, ok := s.data[name]
	if !ok {
		return nil, fmt.Errorf("collection '%s': %w", name, ErrCollectionNotFound)
	}
	return docs, nil
}

// CreateCollection adds an empty collection.
func (s *DocumentStore) CreateCollection(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, exists := s.data[name]; exists {
		return fmt.Errorf("collection '%s': %w", name, ErrCollectionAlreadyExists)
	}

	next := s.data.shallowCopy()
	next[name] = []Document{}
	if err := s.commit("create_collection", next); err != nil {
		return err
	}

	s.logger.Infow("Created collection", "collection", name)
	return nil
}

// DropCollection removes a collection and its documents.
func (s *DocumentStore) DropCollection(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, err := s.collection(name); err != nil {
		return err
	}

	next := s.data.shallowCopy()
	delete(next, name)
	if err := s.commit("drop_collection", next); err != nil {
		return err
	}

	s.logger.Infow("Dropped collection", "collection", name)
	return nil
}

// Insert appends doc to the collection.
func (s *DocumentStore) Insert(collection string, doc Document) error {
	_, err := s.InsertMany(collection, []Document{doc})
	return err
}

// InsertMany appends docs in the given order and returns how many were
// inserted.
func (s *DocumentStore) InsertMany(collection string, docs []Document) (int, error) {
	normalized := make([]Document, 0, len(docs))
	for _, doc := range docs {
		n, err := normalizeDocument(doc)
		if err != nil {
			return 0, err
		}
		normalized = append(normalized, n)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}
	existing, err := s.collection(collection)
	if err != nil {
		return 0, err
	}

	combined := make([]Document, 0, len(existing)+len(normalized))
	combined = append(combined, existing...)
	combined = append(combined, normalized...)

	next := s.data.shallowCopy()
	next[collection] = combined
	if err := s.commit("insert", next); err != nil {
		return 0, err
	}
	return len(normalized), nil
}

// Find returns copies of the documents matching q, in stored order. A nil
// or empty query returns the whole collection.
func (s *DocumentStore) Find(collection string, q Query) ([]Document, error) {
	query, err := normalizeQuery(q)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	docs, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if Matches(doc, query) {
			out = append(out, cloneDocument(doc))
		}
	}
	return out, nil
}

// FindByField is Find with the single constraint field == value.
func (s *DocumentStore) FindByField(collection, field string, value interface{}) ([]Document, error) {
	return s.Find(collection, Query{field: value})
}

// Update shallow-merges updates into every document matching q and
// returns the number of documents changed. Zero matches is not an error.
func (s *DocumentStore) Update(collection string, q Query, updates Document) (int, error) {
	query, err := normalizeQuery(q)
	if err != nil {
		return 0, err
	}
	changes, err := normalizeDocument(updates)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}
	docs, err := s.collection(collection)
	if err != nil {
		return 0, err
	}

	matched := 0
	updated := make([]Document, len(docs))
	for i, doc := range docs {
		if !Matches(doc, query) {
			updated[i] = doc
			continue
		}
		merged := make(Document, len(doc)+len(changes))
		for k, v := range doc {
			merged[k] = v
		}
		for k, v := range changes {
			merged[k] = cloneValue(v)
		}
		updated[i] = merged
		matched++
	}

	next := s.data.shallowCopy()
	next[collection] = updated
	if err := s.commit("update", next); err != nil {
		return 0, err
	}
	return matched, nil
}

// DeleteOne removes the first document matching q. It reports false when
// nothing matched.
func (s *DocumentStore) DeleteOne(collection string, q Query) (bool, error) {
	query, err := normalizeQuery(q)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrClosed
	}
	docs, err := s.collection(collection)
	if err != nil {
		return false, err
	}

	index := -1
	for i, doc := range docs {
		if Matches(doc, query) {
			index = i
			break
		}
	}

	remaining := docs
	if index >= 0 {
		remaining = make([]Document, 0, len(docs)-1)
		remaining = append(remaining, docs[:index]...)
		remaining = append(remaining, docs[index+1:]...)
	}

	next := s.data.shallowCopy()
	next[collection] = remaining
	if err := s.commit("delete_one", next); err != nil {
		return false, err
	}
	return index >= 0, nil
}

// DeleteMany removes every document matching q, keeping survivors in
// order, and returns how many were removed.
func (s *DocumentStore) DeleteMany(collection string, q Query) (int, error) {
	query, err := normalizeQuery(q)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}
	docs, err := s.collection(collection)
	if err != nil {
		return 0, err
	}

	remaining := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if !Matches(doc, query) {
			remaining = append(remaining, doc)
		}
	}

	next := s.data.shallowCopy()
	next[collection] = remaining
	if err := s.commit("delete_many", next); err != nil {
		return 0, err
	}
	return len(docs) - len(remaining), nil
}

// Collections returns the collection names in ascending order.
func (s *DocumentStore) Collections() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Snapshot returns a deep copy of the whole Database.
func (s *DocumentStore) Snapshot() (Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	out := make(Database, len(s.data))
	for name, docs := range s.data {
		out[name] = cloneDocuments(docs)
	}
	return out, nil
}

// Collection returns a copy of the named collection; ok is false when it
// does not exist.
func (s *DocumentStore) Collection(name string) (docs []Document, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, false, ErrClosed
	}

	stored, ok := s.data[name]
	if !ok {
		return nil, false, nil
	}
	return cloneDocuments(stored), true, nil
}
