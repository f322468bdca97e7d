package auth

import (
	"encoding/json"
	"fmt"
	"sync"

	"secdb/src/helpers"

	"go.uber.org/zap"
)

// UserStore keeps server users in a JSON file. Only Argon2id hashes are
// stored, never passwords.
type UserStore struct {
	filePath string
	users    []User
	params   HashParams
	logger   *zap.SugaredLogger
	mu       sync.RWMutex
}

type Option func(*UserStore)

// WithHashParams overrides the cost parameters used for new hashes.
func WithHashParams(params HashParams) Option {
	return func(s *UserStore) { s.params = params }
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *UserStore) { s.logger = logger }
}

// NewUserStore opens the users file at filePath. A missing file is an
// empty store; it is created on the first write.
func NewUserStore(filePath string, opts ...Option) (*UserStore, error) {
	store := &UserStore{
		filePath: filePath,
		users:    []User{},
		params:   DefaultHashParams,
		logger:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.params.validate(); err != nil {
		return nil, err
	}

	exists, err := helpers.FileExists(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check user store: %w", err)
	}
	if exists {
		if err := store.Load(); err != nil {
			return nil, fmt.Errorf("failed to load user store: %w", err)
		}
	}
	return store, nil
}

// Path returns the users file location.
func (s *UserStore) Path() string {
	return s.filePath
}

// save writes users to disk; callers hold the write lock.
func (s *UserStore) save(users []User) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal users: %w", err)
	}
	if err := helpers.WriteFileAtomic(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write users file: %w", err)
	}
	s.logger.Debugw("Saved users file", "path", s.filePath, "users", len(users))
	return nil
}

// Load reads the user store from disk, replacing the in-memory users.
func (s *UserStore) Load() error {
	data, err := helpers.ReadDataFile(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var users []User
	if len(data) > 0 {
		if err := json.Unmarshal(data, &users); err != nil {
			return fmt.Errorf("%w: %w", ErrCorruptUsersFile, err)
		}
	}
	if users == nil {
		users = []User{}
	}
	for _, user := range users {
		if err := user.PasswordHash.validate(); err != nil {
			return fmt.Errorf("%w: user %q: %w", ErrCorruptUsersFile, user.Username, err)
		}
	}

	s.mu.Lock()
	s.users = users
	s.mu.Unlock()

	s.logger.Infow("Loaded users", "path", s.filePath, "users", len(users))
	return nil
}
