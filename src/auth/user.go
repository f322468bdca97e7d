package auth

import (
	"fmt"
	"strings"
	"time"

	"secdb/src/helpers"
)

type PasswordHash struct {
	Hash    []byte `json:"hash"`
	Salt    []byte `json:"salt"`
	Method  string `json:"method"`  // "argon2id"
	Time    uint32 `json:"time"`    // time parameter for Argon2
	Memory  uint32 `json:"memory"`  // memory parameter in KiB
	Threads uint8  `json:"threads"` // threads parameter
	KeyLen  uint32 `json:"keylen"`  // length of the hash in bytes
}

type User struct {
	ID             string       `json:"id"`
	Username       string       `json:"username"`
	PasswordHash   PasswordHash `json:"password_hash"`
	CreatedAt      time.Time    `json:"created_at"`
	LastModifiedAt time.Time    `json:"last_modified_at"`
}

// NewUser is a user before its password has been hashed.
type NewUser struct {
	ID       string
	Username string
	Password string
}

// NewUserStruct builds a NewUser with a fresh id.
func NewUserStruct(username, password string) (*NewUser, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.ContainsAny(username, ":\r\n") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}
	return &NewUser{
		ID:       helpers.GenerateUUID(),
		Username: username,
		Password: password,
	}, nil
}

func (u User) public() *User {
	return &User{
		ID:             u.ID,
		Username:       u.Username,
		CreatedAt:      u.CreatedAt,
		LastModifiedAt: u.LastModifiedAt,
	}
}

// GetUser retrieves a user by username, without its password hash.
func (s *UserStore) GetUser(username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, storedUser := range s.users {
		if storedUser.Username == username {
			return storedUser.public(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
}

// ListUsers returns the usernames in insertion order.
func (s *UserStore) ListUsers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usernames := make([]string, len(s.users))
	for i, user := range s.users {
		usernames[i] = user.Username
	}
	return usernames
}

// Len returns the number of users.
func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// AddUser hashes the password and persists the new user.
func (s *UserStore) AddUser(user NewUser) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existingUser := range s.users {
		if existingUser.Username == user.Username {
			return nil, fmt.Errorf("%w: %s", ErrUserAlreadyExists, user.Username)
		}
	}

	hash, err := hashPassword(user.Password, s.params)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	storedUser := User{
		ID:             user.ID,
		Username:       user.Username,
		PasswordHash:   hash,
		CreatedAt:      now,
		LastModifiedAt: now,
	}

	next := append(append([]User{}, s.users...), storedUser)
	if err := s.save(next); err != nil {
		return nil, err
	}
	s.users = next
	return storedUser.public(), nil
}

// UpdateUser replaces the password of an existing user.
func (s *UserStore) UpdateUser(updatedUser NewUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existingUser := range s.users {
		if existingUser.Username != updatedUser.Username {
			continue
		}
		hash, err := hashPassword(updatedUser.Password, s.params)
		if err != nil {
			return err
		}

		next := append([]User{}, s.users...)
		next[i].PasswordHash = hash
		next[i].LastModifiedAt = time.Now().UTC()
		if err := s.save(next); err != nil {
			return err
		}
		s.users = next
		return nil
	}

	return fmt.Errorf("%w: %s", ErrUserNotFound, updatedUser.Username)
}

// RemoveUser removes a user from the store
func (s *UserStore) RemoveUser(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existingUser := range s.users {
		if existingUser.Username != username {
			continue
		}
		next := make([]User, 0, len(s.users)-1)
		next = append(next, s.users[:i]...)
		next = append(next, s.users[i+1:]...)
		if err := s.save(next); err != nil {
			return err
		}
		s.users = next
		return nil
	}

	return fmt.Errorf("%w: %s", ErrUserNotFound, username)
}
