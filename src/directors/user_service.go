package directors

import (
	"secdb/src/auth"

	"go.uber.org/zap"
)

// UserService manages the users allowed to call the server. A service
// without a users file accepts every request.
type UserService struct {
	store  *auth.UserStore
	logger *zap.SugaredLogger
}

// NewUserService opens the users file at path. An empty path returns a
// disabled service.
func NewUserService(path string, logger *zap.SugaredLogger, opts ...auth.Option) (*UserService, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	service := &UserService{logger: logger}
	if path == "" {
		return service, nil
	}

	store, err := auth.NewUserStore(path, append([]auth.Option{auth.WithLogger(logger)}, opts...)...)
	if err != nil {
		return nil, err
	}
	service.store = store
	logger.Infof("users service loaded %d users", store.Len())
	return service, nil
}

// Enabled reports whether requests must authenticate.
func (s *UserService) Enabled() bool {
	return s.store != nil
}

func (s *UserService) AddUser(userName string, password string) (*auth.User, error) {
	if s.store == nil {
		return nil, errNoUsersFile
	}
	newUser, err := auth.NewUserStruct(userName, password)
	if err != nil {
		return nil, err
	}
	user, err := s.store.AddUser(*newUser)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("Added user", "user", user.Username, "id", user.ID)
	return user, nil
}

func (s *UserService) UpdateUser(userName string, password string) error {
	if s.store == nil {
		return errNoUsersFile
	}
	return s.store.UpdateUser(auth.NewUser{Username: userName, Password: password})
}

func (s *UserService) DeleteUser(userName string) error {
	if s.store == nil {
		return errNoUsersFile
	}
	return s.store.RemoveUser(userName)
}

func (s *UserService) ListUsers() []string {
	if s.store == nil {
		return []string{}
	}
	return s.store.ListUsers()
}

// Authenticate checks a username and password. With auth disabled every
// caller is accepted.
func (s *UserService) Authenticate(userName, password string) error {
	if s.store == nil {
		return nil
	}
	if _, err := s.store.VerifyCredentials(userName, password); err != nil {
		return ErrUnauthorized
	}
	return nil
}
