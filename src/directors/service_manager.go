package directors

import (
	"errors"

	"secdb/src/settings"

	"go.uber.org/zap"
)

var errNoUsersFile = errors.New("no users file configured")

// ServiceManager bundles the services a server process needs.
type ServiceManager struct {
	DatabaseService *DatabaseService
	UserService     *UserService
	logger          *zap.SugaredLogger
}

// NewServiceManager opens the database and, when configured, the users
// file.
func NewServiceManager(args *settings.Arguments, logger *zap.SugaredLogger) (*ServiceManager, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	users, err := NewUserService(args.UsersFile, logger)
	if err != nil {
		return nil, err
	}

	db, err := NewDatabaseService(args, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("ServiceManager initialized")
	return &ServiceManager{
		DatabaseService: db,
		UserService:     users,
		logger:          logger,
	}, nil
}

// Close releases the database file.
func (m *ServiceManager) Close() error {
	return m.DatabaseService.Close()
}
