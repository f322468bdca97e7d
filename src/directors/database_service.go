package directors

import (
	"secdb/src/engine"
	"secdb/src/settings"

	"go.uber.org/zap"
)

// DatabaseService owns the DocumentStore opened from the runtime settings.
type DatabaseService struct {
	store    *engine.DocumentStore
	settings *settings.Arguments
	logger   *zap.SugaredLogger
}

// NewDatabaseService opens the data file named in args. Load failures
// (wrong password, corrupted file, file in use) are returned; the service
// never falls back to an empty database.
func NewDatabaseService(args *settings.Arguments, logger *zap.SugaredLogger) (*DatabaseService, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	store, err := engine.Open(args.DataFile, args.Password, logger)
	if err != nil {
		return nil, err
	}

	service := &DatabaseService{
		store:    store,
		settings: args,
		logger:   logger,
	}

	if names, err := store.Collections(); err == nil {
		logger.Infof("Database service loaded %d collections from %s", len(names), args.DataFile)
	}
	return service, nil
}

// Store exposes the underlying DocumentStore.
func (s *DatabaseService) Store() *engine.DocumentStore {
	return s.store
}

// Execute runs one transport action.
func (s *DatabaseService) Execute(action string, req *Request) *Response {
	return CommandDirector(s.store, action, req, s.logger)
}

func (s *DatabaseService) Close() error {
	return s.store.Close()
}
