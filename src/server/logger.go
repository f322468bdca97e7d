package server

import (
	"fmt"

	"secdb/src/settings"

	"go.uber.org/zap"
)

// NewLogger builds the process logger: a development config on stdout in
// debug mode, the production config otherwise.
func NewLogger(config *settings.Arguments) (*zap.SugaredLogger, error) {
	var logger *zap.Logger
	var err error

	if config.Debug {
		z := zap.NewDevelopmentConfig()
		z.OutputPaths = []string{"stdout"}
		logger, err = z.Build()
	} else {
		z := zap.NewProductionConfig()
		if config.Verbose {
			z.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		}
		logger, err = z.Build()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return logger.Sugar(), nil
}
