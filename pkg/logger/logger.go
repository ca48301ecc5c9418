package logger

import (
	"log"

	"go.uber.org/zap"
)

// New creates a zap logger configured for the given environment.
func New(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)

	switch env {
	case "local", "development":
		logger, err = zap.NewDevelopment()
	default:
		logger, err = zap.NewProduction()
	}

	if err != nil {
		log.Fatalf("cannot initialize zap logger: %v", err)
	}

	return logger
}
