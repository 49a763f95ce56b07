package logging

import (
	"strings"

	"go.uber.org/zap"
)

// New builds a JSON logger for "prod"/"production" and a console logger
// otherwise. The process name is attached to every entry.
func New(mode, name string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if name != "" {
		logger = logger.With(zap.String("process", name))
	}
	return logger, nil
}
