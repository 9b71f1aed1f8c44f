package app

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/searchktools/pool-server/config"
)

// NewLogger builds the process logger from cfg's level and format
func NewLogger(cfg *config.Config) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)

	if cfg.LogFormat == config.LogFormatJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}
