package config

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Entry

func NewLoggerService() *logrus.Entry {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(strings.ToLower(GetEnv("LOG_LEVEL", "info")))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	Logger = logger.WithField("service", GetEnv("SERVICE_NAME", "ledger"))

	return Logger
}
