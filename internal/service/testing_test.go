package service

import (
	"io"

	"github.com/sirupsen/logrus"
)

// newTestLogger returns a logger that discards all output.
func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
