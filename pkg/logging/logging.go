package logging

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the logger shared by all site components.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.InfoLevel)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return log
}

// NewTestLogger is quiet unless something goes wrong; used by _test.go
// fixtures so passing runs stay readable.
func NewTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.ErrorLevel)
	return log
}
