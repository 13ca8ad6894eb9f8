package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// SetupLogger configures the standard logrus logger from LOG_LEVEL and
// LOG_FORMAT.  An unknown level falls back to info.
func SetupLogger(c Config) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stdout)
	if c.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if err != nil {
		logrus.WithField("log_level", c.LogLevel).Warn("unknown log level, using info")
	}
}
