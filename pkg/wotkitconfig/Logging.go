package wotkitconfig

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// SetLogging sets the logging level and output file
// Intended to apply the Loglevel and LogFile configuration values.
//  levelName is the minimum logging level: error, warning, info, debug
//  filename of the log output file. Use "" to only log to stderr
// Returns an error when the log file cannot be opened
func SetLogging(levelName string, filename string) error {
	loggingLevel := logrus.DebugLevel

	if levelName != "" {
		switch strings.ToLower(levelName) {
		case "error":
			loggingLevel = logrus.ErrorLevel
		case "warn", "warning":
			loggingLevel = logrus.WarnLevel
		case "info":
			loggingLevel = logrus.InfoLevel
		default:
			loggingLevel = logrus.DebugLevel
		}
	}
	var logOut io.Writer = os.Stderr
	if filename != "" {
		logFileHandle, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			logrus.Errorf("SetLogging: unable to open logfile '%s': %s", filename, err)
			return err
		}
		logOut = io.MultiWriter(logOut, logFileHandle)
	}
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000-0700",
	})
	logrus.SetOutput(logOut)
	logrus.SetLevel(loggingLevel)
	return nil
}
