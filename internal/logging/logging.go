package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the application logger: JSON lines on stdout.
func New() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
	log.SetOutput(os.Stdout)
	return log
}

// Error logs err with the module and function that hit it, plus optional
// extra fields. Best-effort call sites funnel through here so mirror
// failures stay visible without ever reaching the caller.
func Error(log *logrus.Logger, module, funcName string, err error, fields logrus.Fields) {
	if log == nil || err == nil {
		return
	}
	entry := log.WithFields(logrus.Fields{
		"module":   module,
		"funcName": funcName,
	})
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(err.Error())
}
