package logger

import (
	"os"
	"runtime/debug"
	"strings"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// Initialize sets up the logger with the specified level. Output goes to
// stderr so stdout stays a clean protocol channel for the stdio transport.
func Initialize(level string) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05",
	})
	log.SetLevel(parseLevel(level))
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Debug logs a debug message
func Debug(format string, v ...interface{}) {
	log.Debugf(format, v...)
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	log.Infof(format, v...)
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	log.Warnf(format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	log.Errorf(format, v...)
}

// ErrorWithStack logs an error with a stack trace
func ErrorWithStack(err error) {
	if err == nil {
		return
	}
	log.Errorf("%v\n%s", err, debug.Stack())
}

// RequestLog logs details of an HTTP request
func RequestLog(method, url, sessionID, body string) {
	Debug("HTTP Request: %s %s", method, url)
	if sessionID != "" {
		Debug("Session ID: %s", sessionID)
	}
	if body != "" {
		Debug("Request Body: %s", body)
	}
}

// RequestResponseLog logs a request and its response together for correlation
func RequestResponseLog(method, sessionID, request, response string) {
	Debug("Request [%s] session=%s: %s", method, sessionID, request)
	Debug("Response [%s] session=%s: %s", method, sessionID, response)
}
