package base

import "log"

// Logger is the logging sink used by FileDatabase, which logs a flush
// failure on Dispose; CleanTo and CleanFrom do not log.
// It mirrors pebble's base.Logger: small and easy to adapt to any backend.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// DefaultLogger writes to the standard library's default logger. No
// structured logging library appears in this repository's dependency
// surface, so the ambient logging concern is met by wrapping the stdlib
// behind the Logger interface rather than importing one.
var DefaultLogger Logger = stdLogger{}

type stdLogger struct{}

func (stdLogger) Infof(format string, args ...interface{})  { log.Printf("[stringdb] "+format, args...) }
func (stdLogger) Errorf(format string, args ...interface{}) { log.Printf("[stringdb] ERROR: "+format, args...) }
