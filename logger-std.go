//go:build !tinygo

package trx24

import (
	"log"
)

func init() {
	globalLogger = &stdLogger{prefix: "trx24: "}
}

// stdLogger is a default logger that uses the standard library log package.
type stdLogger struct {
	prefix string
}

func (l *stdLogger) Debug(msg string) {
	log.Print("[DEBUG] " + l.prefix + msg)
}

func (l *stdLogger) Info(msg string) {
	log.Print("[INFO]  " + l.prefix + msg)
}

func (l *stdLogger) Warn(msg string) {
	log.Print("[WARN]  " + l.prefix + msg)
}

func (l *stdLogger) Error(msg string) {
	log.Print("[ERROR] " + l.prefix + msg)
}
