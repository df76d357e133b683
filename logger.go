package trx24

// Logger takes preformatted messages. The driver builds them with string
// concatenation and strconv so no formatting runs in interrupt context.
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

var globalLogger Logger = &nopLogger{}

// SetLogger replaces the logger used by devices whose RadioConfig.Logger
// is nil. It must be called before the device is created; passing nil
// silences them.
func SetLogger(l Logger) {
	if l == nil {
		globalLogger = &nopLogger{}
		return
	}
	globalLogger = l
}

// logFailure reports a failed bus operation at Error level.
func logFailure(l Logger, what string, err error) {
	l.Error("Failed to " + what + ": " + err.Error())
}

type nopLogger struct{}

func (l *nopLogger) Debug(msg string) {}
func (l *nopLogger) Info(msg string)  {}
func (l *nopLogger) Warn(msg string)  {}
func (l *nopLogger) Error(msg string) {}
