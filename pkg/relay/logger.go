package relay

// Field is a structured log field.
type Field struct {
	Key   string
	Value interface{}
}

// Logger receives the relay's structured log entries. Secret values are
// never passed as fields.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// NoopLogger discards everything.
type NoopLogger struct{}

func (n *NoopLogger) Debug(string, ...Field) {}
func (n *NoopLogger) Info(string, ...Field)  {}
func (n *NoopLogger) Warn(string, ...Field)  {}
func (n *NoopLogger) Error(string, ...Field) {}

// Field keys used by the handler.
const (
	fieldEventType   = "event_type"
	fieldEnvironment = "environment"
	fieldProfileID   = "profile_id"
	fieldReason      = "reason"
	fieldError       = "error"
	fieldStack       = "stack"
)

func stringField(key, value string) Field {
	return Field{Key: key, Value: value}
}

func errorField(err error) Field {
	return Field{Key: fieldError, Value: err.Error()}
}
