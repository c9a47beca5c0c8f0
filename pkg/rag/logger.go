package rag

// Logger is the structured logger used across the rag packages.
// It matches the application logger so the same instance can be injected.
type Logger interface {
	Debug(module, message string, details map[string]interface{})
	Info(module, message string, details map[string]interface{})
	Warn(module, message string, details map[string]interface{})
	Error(module, message string, details map[string]interface{})
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, string, map[string]interface{}) {}
func (NopLogger) Info(string, string, map[string]interface{})  {}
func (NopLogger) Warn(string, string, map[string]interface{})  {}
func (NopLogger) Error(string, string, map[string]interface{}) {}

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}
