package datastore

// Level classifies a notice.
type Level string

// Notice levels.
const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a short user-facing message.
type Notice struct {
	Level   Level
	Message string
}

// Notifier receives notices. Implementations must be safe for concurrent
// use.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify calls f.
func (f NotifierFunc) Notify(n Notice) { f(n) }

// NopNotifier drops every notice.
type NopNotifier struct{}

// Notify does nothing.
func (NopNotifier) Notify(Notice) {}
