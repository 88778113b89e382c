package cli

import (
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/mesh-intelligence/cvtracker/internal/datastore"
)

// consoleNotifier prints notices as colored single lines.
type consoleNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsoleNotifier(w io.Writer) *consoleNotifier {
	return &consoleNotifier{w: w}
}

var noticeStyles = map[datastore.Level]struct {
	mark  string
	color *color.Color
}{
	datastore.LevelSuccess: {"✓", color.New(color.FgGreen)},
	datastore.LevelInfo:    {"i", color.New(color.FgCyan)},
	datastore.LevelWarning: {"!", color.New(color.FgYellow)},
	datastore.LevelError:   {"✗", color.New(color.FgRed, color.Bold)},
}

func (n *consoleNotifier) Notify(notice datastore.Notice) {
	style, ok := noticeStyles[notice.Level]
	if !ok {
		style = noticeStyles[datastore.LevelInfo]
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	style.color.Fprintf(n.w, "%s %s\n", style.mark, notice.Message)
}
