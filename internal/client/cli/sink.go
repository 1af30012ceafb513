package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/jmezger/herdlog/internal/client/services"
)

// ConsoleSink renders notifications as prefixed console lines. A terminal
// cannot retract printed text, so Dismiss is a no-op; the superseding
// notification line is the visual replacement.
type ConsoleSink struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsoleSink(out io.Writer) *ConsoleSink {
	return &ConsoleSink{out: out}
}

func (s *ConsoleSink) Show(n services.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := fmt.Sprintf("[%s] %s", n.Kind, n.Message)
	if n.ActionLabel != "" {
		line += fmt.Sprintf(" (type '%s' to %s)", actionCommand(n.Flow), n.ActionLabel)
	}
	fmt.Fprintln(s.out, line)
}

func (s *ConsoleSink) Dismiss(services.Flow) {}

func actionCommand(flow services.Flow) string {
	if flow == services.FlowAnalysis {
		return "retry"
	}
	return "submit"
}
