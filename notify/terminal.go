package notify

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/MrEthical07/goSession/apierror"
)

// TerminalSink prints notifications as severity-colored lines.
type TerminalSink struct {
	mu     sync.Mutex
	w      io.Writer
	styles map[apierror.Severity]*color.Color
}

// NewTerminalSink writes to w, or os.Stderr when w is nil. Colors follow
// fatih/color's terminal detection unless noColor is set.
func NewTerminalSink(w io.Writer, noColor bool) *TerminalSink {
	if w == nil {
		w = os.Stderr
	}
	styles := map[apierror.Severity]*color.Color{
		apierror.SeverityLow:      color.New(color.FgCyan),
		apierror.SeverityMedium:   color.New(color.FgYellow),
		apierror.SeverityHigh:     color.New(color.FgRed),
		apierror.SeverityCritical: color.New(color.FgHiRed, color.Bold),
	}
	if noColor {
		for _, c := range styles {
			c.DisableColor()
		}
	}
	return &TerminalSink{w: w, styles: styles}
}

func (s *TerminalSink) Notify(_ context.Context, n Notification) {
	style, ok := s.styles[n.Severity]
	if !ok {
		style = s.styles[apierror.SeverityMedium]
	}
	msg := strings.TrimSpace(n.Message)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = style.Fprintf(s.w, "%-8s", n.Severity.String())
	_, _ = io.WriteString(s.w, " "+msg+"\n")
}
