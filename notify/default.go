package notify

import (
	"context"
	"sync/atomic"

	"github.com/MrEthical07/goSession/apierror"
)

type holder struct{ sink Sink }

var defaultSink atomic.Pointer[holder]

func init() {
	defaultSink.Store(&holder{sink: NewTerminalSink(nil, false)})
}

// Default returns the process-wide sink. Until [SetDefault] is called it
// prints to standard error.
func Default() Sink {
	return defaultSink.Load().sink
}

// SetDefault replaces the process-wide sink and returns the previous one.
// A nil sink discards notifications.
func SetDefault(s Sink) Sink {
	if s == nil {
		s = NoOpSink{}
	}
	return defaultSink.Swap(&holder{sink: s}).sink
}

// Show sends a message to the default sink.
func Show(ctx context.Context, severity apierror.Severity, message string) {
	if ctx == nil {
		ctx = context.Background()
	}
	Default().Notify(ctx, New(severity, "", message))
}
