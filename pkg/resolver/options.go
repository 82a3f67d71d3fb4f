package resolver

import (
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/dotget/pkg/logger"
)

// Options control how a resolved value is classified as missing and whether
// failed lookups emit diagnostics. The zero value is the default behavior:
// nil and empty-string results are returned as-is and nothing is logged.
type Options struct {
	// NilAsMissing returns the default when the resolved value is an
	// explicit nil.
	NilAsMissing bool

	// EmptyStringAsMissing returns the default when the resolved value is
	// the empty string.
	EmptyStringAsMissing bool

	// DebugTrace logs a diagnostic whenever resolution falls back to the
	// default, naming the key where traversal stopped.
	DebugTrace bool

	// Logger receives trace output when DebugTrace is set. Nil falls back
	// to the process-wide logger.
	Logger *logr.Logger
}

func (o Options) tracer() *logr.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logger.GetGlobalLogger()
}
