package log

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

const (
	// ErrAttrKey is the field key under which errors are passed to a Logger.
	ErrAttrKey = "error"
	// StacktraceAttrKey is the field key the stack trace is emitted under.
	StacktraceAttrKey = "stacktrace"
)

var stackMarshalerOnce sync.Once

// installStackMarshaler makes zerolog's Stack() emit the stack trace that
// cockroachdb/errors records in WithStack.
func installStackMarshaler() {
	stackMarshalerOnce.Do(func() {
		zerolog.ErrorStackFieldName = StacktraceAttrKey
		zerolog.ErrorStackMarshaler = func(err error) interface{} {
			if st := extractStacktrace(err); st != "" {
				return st
			}
			return nil
		}
	})
}

func extractStacktrace(err error) string {
	for _, payload := range errors.GetAllSafeDetails(err) {
		for _, detail := range payload.SafeDetails {
			if detail != "" {
				return detail
			}
		}
	}
	return ""
}
