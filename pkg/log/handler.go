package log

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	aerrors "github.com/YuminosukeSato/aurora/pkg/errors"
)

const badKey = "!BADKEY"

// appendFields adds alternating key/value pairs to e. An error found in key
// position is expanded with appendError and consumes a single slot.
func appendFields(e *zerolog.Event, fields []any) *zerolog.Event {
	for i := 0; i < len(fields); i++ {
		if err, ok := fields[i].(error); ok {
			e = appendError(e, err)
			continue
		}
		key := fmt.Sprint(fields[i])
		if i+1 >= len(fields) {
			return e.Str(badKey, key)
		}
		i++
		switch v := fields[i].(type) {
		case string:
			e = e.Str(key, v)
		case int:
			e = e.Int(key, v)
		case int64:
			e = e.Int64(key, v)
		case uint64:
			e = e.Uint64(key, v)
		case float64:
			e = e.Float64(key, v)
		case bool:
			e = e.Bool(key, v)
		case time.Duration:
			e = e.Dur(key, v)
		case time.Time:
			e = e.Time(key, v)
		case error:
			e = e.Str(key, v.Error())
		default:
			e = e.Interface(key, v)
		}
	}
	return e
}

func appendContext(c zerolog.Context, fields []any) zerolog.Context {
	for i := 0; i < len(fields); i++ {
		if err, ok := fields[i].(error); ok {
			c = c.Str(ErrorKey, err.Error())
			continue
		}
		key := fmt.Sprint(fields[i])
		if i+1 >= len(fields) {
			return c.Str(badKey, key)
		}
		i++
		switch v := fields[i].(type) {
		case string:
			c = c.Str(key, v)
		case int:
			c = c.Int(key, v)
		case int64:
			c = c.Int64(key, v)
		case float64:
			c = c.Float64(key, v)
		case bool:
			c = c.Bool(key, v)
		case error:
			c = c.Str(key, v.Error())
		default:
			c = c.Interface(key, v)
		}
	}
	return c
}

// appendError attaches the message, the taxonomy kind, the first stack trace
// recorded by cockroachdb/errors and the structured detail of the first
// error in the chain that knows how to marshal itself.
func appendError(e *zerolog.Event, err error) *zerolog.Event {
	e = e.Str(ErrorKey, err.Error()).
		Str(ErrorKindKey, string(aerrors.KindOf(err)))
	if st := extractStacktrace(err); st != "" {
		e = e.Str(StacktraceKey, st)
	}
	var detail zerolog.LogObjectMarshaler
	if errors.As(err, &detail) {
		e = e.Object(ErrorDetailKey, detail)
	}
	return e
}

func extractStacktrace(err error) string {
	for _, payload := range errors.GetAllSafeDetails(err) {
		if len(payload.SafeDetails) > 0 && payload.SafeDetails[0] != "" {
			return payload.SafeDetails[0]
		}
	}
	return ""
}
