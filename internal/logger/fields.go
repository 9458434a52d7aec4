package logger

import (
	"fmt"
	"log/slog"
	"time"
)

// Standard field keys. Use them consistently so log lines can be queried by
// store, connection and lifecycle phase.
const (
	// Tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"
	KeyRunID   = "run_id"

	// Registry
	KeyStoreName      = "store_name"
	KeyConnectionName = "connection_name"
	KeyHandleType     = "handle_type"
	KeyCount          = "count"

	// Lifecycle
	KeyPhase       = "phase"
	KeyServicePath = "service_path"
	KeyHandler     = "handler"
	KeySucceeded   = "succeeded"
	KeyFailed      = "failed"
	KeySkipped     = "skipped"

	// Drivers
	KeyHost     = "host"
	KeyDatabase = "database"
	KeyPath     = "path"
	KeyBucket   = "bucket"
	KeyRegion   = "region"
	KeyVersion  = "version"

	// Operation metadata
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyAddress    = "address"
)

func StoreName(name string) slog.Attr {
	return slog.String(KeyStoreName, name)
}

func ConnectionName(name string) slog.Attr {
	return slog.String(KeyConnectionName, name)
}

// Phase returns a slog.Attr for a lifecycle phase name.
func Phase(phase string) slog.Attr {
	return slog.String(KeyPhase, phase)
}

func ServicePath(path string) slog.Attr {
	return slog.String(KeyServicePath, path)
}

func Handler(name string) slog.Attr {
	return slog.String(KeyHandler, name)
}

// HandleType returns the dynamic type of a connection handle as a slog.Attr.
func HandleType(conn any) slog.Attr {
	return slog.String(KeyHandleType, fmt.Sprintf("%T", conn))
}

// DurationMs returns a slog.Attr for a duration expressed in milliseconds.
func DurationMs(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMs, float64(d.Microseconds())/1000.0)
}

// Err returns a slog.Attr for an error. A nil error yields an empty Attr,
// which handlers drop.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
