package logging

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type Fields map[string]interface{}

func output(level, msg string, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}
	fields["level"] = level
	fields["ts"] = time.Now().UTC().Format(time.RFC3339)
	fields["msg"] = msg
	b, err := json.Marshal(fields)
	if err != nil {
		// fallback to plain logging
		log.Printf("%s: %s (%v)\n", level, msg, fields)
		return
	}
	log.Println(string(b))
}

// WithTrace copies fields and adds the trace and span IDs of the span
// carried by ctx, if any.
func WithTrace(ctx context.Context, fields Fields) Fields {
	out := Fields{}
	for k, v := range fields {
		out[k] = v
	}
	sc := trace.SpanContextFromContext(ctx)
	if sc.IsValid() {
		out["trace_id"] = sc.TraceID().String()
		out["span_id"] = sc.SpanID().String()
	}
	return out
}

// Info logs an informational message with optional fields.
func Info(msg string, fields Fields) {
	output("info", msg, fields)
}

// Warn logs a recoverable problem. The error, when present, is added to the fields.
func Warn(msg string, err error, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	output("warn", msg, fields)
}

// Error logs an error message and includes the error text in the fields.
func Error(msg string, err error, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	output("error", msg, fields)
}

// Fatal logs a fatal error and exits the process.
func Fatal(msg string, err error, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	output("fatal", msg, fields)
	os.Exit(1)
}
