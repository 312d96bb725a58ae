package logger

import "context"

type fieldsKey struct{}

// WithFields returns a context carrying key/value pairs (slog-style,
// alternating key, value) that DebugCtx/InfoCtx/WarnCtx/ErrorCtx will
// attach to every log line. Typically used to pin run id and ixlan id
// for the duration of one reconciliation run.
func WithFields(ctx context.Context, kv ...any) context.Context {
	existing, _ := ctx.Value(fieldsKey{}).([]any)
	merged := make([]any, 0, len(existing)+len(kv))
	merged = append(merged, existing...)
	merged = append(merged, kv...)
	return context.WithValue(ctx, fieldsKey{}, merged)
}

func withCtx(ctx context.Context, args []any) []any {
	fields, _ := ctx.Value(fieldsKey{}).([]any)
	if len(fields) == 0 {
		return args
	}
	out := make([]any, 0, len(fields)+len(args))
	out = append(out, fields...)
	out = append(out, args...)
	return out
}
