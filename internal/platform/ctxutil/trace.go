package ctxutil

import "context"

type traceKey struct{}

// Trace identifies the HTTP request that started a unit of work. Queued jobs
// carry it in their payload so worker logs line up with the webhook delivery.
type Trace struct {
	TraceID   string
	RequestID string
}

func (t Trace) Empty() bool { return t.TraceID == "" && t.RequestID == "" }

// Fields returns the non-empty ids as logger key/value pairs.
func (t Trace) Fields() []any {
	out := make([]any, 0, 4)
	if t.TraceID != "" {
		out = append(out, "trace_id", t.TraceID)
	}
	if t.RequestID != "" {
		out = append(out, "request_id", t.RequestID)
	}
	return out
}

func WithTrace(ctx context.Context, t Trace) context.Context {
	return context.WithValue(Default(ctx), traceKey{}, t)
}

// TraceFrom returns the zero Trace when ctx carries none.
func TraceFrom(ctx context.Context) Trace {
	if ctx == nil {
		return Trace{}
	}
	t, _ := ctx.Value(traceKey{}).(Trace)
	return t
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
