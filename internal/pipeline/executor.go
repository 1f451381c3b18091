package pipeline

import (
	"context"
	"log/slog"
	"time"

	"dailybrief/internal/trace"
)

// Executor wraps a single unit of pipeline work with a uniform contract:
// exactly one trace span per call (always closed, marked on error), a
// per-call timeout, and normalization of the raw result. Errors never
// propagate past it; they become failed StageResults.
type Executor struct {
	timeout time.Duration
}

func NewExecutor(timeout time.Duration) *Executor {
	return &Executor{timeout: timeout}
}

// Invocation describes one LLM-backed stage call: the record shape its
// output normalizes to, span metadata, and the call itself.
type Invocation struct {
	Kind StageKind
	Meta map[string]any
	Call func(ctx context.Context) (string, error)
}

// Execute runs one stage. The returned Record is nil exactly when the result
// is a failure.
func (e *Executor) Execute(ctx context.Context, parent trace.Span, stage string, inv Invocation) (StageResult, Record) {
	span := parent.StartSpan(stage+"_execution", inv.Meta)
	defer span.Close()

	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	raw, err := inv.Call(callCtx)
	if err != nil {
		slog.Error("stage failed", "stage", stage, "error", err)
		span.SetError(map[string]any{"message": err.Error()})
		return StageResult{Stage: stage, Success: false, Error: err.Error()}, nil
	}

	rec := Normalize(inv.Kind, raw)
	data := rec.Data()
	span.SetData(map[string]any{"status": "success", "tier": rec.Tier().String()})

	return StageResult{Stage: stage, Success: true, Data: data}, rec
}

// ExecuteTool runs a tool-backed stage whose call already produces a typed
// payload (quote lookup, audio synthesis); the normalization cascade does
// not apply. Span contract is identical to Execute.
func (e *Executor) ExecuteTool(ctx context.Context, parent trace.Span, stage string, meta map[string]any, call func(ctx context.Context) (map[string]any, error)) StageResult {
	span := parent.StartSpan(stage+"_execution", meta)
	defer span.Close()

	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	data, err := call(callCtx)
	if err != nil {
		slog.Error("stage failed", "stage", stage, "error", err)
		span.SetError(map[string]any{"message": err.Error()})
		return StageResult{Stage: stage, Success: false, Error: err.Error()}
	}

	span.SetData(map[string]any{"status": "success"})
	return StageResult{Stage: stage, Success: true, Data: data}
}

func (e *Executor) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}
