package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"dailybrief/internal/trace"
)

func spanByName(t *testing.T, spans []trace.SpanRecord, name string) trace.SpanRecord {
	t.Helper()
	for _, s := range spans {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("span %q not found", name)
	return trace.SpanRecord{}
}

func TestExecuteSuccess(t *testing.T) {
	recorder := trace.NewRecorder()
	run := recorder.StartSpan("pipeline_run", nil)
	e := NewExecutor(0)

	result, rec := e.Execute(context.Background(), run, StageWrite, Invocation{
		Kind: KindWrite,
		Call: func(ctx context.Context) (string, error) {
			return `{"summary": "done"}`, nil
		},
	})

	assert.Equal(t, true, result.Success)
	assert.Equal(t, StageWrite, result.Stage)
	assert.Equal(t, "done", rec.Summary())
	assert.Equal(t, "done", result.Data["summary"])
	assert.Equal(t, "strict", result.Data["tier"])

	span := spanByName(t, recorder.Snapshot(), "write_execution")
	assert.Equal(t, true, span.Closed)
	assert.Equal(t, nil, span.Error)
	assert.Equal(t, "success", span.Data["status"])
}

func TestExecuteFailure(t *testing.T) {
	recorder := trace.NewRecorder()
	run := recorder.StartSpan("pipeline_run", nil)
	e := NewExecutor(0)

	result, rec := e.Execute(context.Background(), run, StageAnalysis, Invocation{
		Kind: KindAnalysis,
		Call: func(ctx context.Context) (string, error) {
			return "", errors.New("provider unavailable")
		},
	})

	assert.Equal(t, false, result.Success)
	assert.Equal(t, "provider unavailable", result.Error)
	assert.Equal(t, nil, rec)
	assert.Equal(t, 0, len(result.Data))

	// The span is still closed, with the error marked before closing.
	span := spanByName(t, recorder.Snapshot(), "analysis_execution")
	assert.Equal(t, true, span.Closed)
	assert.Equal(t, "provider unavailable", span.Error["message"])
}

func TestExecuteMalformedOutputIsNotFailure(t *testing.T) {
	recorder := trace.NewRecorder()
	run := recorder.StartSpan("pipeline_run", nil)
	e := NewExecutor(0)

	result, rec := e.Execute(context.Background(), run, StageAnalysis, Invocation{
		Kind: KindAnalysis,
		Call: func(ctx context.Context) (string, error) {
			return "not json at all", nil
		},
	})

	assert.Equal(t, true, result.Success)
	assert.Equal(t, TierRaw, rec.Tier())
	assert.Equal(t, "raw", result.Data["tier"])
}

func TestExecuteTimeout(t *testing.T) {
	recorder := trace.NewRecorder()
	run := recorder.StartSpan("pipeline_run", nil)
	e := NewExecutor(10 * time.Millisecond)

	result, _ := e.Execute(context.Background(), run, StageTrend, Invocation{
		Kind: KindTrend,
		Call: func(ctx context.Context) (string, error) {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(5 * time.Second):
				return "too late", nil
			}
		},
	})

	assert.Equal(t, false, result.Success)
	assert.NotEqual(t, "", result.Error)
}

func TestExecuteTool(t *testing.T) {
	recorder := trace.NewRecorder()
	run := recorder.StartSpan("pipeline_run", nil)
	e := NewExecutor(0)

	result := e.ExecuteTool(context.Background(), run, StageQuote, map[string]any{"symbol": "AAPL"}, func(ctx context.Context) (map[string]any, error) {
		return map[string]any{"symbol": "AAPL"}, nil
	})

	assert.Equal(t, true, result.Success)
	assert.Equal(t, "AAPL", result.Data["symbol"])

	span := spanByName(t, recorder.Snapshot(), "quote_execution")
	assert.Equal(t, true, span.Closed)
	assert.Equal(t, "AAPL", span.Meta["symbol"])
}

func TestExecuteToolFailure(t *testing.T) {
	recorder := trace.NewRecorder()
	run := recorder.StartSpan("pipeline_run", nil)
	e := NewExecutor(0)

	result := e.ExecuteTool(context.Background(), run, StageAudio, nil, func(ctx context.Context) (map[string]any, error) {
		return nil, errors.New("speech endpoint down")
	})

	assert.Equal(t, false, result.Success)
	assert.Equal(t, "speech endpoint down", result.Error)

	span := spanByName(t, recorder.Snapshot(), "audio_execution")
	assert.Equal(t, true, span.Closed)
	assert.Equal(t, "speech endpoint down", span.Error["message"])
}
