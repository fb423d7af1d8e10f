package observability

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/leslieo2/go-status-board/internal/config"
)

func enabledTracing(name string) config.TracingConfig {
	cfg := config.DefaultTracingConfig()
	cfg.Enabled = true
	cfg.ServiceName = name
	return cfg
}

func TestNewTracer_Disabled(t *testing.T) {
	tracer, err := NewTracer(config.DefaultTracingConfig())
	require.NoError(t, err)
	assert.False(t, tracer.Enabled())

	ctx, span := tracer.StartSpan(context.Background(), "status_snapshot", attribute.Int("status.services", 6))
	assert.False(t, span.IsRecording())
	assert.False(t, trace.SpanFromContext(ctx).SpanContext().IsValid())
	span.End()

	assert.NoError(t, tracer.Shutdown(context.Background()))
}

func TestTracer_ExportsNestedSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer, err := newTracer(enabledTracing("status-board-test"), &buf)
	require.NoError(t, err)
	assert.True(t, tracer.Enabled())

	ctx, page := tracer.StartSpan(context.Background(), "render_page",
		attribute.String("status.url", "http://127.0.0.1:8000/api/status"),
	)
	fetchCtx, fetch := tracer.StartSpan(ctx, "client.fetch")
	assert.Equal(t,
		trace.SpanFromContext(ctx).SpanContext().TraceID(),
		trace.SpanFromContext(fetchCtx).SpanContext().TraceID(),
	)
	fetch.End()
	page.End()

	require.NoError(t, tracer.Shutdown(context.Background()))

	out := buf.String()
	for _, want := range []string{"render_page", "client.fetch", "status-board-test", "service.instance.id"} {
		assert.Contains(t, out, want)
	}
}

func TestTracer_ZeroSampleRatioDropsRootSpans(t *testing.T) {
	cfg := enabledTracing("status-board-test")
	cfg.SampleRatio = 0

	var buf bytes.Buffer
	tracer, err := newTracer(cfg, &buf)
	require.NoError(t, err)

	_, span := tracer.StartSpan(context.Background(), "render_page")
	assert.False(t, span.IsRecording())
	span.End()

	require.NoError(t, tracer.Shutdown(context.Background()))
	assert.Empty(t, buf.String())
}

func TestTracer_ConcurrentSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer, err := newTracer(enabledTracing("status-board-test"), &buf)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, span := tracer.StartSpan(context.Background(), "health_check", attribute.Int("id", id))
			span.End()
		}(i)
	}
	wg.Wait()
	require.NoError(t, tracer.Shutdown(context.Background()))
}
