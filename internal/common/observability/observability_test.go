package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	"venue-recommender/internal/common/logger"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservability_RecordsToRegistry(t *testing.T) {
	reg := promclient.NewRegistry()
	o := New("venue-recommender-test", reg, logger.NewTestLogger(t))
	defer o.Shutdown(context.Background())

	ctx, span := o.StartSpan(context.Background(), "test")
	o.RecordRecommendation(ctx, 120*time.Millisecond, true, 7)
	o.RecordCompletion(ctx, "explain", "timeout")
	span.End()

	families, err := reg.Gather()
	require.NoError(t, err)

	var sawRequests, sawCompletions bool
	for _, f := range families {
		name := f.GetName()
		if strings.Contains(name, "recommendation") && strings.Contains(name, "requests") {
			sawRequests = true
		}
		if strings.Contains(name, "genai") && strings.Contains(name, "completions") {
			sawCompletions = true
		}
	}
	assert.True(t, sawRequests)
	assert.True(t, sawCompletions)
}

func TestObservability_ZeroValueIsSafe(t *testing.T) {
	var o Observability
	ctx, span := o.StartSpan(context.Background(), "noop")
	o.RecordRecommendation(ctx, time.Second, false, 0)
	o.RecordCompletion(ctx, "parse", "ok")
	span.End()
	o.Shutdown(context.Background())
}

func TestNewTracing_RequiresEndpoint(t *testing.T) {
	_, err := NewTracing("svc", "", 1)
	assert.Error(t, err)
}

func TestNewTracing(t *testing.T) {
	tr, err := NewTracing("svc", "http://localhost:14268/api/traces", 2)
	require.NoError(t, err)

	o := (&Observability{}).WithTracing(tr, "svc")
	_, span := o.StartSpan(context.Background(), "traced")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = tr.Shutdown(ctx)
}
