package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestRecordAgentExecution(t *testing.T) {
	tests := []struct {
		name       string
		agent      string
		status     string
		durationMS int
	}{
		{"successful orchestrator", "orchestrator", "success", 100},
		{"failed specialist", "payment", "error", 50},
		{"slow specialist", "recommendation", "success", 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordAgentExecution(tt.agent, tt.status, tt.durationMS)

			count := testutil.ToFloat64(agentExecutionsTotal.WithLabelValues(tt.agent, tt.status))
			assert.Greater(t, count, 0.0)
		})
	}
}

func TestRecordToolCall(t *testing.T) {
	RecordToolCall("db_queryProducts", "success", 12)
	RecordToolCall("support_getOrderStatus", "error", 3)

	assert.Greater(t, testutil.ToFloat64(toolCallsTotal.WithLabelValues("db_queryProducts", "success")), 0.0)
	assert.Greater(t, testutil.ToFloat64(toolCallsTotal.WithLabelValues("support_getOrderStatus", "error")), 0.0)
}

func TestRecordConversationRunAndCoercion(t *testing.T) {
	RecordConversationRun("voice", "timeout", 4, 10000)
	RecordRouteCoercion("sales")

	assert.Greater(t, testutil.ToFloat64(conversationRunsTotal.WithLabelValues("voice", "timeout")), 0.0)
	assert.Greater(t, testutil.ToFloat64(routeCoercionsTotal.WithLabelValues("sales")), 0.0)
}

func TestInitTracerDisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), TracingConfig{Enabled: false}, "test")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestStartSpanWithoutProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "unit", attribute.String("agent", "orchestrator"))
	require.NotNil(t, ctx)
	EndSpan(span, errors.New("boom"))
}
