package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordToolCall(t *testing.T) {
	c := NewCollector("test")

	c.RecordToolCall("click", nil)
	c.RecordToolCall("click", nil)
	c.RecordToolCall("click", errors.New("No such element."))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.toolCalls.WithLabelValues("click", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.toolCalls.WithLabelValues("click", OutcomeError)))
}

func TestRecordLLMRequest(t *testing.T) {
	c := NewCollector("test")

	c.RecordLLMRequest("gpt-4o", 1500*time.Millisecond, 1000, 20, nil)
	c.RecordLLMRequest("gpt-4o", time.Second, 0, 0, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.llmRequests.WithLabelValues("gpt-4o", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.llmRequests.WithLabelValues("gpt-4o", OutcomeError)))
	assert.Equal(t, 1000.0, testutil.ToFloat64(c.llmTokens.WithLabelValues("gpt-4o", "prompt")))
	assert.Equal(t, 20.0, testutil.ToFloat64(c.llmTokens.WithLabelValues("gpt-4o", "completion")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.llmRequestDuration))
}

func TestNavigationBlockedAndTurns(t *testing.T) {
	c := NewCollector("")

	c.RecordNavigationBlocked()
	c.ObserveTurn(3 * time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.navigationsBlocked))
	assert.Equal(t, 1, testutil.CollectAndCount(c.turnDuration))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordToolCall("click", nil)
		c.RecordLLMRequest("m", time.Second, 1, 1, nil)
		c.ObserveTurn(time.Second)
		c.RecordNavigationBlocked()
	})
	assert.Nil(t, c.Registry())
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector("surfer")
	c.RecordToolCall("visit_url", nil)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `surfer_tool_calls_total{outcome="ok",tool="visit_url"} 1`)
}
