package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicecalc/internal/application"
	"voicecalc/internal/domain"
	"voicecalc/internal/infra/metrics"
)

var _ application.Metrics = (*metrics.Collector)(nil)

func TestCollector_RecordsSessionMetrics(t *testing.T) {
	c := metrics.NewCollector("voicecalc")

	c.ObserveEvaluation(domain.SourceTypeSpeech, domain.ErrorKindNone, time.Millisecond)
	c.ObserveEvaluation(domain.SourceTypeSpeech, domain.ErrorKindIncompleteExpression, time.Millisecond)
	c.ObserveTransition(domain.SessionStateIdle, domain.SessionStateListening)
	c.ObserveDroppedFinal("speaking")
	c.ObserveCacheLookup("es", false)
	c.ObserveCacheLookup("es", true)
	c.ObserveSinkDrop("webhook")

	expected := `
# HELP voicecalc_evaluations_total Expressions evaluated, by input source and outcome
# TYPE voicecalc_evaluations_total counter
voicecalc_evaluations_total{outcome="incomplete_expression",source="speech"} 1
voicecalc_evaluations_total{outcome="ok",source="speech"} 1
`
	err := testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "voicecalc_evaluations_total")
	require.NoError(t, err)

	assert.Equal(t, 1, testutil.CollectAndCount(c.Registry(), "voicecalc_session_state_transitions_total"))
	assert.Equal(t, 2, testutil.CollectAndCount(c.Registry(), "voicecalc_matcher_cache_lookups_total"))
}

func TestCollector_HandlerAndMiddleware(t *testing.T) {
	c := metrics.NewCollector("voicecalc")
	h := c.Middleware("/calculate", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/calculate", nil))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `voicecalc_http_requests_total{method="POST",path="/calculate",status="418"} 1`)
}
