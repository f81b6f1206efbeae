package stats

import (
	"expvar"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatsUpdater(t *testing.T) {
	mux := http.NewServeMux()
	su := NewStatsUpdater(mux)
	assert.NotNil(t, su, "expected StatsUpdater to be non-nil")
	assert.NotNil(t, su.updateChan, "expected updateChan to be initialized")

	handler, pattern := mux.Handler(&http.Request{URL: &url.URL{Path: "/debug/vars"}, Method: http.MethodGet})
	assert.NotNil(t, handler, "expected handler for /debug/vars to be set")
	assert.Equal(t, "GET /debug/vars", pattern, "expected handler to be registered for GET method on /debug/vars")

	su.RegisterMetric("ActiveConnections")
	su.Run()

	su.Incr("ActiveConnections")
	su.Incr("ActiveConnections")
	su.Decr("ActiveConnections")

	assert.Eventually(t, func() bool {
		return su.vars.Get("ActiveConnections").(*expvar.Int).Value() == 1
	}, time.Second, 10*time.Millisecond, "expected metric to settle at 1")

	// updates to a metric nobody registered are counted, not fatal
	su.Incr("MessagesRelayed")
	assert.Eventually(t, func() bool {
		metric, ok := su.vars.Get("MessagesRelayed").(*expvar.Int)
		return ok && metric.Value() == 1
	}, time.Second, 10*time.Millisecond, "expected unregistered metric to be created on first update")

	su.Stop()

	assert.NotPanics(t, func() {
		su.Incr("ActiveConnections")
		su.Decr("ActiveConnections")
	}, "expected updates after Stop to be dropped quietly")
}
