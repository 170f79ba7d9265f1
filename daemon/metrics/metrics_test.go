package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/ecmoce/sysops-agent/daemon/config"
)

func TestRecordAlertDispatchedIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(alertsDispatchedTotal.WithLabelValues("critical"))
	RecordAlertDispatched("critical")
	after := testutil.ToFloat64(alertsDispatchedTotal.WithLabelValues("critical"))
	assert.Equal(t, before+1, after)
}

func TestObserveCollectorDurationDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		ObserveCollectorDuration("cpu", 10*time.Millisecond)
	})
}

func TestNewServerDisabledReturnsNil(t *testing.T) {
	assert.Nil(t, NewServer(config.PrometheusConfig{Enabled: false}))
}

func TestNewServerEnabledBuildsServer(t *testing.T) {
	s := NewServer(config.PrometheusConfig{Enabled: true, Bind: "127.0.0.1:0"})
	assert.NotNil(t, s)
}
