package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCheckoutByMethod(t *testing.T) {
	m, err := New(Config{ServiceName: "lounge", Environment: "test"}, prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordCheckout("CASH")
	m.RecordCheckout("CASH")
	m.RecordCheckout("SPLIT")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.checkouts.WithLabelValues("CASH")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.checkouts.WithLabelValues("SPLIT")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordSessionStarted()
		m.RecordCheckout("UPI")
		m.RecordProfileFallback("CONSOLE")
		m.RecordOutOfStock()
		m.RecordTransferClaimed()
	})
}

func TestNewRejectsDoubleRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := New(Config{}, registry)
	require.NoError(t, err)

	_, err = New(Config{}, registry)
	assert.Error(t, err)
}
