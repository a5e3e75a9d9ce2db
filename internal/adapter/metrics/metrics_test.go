package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.VaultCreated()
	m.VaultCreated()
	m.TransferCommitted(300)
	m.TransferRejected("AUTH_001")
	m.TransferRejected("AUTH_001")
	m.TransferRejected("LED_001")
	m.Airdropped(1000)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.VaultsCreated))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Transfers.WithLabelValues("committed", "")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Transfers.WithLabelValues("rejected", "AUTH_001")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Transfers.WithLabelValues("rejected", "LED_001")))
	assert.Equal(t, float64(300), testutil.ToFloat64(m.LamportsTransferred))
	assert.Equal(t, float64(1000), testutil.ToFloat64(m.LamportsAirdropped))
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
