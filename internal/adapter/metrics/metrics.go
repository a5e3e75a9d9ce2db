package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vault_custody"

// Metrics holds all Prometheus metrics for the application.
// It implements ports.Metrics.
type Metrics struct {
	VaultsCreated       prometheus.Counter
	Transfers           *prometheus.CounterVec
	LamportsTransferred prometheus.Counter
	LamportsAirdropped  prometheus.Counter
}

// New creates and registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		VaultsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vaults_created_total",
			Help:      "Total number of vaults created",
		}),
		Transfers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Transfer attempts by outcome and error code",
		}, []string{"outcome", "code"}),
		LamportsTransferred: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lamports_transferred_total",
			Help:      "Lamports moved out of vaults by committed transfers",
		}),
		LamportsAirdropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lamports_airdropped_total",
			Help:      "Lamports credited by the faucet",
		}),
	}
}

// VaultCreated increments the vaults created counter by 1.
func (m *Metrics) VaultCreated() {
	m.VaultsCreated.Inc()
}

// TransferCommitted records a committed transfer of amount lamports.
func (m *Metrics) TransferCommitted(amount uint64) {
	m.Transfers.WithLabelValues("committed", "").Inc()
	m.LamportsTransferred.Add(float64(amount))
}

// TransferRejected records a rejected transfer by error code.
func (m *Metrics) TransferRejected(code string) {
	m.Transfers.WithLabelValues("rejected", code).Inc()
}

// Airdropped records lamports credited by the faucet.
func (m *Metrics) Airdropped(amount uint64) {
	m.LamportsAirdropped.Add(float64(amount))
}
