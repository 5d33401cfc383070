package metrics

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ProviderSet is metrics providers.
var ProviderSet = wire.NewSet(NewDefault)

// Metrics provides observability for sponsorships and the transaction runner.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	TxRetries           prometheus.Counter
	SponsorshipsCreated prometheus.Counter
	SponsorshipsEnded   prometheus.Counter
	ActiveSponsorships  prometheus.Gauge
}

// New registers all metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TxRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "charity_tx_retries_total",
			Help: "Total number of transactions retried after a transient store error",
		}),
		SponsorshipsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "charity_sponsorships_created_total",
			Help: "Total number of sponsorships created",
		}),
		SponsorshipsEnded: f.NewCounter(prometheus.CounterOpts{
			Name: "charity_sponsorships_ended_total",
			Help: "Total number of sponsorships ended by their sponsor",
		}),
		ActiveSponsorships: f.NewGauge(prometheus.GaugeOpts{
			Name: "charity_active_sponsorships",
			Help: "Number of sponsorships in status active",
		}),
	}
}

// NewDefault registers with the default Prometheus registry.
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer)
}

// TxRetried records one retried transaction attempt.
func (m *Metrics) TxRetried() {
	if m == nil {
		return
	}
	m.TxRetries.Inc()
}

// SponsorshipCreated records a committed sponsorship creation.
func (m *Metrics) SponsorshipCreated() {
	if m == nil {
		return
	}
	m.SponsorshipsCreated.Inc()
}

// SponsorshipEnded records a committed sponsorship ending.
func (m *Metrics) SponsorshipEnded() {
	if m == nil {
		return
	}
	m.SponsorshipsEnded.Inc()
}

// SetActiveSponsorships sets the active sponsorship gauge.
func (m *Metrics) SetActiveSponsorships(n int64) {
	if m == nil {
		return
	}
	m.ActiveSponsorships.Set(float64(n))
}
