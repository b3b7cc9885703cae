// Package metrics exposes session lifecycle events as Prometheus metrics.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/custodia-labs/tenantctl/internal/core/domain"
	"github.com/custodia-labs/tenantctl/internal/core/ports/driven"
)

// Ensure SessionObserver implements the interface.
var _ driven.SessionObserver = (*SessionObserver)(nil)

const namespace = "tenantctl"

// SessionObserver records session transitions, discovery results and connect failures.
type SessionObserver struct {
	transitions     *prometheus.CounterVec
	state           *prometheus.GaugeVec
	connectFailures *prometheus.CounterVec
	collectionSize  *prometheus.GaugeVec
	collectionLive  *prometheus.GaugeVec
	discoveries     *prometheus.CounterVec
	discoveryTime   prometheus.Histogram
}

// NewSessionObserver registers the session collectors on reg.
func NewSessionObserver(reg prometheus.Registerer) *SessionObserver {
	factory := promauto.With(reg)

	o := &SessionObserver{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_transitions_total",
			Help:      "The number of session state transitions",
		}, []string{"from", "to"}),
		state: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_state",
			Help:      "1 for the current session state, 0 otherwise",
		}, []string{"state"}),
		connectFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_connect_failures_total",
			Help:      "The number of failed connect attempts by error class",
		}, []string{"reason"}),
		collectionSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_collection_size",
			Help:      "The number of cached objects per collection after the last discovery",
		}, []string{"collection"}),
		collectionLive: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_collection_live",
			Help:      "1 when the collection was read from the remote service, 0 when it fell back",
		}, []string{"collection"}),
		discoveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discoveries_total",
			Help:      "The number of discovery runs by overall data source",
		}, []string{"data_source"}),
		discoveryTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "discovery_duration_seconds",
			Help:      "The amount of time a discovery run took",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
	}
	o.setState(domain.StateDisconnected)
	return o
}

// StateChanged counts the transition and updates the state gauge.
// Leaving a connected tenant clears the collection gauges.
func (o *SessionObserver) StateChanged(from, to domain.SessionState) {
	o.transitions.WithLabelValues(from.String(), to.String()).Inc()
	o.setState(to)
	if to == domain.StateDisconnecting || to == domain.StateDisconnected {
		o.collectionSize.Reset()
		o.collectionLive.Reset()
	}
}

// DiscoveryCompleted records collection sizes and sources.
func (o *SessionObserver) DiscoveryCompleted(result domain.DiscoveryResult) {
	for _, c := range domain.AllCollections() {
		o.collectionSize.WithLabelValues(string(c)).Set(float64(result.Counts[c]))
		live := 0.0
		if result.Sources[c] == domain.DataSourceLive {
			live = 1
		}
		o.collectionLive.WithLabelValues(string(c)).Set(live)
	}
	o.discoveries.WithLabelValues(string(result.DataSource)).Inc()
	o.discoveryTime.Observe(result.Duration.Seconds())
}

// ConnectFailed counts the failure under its error class.
func (o *SessionObserver) ConnectFailed(err error) {
	o.connectFailures.WithLabelValues(Reason(err)).Inc()
}

func (o *SessionObserver) setState(current domain.SessionState) {
	for _, s := range []domain.SessionState{
		domain.StateDisconnected, domain.StateConnecting, domain.StateConnected, domain.StateDisconnecting,
	} {
		v := 0.0
		if s == current {
			v = 1
		}
		o.state.WithLabelValues(s.String()).Set(v)
	}
}

// Reason returns a low-cardinality label for a session error.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, domain.ErrPromptCancelled):
		return "cancelled"
	case errors.Is(err, domain.ErrTenantMismatch):
		return "tenant_mismatch"
	case errors.Is(err, domain.ErrAuthentication):
		return "authentication"
	case errors.Is(err, domain.ErrPermission):
		return "permission"
	case errors.Is(err, domain.ErrServiceUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrBusy):
		return "busy"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	default:
		return "other"
	}
}
