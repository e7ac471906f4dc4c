package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all server metrics
const namespace = "eventreg"

// Registry is the Prometheus registry served at /metrics
var Registry = prometheus.NewRegistry()

var runtimeOnce sync.Once

// AppInfo is a gauge that exposes application version information as labels
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date", "store"},
)

// EntityMutationsTotal counts successful writes by entity kind and operation
var EntityMutationsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entity_mutations_total",
		Help:      "Total number of successful entity writes",
	},
	[]string{"entity", "operation"}, // entity: user|event|registration, operation: create|update|delete|delete_all
)

// RegistrationsTotal counts registration admission attempts by outcome
var RegistrationsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts by outcome",
	},
	[]string{"outcome"}, // outcome: created|conflict|not_found|invalid|error
)

// UsersAutoCreatedTotal counts users created implicitly during registration
var UsersAutoCreatedTotal = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_auto_created_total",
		Help:      "Total number of users created implicitly by a registration",
	},
)

// Init registers runtime collectors and sets version information.
// Runtime collectors are registered on the first call only.
func Init(version, commit, buildDate, store string) {
	runtimeOnce.Do(func() {
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})

	AppInfo.Reset()
	AppInfo.WithLabelValues(version, commit, buildDate, store).Set(1)
}

// RecordMutation increments the mutation counter for entity/operation.
func RecordMutation(entity, operation string) {
	EntityMutationsTotal.WithLabelValues(entity, operation).Inc()
}

// RecordRegistration increments the admission counter for outcome.
func RecordRegistration(outcome string) {
	RegistrationsTotal.WithLabelValues(outcome).Inc()
}
