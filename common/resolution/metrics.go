package resolution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeResolved              = "resolved"
	outcomeConnectionNotFound    = "connection_not_found"
	outcomeMissingTenantIdentity = "missing_tenant_identity"
	outcomeSchemaMismatch        = "schema_mismatch"
	outcomeError                 = "error"
)

var resolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "connections_resolutions_total",
		Help: "Total connection resolutions by naming prefix and outcome",
	},
	[]string{"prefix", "outcome"},
)

func recordResolution(prefix string, outcome string) {
	resolutionsTotal.WithLabelValues(prefix, outcome).Inc()
}
