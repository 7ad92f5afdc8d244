// Package metrics defines the custom Prometheus metrics of the user service.
// Metrics are registered on the default registry at package init through
// promauto; the HTTP request metrics come from echoprometheus.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tubehub/user-service/internal/core/domain"
)

const namespace = "users"

// AuthOperationsTotal counts session operations.
// Labels:
//   - operation: login, logout, refresh, change_password, authenticate
//   - result: see Result
var AuthOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_operations_total",
		Help:      "Total number of session operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// RegistrationsTotal counts registration attempts by result.
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// MediaUploadsTotal counts profile image replacements.
// Labels:
//   - folder: avatars or coverImages
//   - result: see Result
var MediaUploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_uploads_total",
		Help:      "Total number of profile image uploads, by folder and result.",
	},
	[]string{"folder", "result"},
)

// QueryDuration measures the relationship aggregations.
// Label:
//   - query: channel_profile or watch_history
var QueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "query_duration_seconds",
		Help:      "Duration of channel profile and watch history queries.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"query"},
)

// Result maps an operation error to a low-cardinality label value.
func Result(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrTooManyRequests):
		return "throttled"
	default:
		return "error"
	}
}
