package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"research-review-api/models"
)

// WorkflowMetrics counts review transitions and dropped side effects. A nil
// *WorkflowMetrics records nothing.
type WorkflowMetrics struct {
	// Transitions counts committed transitions, labeled by action, from and to status.
	Transitions *prometheus.CounterVec
	// EffectFailures counts best-effort writes that failed, labeled by effect (audit, recipients, notify).
	EffectFailures *prometheus.CounterVec
	// NotificationsSent counts delivered notifications, labeled by kind.
	NotificationsSent *prometheus.CounterVec
}

// NewWorkflowMetrics registers the workflow collectors on reg.
func NewWorkflowMetrics(reg prometheus.Registerer, namespace string) *WorkflowMetrics {
	factory := promauto.With(reg)
	return &WorkflowMetrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Total number of committed review workflow transitions",
		}, []string{"action", "from", "to"}),
		EffectFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "effect_failures_total",
			Help:      "Total number of best-effort audit or notification writes that failed",
		}, []string{"effect"}),
		NotificationsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "notifications_sent_total",
			Help:      "Total number of notifications delivered",
		}, []string{"kind"}),
	}
}

func (m *WorkflowMetrics) transition(action string, from, to models.PaperStatus) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(action, string(from), string(to)).Inc()
}

func (m *WorkflowMetrics) effectFailed(effect string) {
	if m == nil {
		return
	}
	m.EffectFailures.WithLabelValues(effect).Inc()
}

func (m *WorkflowMetrics) notificationSent(kind string) {
	if m == nil {
		return
	}
	m.NotificationsSent.WithLabelValues(kind).Inc()
}
