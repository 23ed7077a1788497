package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsProposed counts accepted proposals.
	SessionsProposed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brainbarter_sessions_proposed_total",
		Help: "Total session proposals created",
	})

	// SessionResponses counts teacher decisions by outcome.
	SessionResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brainbarter_session_responses_total",
		Help: "Total session responses by decision",
	}, []string{"decision"})

	// SessionCompletions counts completion calls by party and whether they settled the session.
	SessionCompletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brainbarter_session_completions_total",
		Help: "Total completion confirmations by party and settlement result",
	}, []string{"party", "settled"})

	CreditsTransferred = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brainbarter_credits_transferred_total",
		Help: "Total credits moved from learners to teachers",
	})

	SessionDisputes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brainbarter_session_disputes_total",
		Help: "Total sessions moved to disputed",
	})

	SettlementErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brainbarter_settlement_errors_total",
		Help: "Settlement operation failures by operation",
	}, []string{"operation"})

	// NotificationsDelivered counts events by kind and outcome (delivered, offline, dropped, failed).
	NotificationsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brainbarter_notifications_total",
		Help: "Notification events by kind and outcome",
	}, []string{"kind", "outcome"})

	ConnectionsOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "brainbarter_ws_connections_online",
		Help: "Users currently holding a websocket connection",
	})

	PendingReminders = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brainbarter_pending_reminders_total",
		Help: "Reminders sent to teachers about stale pending proposals",
	})
)
