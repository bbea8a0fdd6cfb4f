package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain metrics. HTTP metrics live with the middleware.
var (
	// RequestsCreated counts persisted repair requests by form type.
	RequestsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repairbot_requests_created_total",
			Help: "Repair requests persisted, by form type.",
		},
		[]string{"form_type"},
	)

	// RequestIDFallbacks counts ticket numbers issued from the timestamp
	// fallback because the counter path failed.
	RequestIDFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "repairbot_request_id_fallbacks_total",
			Help: "Ticket numbers generated by the timestamp fallback.",
		},
	)

	// Notifications counts outbound notifications by channel and outcome.
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repairbot_notifications_total",
			Help: "Outbound notifications, by channel (user|staff) and result (ok|error|skipped).",
		},
		[]string{"channel", "result"},
	)

	// ConversationTransitions counts state machine moves by target state.
	ConversationTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repairbot_conversation_transitions_total",
			Help: "Conversation state changes, by target state.",
		},
		[]string{"state"},
	)

	// WebhookEvents counts processed webhook events by type and result.
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repairbot_webhook_events_total",
			Help: "LINE webhook events, by event type and result.",
		},
		[]string{"type", "result"},
	)
)

func init() {
	prometheus.MustRegister(RequestsCreated, RequestIDFallbacks, Notifications, ConversationTransitions, WebhookEvents)
}
