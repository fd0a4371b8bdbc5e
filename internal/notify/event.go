// Package notify implements the outbound notification channel. The
// server never talks to a mail or SMS provider directly: it publishes
// Notification messages to a durable RabbitMQ queue and a delivery
// worker drains them. Publishing is fire-and-forget: a failed publish
// is logged and never blocks or rolls back the state change that
// triggered it.
package notify

// QueueName is the durable queue notifications travel through.
const QueueName = "bpark.notifications"

// Notification is the delivery contract with the notification worker:
// deliver Body to Address under Subject. The payload carries enough
// context for the worker to log meaningfully without querying the
// primary database.
type Notification struct {
	Address string `json:"address"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	SentAt  string `json:"sent_at"`
}
