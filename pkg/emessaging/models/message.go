package models

// PendingMessage is a composed message waiting to be sent.
// Pending messages are keyed by customer name in the pending store and
// are removed once the gateway acknowledges the send.
type PendingMessage struct {
	// Contact is the recipient phone number in international format.
	Contact string `json:"Contact"`
	// Body is the fully rendered message text.
	Body string `json:"Body"`
}

// SentRecord is the dispatch acknowledgement for one customer.
// Sent records are keyed by customer name and never deleted; they are
// the audit trail the reconciler walks when querying delivery status.
type SentRecord struct {
	// SMSBatchID is the gateway-issued batch identifier.
	SMSBatchID string `json:"smsBatchId"`
	// Contact is the recipient the message was sent to.
	Contact string `json:"Contact"`
	// Status is the HTTP status code from the send endpoint (201 = accepted).
	Status int `json:"Status"`
}

// DeliveryStatus classifies the outcome of a sent message.
type DeliveryStatus string

const (
	// DeliverySent means the carrier accepted the message but delivery
	// is not yet confirmed.
	DeliverySent DeliveryStatus = "sent"
	// DeliveryDelivered means the recipient device received the message.
	DeliveryDelivered DeliveryStatus = "delivered"
	// DeliveryFailed means the message permanently failed.
	DeliveryFailed DeliveryStatus = "failed"
	// DeliveryPending means the carrier has not processed the message yet.
	DeliveryPending DeliveryStatus = "pending"
	// DeliveryUnknown means the carrier reported no usable status.
	DeliveryUnknown DeliveryStatus = "unknown"
)

// ClassifyDelivery maps a raw gateway status string onto a DeliveryStatus.
// Anything the gateway reports outside the known set is treated as unknown.
func ClassifyDelivery(raw string) DeliveryStatus {
	switch DeliveryStatus(raw) {
	case DeliverySent, DeliveryDelivered, DeliveryFailed, DeliveryPending:
		return DeliveryStatus(raw)
	default:
		return DeliveryUnknown
	}
}

// DeliveryRecord is the reconciled delivery outcome for one customer.
// Records are overwritten on every reconciliation run.
type DeliveryRecord struct {
	// Type is the gateway message type as reported by the batch query.
	Type string `json:"type"`
	// Status is the classified delivery outcome.
	Status DeliveryStatus `json:"status"`
}
