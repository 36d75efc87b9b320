package models

const (
	TopicOrdersCreated      = "orders.created"
	TopicOrdersValidated    = "orders.validated"
	TopicInventoryReserved  = "inventory.reserved"
	TopicInventoryReleased  = "inventory.released"
	TopicPaymentsRequested  = "payments.requested"
	TopicPaymentsCompleted  = "payments.completed"
	TopicPaymentsFailed     = "payments.failed"
	TopicOrdersCompleted    = "orders.completed"
	TopicOrdersFailed       = "orders.failed"
	TopicNotificationsEmail = "notifications.email"
	TopicDeadLetter         = "dead.letter.queue"
)

// Release reasons carried on inventory.released events.
const (
	ReasonInsufficientInventory = "insufficient_inventory"
	ReasonPaymentFailed         = "payment_failed"
	ReasonOrderFailed           = "order_failed"
	ReasonExpired               = "expired"
)

// ReasonProcessingTimeout is the failure reason set by the timeout sweep.
const ReasonProcessingTimeout = "processing timeout"
