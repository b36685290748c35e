package enums

// OutboxEventType names the domain events appended to the outbox table.
type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order.created"
	EventOrderStatusChanged OutboxEventType = "order.status_changed"
	EventOrderAssigned      OutboxEventType = "order.assigned"
	EventPaymentSucceeded   OutboxEventType = "payment.succeeded"
	EventPaymentRefunded    OutboxEventType = "payment.refunded"
	EventReturnRequested    OutboxEventType = "return.requested"
	EventReturnCompleted    OutboxEventType = "return.completed"
	EventReturnRejected     OutboxEventType = "return.rejected"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder   OutboxAggregateType = "order"
	AggregatePayment OutboxAggregateType = "payment"
	AggregateReturn  OutboxAggregateType = "return"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderStatusChanged,
	EventOrderAssigned,
	EventPaymentSucceeded,
	EventPaymentRefunded,
	EventReturnRequested,
	EventReturnCompleted,
	EventReturnRejected,
}

// String implements fmt.Stringer.
func (o OutboxEventType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OutboxEventType.
func (o OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}
