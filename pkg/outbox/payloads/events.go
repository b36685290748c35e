package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fashionmart/fashionmart-backend/pkg/enums"
)

// OrderCreatedEvent signals a new customer order with reserved stock.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
}

// OrderStatusChangedEvent is emitted on every lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	CustomerID     uuid.UUID         `json:"customer_id"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	Status         enums.OrderStatus `json:"status"`
	ReturnDeadline *time.Time        `json:"return_deadline,omitempty"`
}

// OrderAssignedEvent reports a staff member claiming an order.
type OrderAssignedEvent struct {
	OrderID uuid.UUID `json:"order_id"`
	StaffID uuid.UUID `json:"staff_id"`
}

// PaymentSucceededEvent is emitted when the processor confirms capture.
type PaymentSucceededEvent struct {
	PaymentID uuid.UUID       `json:"payment_id"`
	OrderID   uuid.UUID       `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	IntentID  string          `json:"intent_id"`
}

// PaymentRefundedEvent records money returned to the customer.
type PaymentRefundedEvent struct {
	PaymentID  uuid.UUID       `json:"payment_id"`
	OrderID    uuid.UUID       `json:"order_id"`
	Amount     decimal.Decimal `json:"amount"`
	FullRefund bool            `json:"full_refund"`
	Reason     string          `json:"reason,omitempty"`
}

// ReturnRequestedEvent signals a customer opened a return for one item.
type ReturnRequestedEvent struct {
	ReturnID    uuid.UUID `json:"return_id"`
	OrderID     uuid.UUID `json:"order_id"`
	OrderItemID uuid.UUID `json:"order_item_id"`
	CustomerID  uuid.UUID `json:"customer_id"`
}

// ReturnCompletedEvent reports an approved return with restored stock.
type ReturnCompletedEvent struct {
	ReturnID     uuid.UUID       `json:"return_id"`
	OrderID      uuid.UUID       `json:"order_id"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

// ReturnRejectedEvent reports a staff rejection.
type ReturnRejectedEvent struct {
	ReturnID uuid.UUID `json:"return_id"`
	OrderID  uuid.UUID `json:"order_id"`
	Notes    string    `json:"notes,omitempty"`
}
