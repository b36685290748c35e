package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fashionmart/fashionmart-backend/pkg/enums"
)

// Refund is an immutable audit record of money sent back to a customer.
type Refund struct {
	ID               uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PaymentID        uuid.UUID          `gorm:"column:payment_id;type:uuid;not null;index" json:"payment_id"`
	OrderID          uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	Amount           decimal.Decimal    `gorm:"column:amount;type:numeric(10,2);not null" json:"amount"`
	Reason           string             `gorm:"column:reason;type:text;not null" json:"reason"`
	Status           enums.RefundStatus `gorm:"column:status;type:text;not null;default:'completed'" json:"status"`
	ProviderRefundID *string            `gorm:"column:provider_refund_id" json:"provider_refund_id"`
	ProcessedBy      uuid.UUID          `gorm:"column:processed_by;type:uuid;not null" json:"processed_by"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
