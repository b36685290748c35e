package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fashionmart/fashionmart-backend/pkg/enums"
)

// Payment tracks one processor intent raised against an order.
type Payment struct {
	ID                uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID           uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	Amount            decimal.Decimal     `gorm:"column:amount;type:numeric(10,2);not null" json:"amount"`
	Currency          string              `gorm:"column:currency;type:text;not null;default:'usd'" json:"currency"`
	Status            enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	ProviderIntentID  string              `gorm:"column:provider_intent_id;type:text;not null;uniqueIndex" json:"provider_intent_id"`
	ProviderPaymentID *string             `gorm:"column:provider_payment_id" json:"provider_payment_id"`
	FailureReason     *string             `gorm:"column:failure_reason" json:"failure_reason"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
