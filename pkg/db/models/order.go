package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	"github.com/fashionmart/fashionmart-backend/pkg/types"
)

// Order is the customer purchase aggregate. Status and PaymentStatus advance
// independently through their own transition tables.
type Order struct {
	ID              uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerID      uuid.UUID               `gorm:"column:customer_id;type:uuid;not null;index" json:"customer_id"`
	StaffID         *uuid.UUID              `gorm:"column:staff_id;type:uuid;index" json:"staff_id"`
	Status          enums.OrderStatus       `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	PaymentStatus   enums.OrderPaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'" json:"payment_status"`
	TotalAmount     decimal.Decimal         `gorm:"column:total_amount;type:numeric(10,2);not null" json:"total_amount"`
	ShippingAddress types.ShippingAddress   `gorm:"column:shipping_address;type:jsonb;serializer:json" json:"shipping_address"`
	Notes           *string                 `gorm:"column:notes" json:"notes"`
	DeliveredAt     *time.Time              `gorm:"column:delivered_at" json:"delivered_at"`
	ReturnDeadline  *time.Time              `gorm:"column:return_deadline" json:"return_deadline"`
	Items           []OrderItem             `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
