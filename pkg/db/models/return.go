package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	"github.com/fashionmart/fashionmart-backend/pkg/types"
)

// Return is a per-item return request. The unique index on OrderItemID enforces
// at most one return per purchased item.
type Return struct {
	ID           uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID      uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	OrderItemID  uuid.UUID          `gorm:"column:order_item_id;type:uuid;not null;uniqueIndex:uq_returns_order_item" json:"order_item_id"`
	CustomerID   uuid.UUID          `gorm:"column:customer_id;type:uuid;not null;index" json:"customer_id"`
	StaffID      *uuid.UUID         `gorm:"column:staff_id;type:uuid;index" json:"staff_id"`
	Reason       string             `gorm:"column:reason;type:text;not null" json:"reason"`
	Images       types.ImageList    `gorm:"column:images;type:jsonb;serializer:json" json:"images"`
	Status       enums.ReturnStatus `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	RefundAmount *decimal.Decimal   `gorm:"column:refund_amount;type:numeric(10,2)" json:"refund_amount"`
	Notes        *string            `gorm:"column:notes" json:"notes"`
	ProcessedAt  *time.Time         `gorm:"column:processed_at" json:"processed_at"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
