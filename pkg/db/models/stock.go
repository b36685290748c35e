package models

import (
	"time"

	"github.com/google/uuid"
)

// Stock tracks on-hand quantity for one product variant (size/color).
type Stock struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID         uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:uq_stocks_variant" json:"product_id"`
	Size              string    `gorm:"column:size;type:text;not null;uniqueIndex:uq_stocks_variant" json:"size"`
	Color             string    `gorm:"column:color;type:text;not null;uniqueIndex:uq_stocks_variant" json:"color"`
	Quantity          int       `gorm:"column:quantity;not null;default:0" json:"quantity"`
	LowStockThreshold int       `gorm:"column:low_stock_threshold;not null;default:10" json:"low_stock_threshold"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// IsLow reports whether the variant is at or below its alert threshold.
func (s Stock) IsLow() bool {
	return s.Quantity <= s.LowStockThreshold
}
