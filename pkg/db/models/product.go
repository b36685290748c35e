package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fashionmart/fashionmart-backend/pkg/types"
)

// Product is a sellable catalog entry, usually sourced from an approved design.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DesignID    *uuid.UUID      `gorm:"column:design_id;type:uuid;uniqueIndex" json:"design_id"`
	DesignerID  *uuid.UUID      `gorm:"column:designer_id;type:uuid" json:"designer_id"`
	CategoryID  uuid.UUID       `gorm:"column:category_id;type:uuid;not null;index" json:"category_id"`
	Name        string          `gorm:"type:text;not null" json:"name"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	Images      types.ImageList `gorm:"column:images;type:jsonb;serializer:json" json:"images"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true" json:"is_active"`
	Stocks      []Stock         `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"stocks"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
