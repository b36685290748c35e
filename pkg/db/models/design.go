package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	"github.com/fashionmart/fashionmart-backend/pkg/types"
)

// Design is a designer submission that may be promoted into a product.
type Design struct {
	ID              uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DesignerID      uuid.UUID          `gorm:"column:designer_id;type:uuid;not null;index" json:"designer_id"`
	Name            string             `gorm:"type:text;not null" json:"name"`
	Description     string             `gorm:"type:text;not null" json:"description"`
	CategoryID      uuid.UUID          `gorm:"column:category_id;type:uuid;not null" json:"category_id"`
	Status          enums.DesignStatus `gorm:"column:status;type:text;not null;default:'draft'" json:"status"`
	Images          types.ImageList    `gorm:"column:images;type:jsonb;serializer:json" json:"images"`
	RejectionReason *string            `gorm:"column:rejection_reason" json:"rejection_reason"`
	ApprovedAt      *time.Time         `gorm:"column:approved_at" json:"approved_at"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
