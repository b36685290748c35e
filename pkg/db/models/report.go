package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/fashionmart/fashionmart-backend/pkg/enums"
)

// Report is a persisted sales report snapshot for one period.
type Report struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Type        enums.ReportType `gorm:"column:type;type:text;not null" json:"type"`
	PeriodStart time.Time        `gorm:"column:period_start;not null" json:"period_start"`
	PeriodEnd   time.Time        `gorm:"column:period_end;not null" json:"period_end"`
	Data        json.RawMessage  `gorm:"column:data;type:jsonb;not null" json:"data"`
	GeneratedBy uuid.UUID        `gorm:"column:generated_by;type:uuid;not null" json:"generated_by"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
