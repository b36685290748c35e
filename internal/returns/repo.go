package returns

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fashionmart/fashionmart-backend/pkg/db/models"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	"github.com/fashionmart/fashionmart-backend/pkg/pagination"
)

// Repository exposes persistence helpers for return requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, id uuid.UUID) (*models.Return, error)
	GetByOrderItem(ctx context.Context, orderItemID uuid.UUID) (*models.Return, error)
	Create(ctx context.Context, row *models.Return) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params listReturnsParams) ([]models.Return, *pagination.Cursor, error)
	ListUnassigned(ctx context.Context) ([]models.Return, error)
	ListAssigned(ctx context.Context, staffID uuid.UUID) ([]models.Return, error)
	Claim(ctx context.Context, id, staffID uuid.UUID) (int64, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from enums.ReturnStatus, fields map[string]any) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a returns repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listReturnsParams struct {
	Limit  int
	Cursor *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Get(ctx context.Context, id uuid.UUID) (*models.Return, error) {
	var row models.Return
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) GetByOrderItem(ctx context.Context, orderItemID uuid.UUID) (*models.Return, error) {
	var row models.Return
	if err := r.db.WithContext(ctx).First(&row, "order_item_id = ?", orderItemID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) Create(ctx context.Context, row *models.Return) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repositoryImpl) ListByCustomer(ctx context.Context, customerID uuid.UUID, params listReturnsParams) ([]models.Return, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.Return{}).
		Where("customer_id = ?", customerID)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Return
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	if len(rows) > normalized {
		next := rows[normalized-1]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}

func (r *repositoryImpl) ListUnassigned(ctx context.Context) ([]models.Return, error) {
	var rows []models.Return
	err := r.db.WithContext(ctx).
		Where("staff_id IS NULL AND status = ?", enums.ReturnStatusPending).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ListAssigned(ctx context.Context, staffID uuid.UUID) ([]models.Return, error) {
	var rows []models.Return
	err := r.db.WithContext(ctx).
		Where("staff_id = ?", staffID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// Claim assigns the return to a staff member only while it is unclaimed and
// still pending.
func (r *repositoryImpl) Claim(ctx context.Context, id, staffID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Return{}).
		Where("id = ? AND staff_id IS NULL AND status = ?", id, enums.ReturnStatusPending).
		UpdateColumn("staff_id", staffID)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) TransitionStatus(ctx context.Context, id uuid.UUID, from enums.ReturnStatus, fields map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Return{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	return result.RowsAffected, result.Error
}
