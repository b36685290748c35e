package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fashionmart/fashionmart-backend/pkg/db/models"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	"github.com/fashionmart/fashionmart-backend/pkg/pagination"
)

// Repository exposes persistence helpers for payments and refund records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	GetByOrderAndIntent(ctx context.Context, orderID uuid.UUID, intentID string) (*models.Payment, error)
	List(ctx context.Context, params listPaymentsParams) ([]models.Payment, *pagination.Cursor, error)
	Create(ctx context.Context, row *models.Payment) error
	TransitionStatus(ctx context.Context, id uuid.UUID, from enums.PaymentStatus, fields map[string]any) (int64, error)
	CreateRefund(ctx context.Context, row *models.Refund) error
	ListRefundsByPayment(ctx context.Context, paymentID uuid.UUID) ([]models.Refund, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a payments repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listPaymentsParams struct {
	OrderID *uuid.UUID
	Status  *enums.PaymentStatus
	Limit   int
	Cursor  *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Get(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var row models.Payment
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) GetByOrderAndIntent(ctx context.Context, orderID uuid.UUID, intentID string) (*models.Payment, error) {
	var row models.Payment
	err := r.db.WithContext(ctx).
		First(&row, "order_id = ? AND provider_intent_id = ?", orderID, intentID).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listPaymentsParams) ([]models.Payment, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Payment{})
	if params.OrderID != nil {
		query = query.Where("order_id = ?", *params.OrderID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Payment
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

func (r *repositoryImpl) Create(ctx context.Context, row *models.Payment) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// TransitionStatus applies fields only while the payment still holds the
// expected status.
func (r *repositoryImpl) TransitionStatus(ctx context.Context, id uuid.UUID, from enums.PaymentStatus, fields map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) CreateRefund(ctx context.Context, row *models.Refund) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repositoryImpl) ListRefundsByPayment(ctx context.Context, paymentID uuid.UUID) ([]models.Refund, error) {
	var rows []models.Refund
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}
