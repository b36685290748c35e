package stock

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fashionmart/fashionmart-backend/pkg/db/models"
)

// Repository exposes persistence helpers for stock variants.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, id uuid.UUID) (*models.Stock, error)
	GetWithProduct(ctx context.Context, id uuid.UUID) (*models.Stock, *models.Product, error)
	CreateBatch(ctx context.Context, rows []*models.Stock) error
	Reserve(ctx context.Context, id uuid.UUID, qty int) (int64, error)
	Restore(ctx context.Context, id uuid.UUID, qty int) (int64, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) (int64, error)
	ListLow(ctx context.Context) ([]models.Stock, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a stock repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Get(ctx context.Context, id uuid.UUID) (*models.Stock, error) {
	var row models.Stock
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) GetWithProduct(ctx context.Context, id uuid.UUID) (*models.Stock, *models.Product, error) {
	row, err := r.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", row.ProductID).Error; err != nil {
		return nil, nil, err
	}
	return row, &product, nil
}

func (r *repositoryImpl) CreateBatch(ctx context.Context, rows []*models.Stock) error {
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(rows).Error
}

// Reserve decrements quantity only when enough stock remains. The WHERE guard
// makes the check-and-decrement a single atomic statement; zero rows affected
// means either the row is missing or quantity < qty.
func (r *repositoryImpl) Reserve(ctx context.Context, id uuid.UUID, qty int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Stock{}).
		Where("id = ? AND quantity >= ?", id, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) Restore(ctx context.Context, id uuid.UUID, qty int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Stock{}).
		Where("id = ?", id).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", qty))
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Stock{}).
		Where("id = ?", id).
		Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) ListLow(ctx context.Context) ([]models.Stock, error) {
	var rows []models.Stock
	err := r.db.WithContext(ctx).
		Where("quantity <= low_stock_threshold").
		Order("quantity ASC").
		Find(&rows).Error
	return rows, err
}
