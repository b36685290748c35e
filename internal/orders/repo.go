package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fashionmart/fashionmart-backend/pkg/db/models"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	"github.com/fashionmart/fashionmart-backend/pkg/pagination"
)

// Repository exposes persistence helpers for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error)
	Create(ctx context.Context, order *models.Order) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params listOrdersParams) ([]models.Order, *pagination.Cursor, error)
	ListAll(ctx context.Context, params listAllOrdersParams) ([]models.Order, *pagination.Cursor, error)
	ListUnassigned(ctx context.Context) ([]models.Order, error)
	ListAssigned(ctx context.Context, staffID uuid.UUID) ([]models.Order, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from enums.OrderStatus, fields map[string]any) (int64, error)
	TransitionPaymentStatus(ctx context.Context, id uuid.UUID, from enums.OrderPaymentStatus, fields map[string]any) (int64, error)
	Claim(ctx context.Context, id, staffID uuid.UUID) (int64, error)
	CountByStatusBetween(ctx context.Context, from, to time.Time) (map[enums.OrderStatus]int64, error)
	RevenueBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, int64, error)
	TopProductsBetween(ctx context.Context, from, to time.Time, limit int) ([]ProductSales, error)
}

// ProductSales is one row of the top-product aggregation.
type ProductSales struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listOrdersParams struct {
	Limit  int
	Cursor *pagination.Cursor
}

type listAllOrdersParams struct {
	Status *enums.OrderStatus
	Limit  int
	Cursor *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var row models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&row, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) GetItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error) {
	var row models.OrderItem
	if err := r.db.WithContext(ctx).First(&row, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repositoryImpl) ListByCustomer(ctx context.Context, customerID uuid.UUID, params listOrdersParams) ([]models.Order, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items").
		Where("customer_id = ?", customerID)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Order
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

// ListAll pages every order newest first, optionally filtered by status.
func (r *repositoryImpl) ListAll(ctx context.Context, params listAllOrdersParams) ([]models.Order, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items")
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Order
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

// ListUnassigned is the staff pickup queue: paid orders in processing with no
// assignee yet.
func (r *repositoryImpl) ListUnassigned(ctx context.Context) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("staff_id IS NULL AND status = ? AND payment_status = ?",
			enums.OrderStatusProcessing, enums.OrderPaymentStatusPaid).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ListAssigned(ctx context.Context, staffID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("staff_id = ?", staffID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// TransitionStatus applies fields only while the row still holds the expected
// status, so concurrent updates lose cleanly with zero rows affected.
func (r *repositoryImpl) TransitionStatus(ctx context.Context, id uuid.UUID, from enums.OrderStatus, fields map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) TransitionPaymentStatus(ctx context.Context, id uuid.UUID, from enums.OrderPaymentStatus, fields map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, from).
		Updates(fields)
	return result.RowsAffected, result.Error
}

// Claim assigns the order to a staff member only while it is still claimable.
func (r *repositoryImpl) Claim(ctx context.Context, id, staffID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND staff_id IS NULL AND status = ? AND payment_status = ?",
			id, enums.OrderStatusProcessing, enums.OrderPaymentStatusPaid).
		UpdateColumn("staff_id", staffID)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) CountByStatusBetween(ctx context.Context, from, to time.Time) (map[enums.OrderStatus]int64, error) {
	type statusCount struct {
		Status enums.OrderStatus
		Total  int64
	}
	var rows []statusCount
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS total").
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[enums.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

// RevenueBetween sums paid order totals in the window and returns the paid
// order count alongside.
func (r *repositoryImpl) RevenueBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, int64, error) {
	type revenueRow struct {
		Revenue decimal.Decimal
		Total   int64
	}
	var row revenueRow
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0) AS revenue, COUNT(*) AS total").
		Where("created_at >= ? AND created_at < ?", from, to).
		Where("payment_status IN ?", []enums.OrderPaymentStatus{
			enums.OrderPaymentStatusPaid, enums.OrderPaymentStatusRefunded,
		}).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, err
	}
	return row.Revenue, row.Total, nil
}

func (r *repositoryImpl) TopProductsBetween(ctx context.Context, from, to time.Time, limit int) ([]ProductSales, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []ProductSales
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Select("order_items.product_id, order_items.name, SUM(order_items.quantity) AS quantity, SUM(order_items.subtotal) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.created_at >= ? AND orders.created_at < ?", from, to).
		Group("order_items.product_id, order_items.name").
		Order("quantity DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
