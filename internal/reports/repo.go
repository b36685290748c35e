package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fashionmart/fashionmart-backend/pkg/db/models"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
)

// Repository exposes persistence helpers for generated reports.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Report, error)
	List(ctx context.Context, reportType *enums.ReportType) ([]models.Report, error)
	Create(ctx context.Context, row *models.Report) error
	DashboardCounts(ctx context.Context, since, monthStart time.Time) (*DashboardCounts, error)
}

// DashboardCounts is the raw aggregate behind the admin overview.
type DashboardCounts struct {
	TotalUsers     int64
	NewUsers       int64
	TotalOrders    int64
	TotalRevenue   decimal.Decimal
	MonthlyRevenue decimal.Decimal
	TotalProducts  int64
	TotalDesigns   int64
	NewDesigns     int64
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a reports repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Get(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var row models.Report
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) List(ctx context.Context, reportType *enums.ReportType) ([]models.Report, error) {
	query := r.db.WithContext(ctx).Model(&models.Report{})
	if reportType != nil {
		query = query.Where("type = ?", *reportType)
	}
	var rows []models.Report
	err := query.Order("period_start DESC").Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) Create(ctx context.Context, row *models.Report) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// DashboardCounts gathers the counters shown on the admin overview. Revenue
// only counts orders still marked paid, so refunded orders fall out of it.
func (r *repositoryImpl) DashboardCounts(ctx context.Context, since, monthStart time.Time) (*DashboardCounts, error) {
	db := r.db.WithContext(ctx)
	var out DashboardCounts

	if err := db.Model(&models.User{}).Count(&out.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).Where("created_at >= ?", since).Count(&out.NewUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).Count(&out.TotalOrders).Error; err != nil {
		return nil, err
	}

	type revenueRow struct {
		Revenue decimal.Decimal
	}
	var total revenueRow
	if err := db.Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0) AS revenue").
		Where("payment_status = ?", enums.OrderPaymentStatusPaid).
		Scan(&total).Error; err != nil {
		return nil, err
	}
	out.TotalRevenue = total.Revenue

	var monthly revenueRow
	if err := db.Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0) AS revenue").
		Where("payment_status = ?", enums.OrderPaymentStatusPaid).
		Where("created_at >= ?", monthStart).
		Scan(&monthly).Error; err != nil {
		return nil, err
	}
	out.MonthlyRevenue = monthly.Revenue

	if err := db.Model(&models.Product{}).Count(&out.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Design{}).Count(&out.TotalDesigns).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Design{}).Where("created_at >= ?", since).Count(&out.NewDesigns).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
