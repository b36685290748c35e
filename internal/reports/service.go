package reports

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fashionmart/fashionmart-backend/internal/orders"
	"github.com/fashionmart/fashionmart-backend/pkg/db/models"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	pkgerrors "github.com/fashionmart/fashionmart-backend/pkg/errors"
	"github.com/fashionmart/fashionmart-backend/pkg/logger"
)

type salesSource interface {
	SalesBetween(ctx context.Context, from, to time.Time) (*orders.SalesSummary, error)
}

// Service generates and stores periodic sales reports. Rendering is left to
// downstream consumers; reports are persisted as structured data.
type Service interface {
	GenerateMonthly(ctx context.Context, year int, month time.Month, generatedBy uuid.UUID) (*models.Report, error)
	GenerateQuarterly(ctx context.Context, year, quarter int, generatedBy uuid.UUID) (*models.Report, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Report, error)
	List(ctx context.Context, reportType *enums.ReportType) ([]models.Report, error)
	Dashboard(ctx context.Context, now time.Time) (*DashboardStats, error)
}

// DashboardStats is the admin overview payload.
type DashboardStats struct {
	Users    DashboardUsers    `json:"users"`
	Orders   DashboardOrders   `json:"orders"`
	Revenue  DashboardRevenue  `json:"revenue"`
	Products DashboardProducts `json:"products"`
	Designs  DashboardDesigns  `json:"designs"`
}

type DashboardUsers struct {
	Total int64 `json:"total"`
	New   int64 `json:"new"`
}

type DashboardOrders struct {
	Total int64 `json:"total"`
}

type DashboardRevenue struct {
	Total   decimal.Decimal `json:"total"`
	Monthly decimal.Decimal `json:"monthly"`
}

type DashboardProducts struct {
	Total int64 `json:"total"`
}

type DashboardDesigns struct {
	Total int64 `json:"total"`
	New   int64 `json:"new"`
}

type service struct {
	repo  Repository
	sales salesSource
	logg  *logger.Logger
}

// NewService wires report dependencies.
func NewService(repo Repository, sales salesSource, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "reports repository required")
	}
	if sales == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sales source required")
	}
	return &service{repo: repo, sales: sales, logg: logg}, nil
}

func (s *service) GenerateMonthly(ctx context.Context, year int, month time.Month, generatedBy uuid.UUID) (*models.Report, error) {
	if year < 2000 || month < time.January || month > time.December {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid reporting month")
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return s.generate(ctx, enums.ReportTypeMonthlySales, start, end, generatedBy)
}

func (s *service) GenerateQuarterly(ctx context.Context, year, quarter int, generatedBy uuid.UUID) (*models.Report, error) {
	if year < 2000 || quarter < 1 || quarter > 4 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid reporting quarter")
	}
	start := time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, 0)
	return s.generate(ctx, enums.ReportTypeQuarterlySales, start, end, generatedBy)
}

func (s *service) generate(ctx context.Context, reportType enums.ReportType, start, end time.Time, generatedBy uuid.UUID) (*models.Report, error) {
	if generatedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "generated by required")
	}
	summary, err := s.sales.SalesBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode report data")
	}

	row := &models.Report{
		Type:        reportType,
		PeriodStart: start,
		PeriodEnd:   end,
		Data:        data,
		GeneratedBy: generatedBy,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist report")
	}
	if s.logg != nil {
		fields := map[string]any{"report_id": row.ID.String(), "report_type": string(reportType)}
		s.logg.Info(s.logg.WithFields(ctx, fields), "sales report generated")
	}
	return row, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "report not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load report")
	}
	return row, nil
}

func (s *service) List(ctx context.Context, reportType *enums.ReportType) ([]models.Report, error) {
	rows, err := s.repo.List(ctx, reportType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reports")
	}
	return rows, nil
}

// Dashboard assembles the admin overview. "New" counters cover the trailing
// thirty days and monthly revenue resets at the start of the current month.
func (s *service) Dashboard(ctx context.Context, now time.Time) (*DashboardStats, error) {
	now = now.UTC()
	since := now.AddDate(0, 0, -30)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	counts, err := s.repo.DashboardCounts(ctx, since, monthStart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dashboard counters")
	}
	return &DashboardStats{
		Users:    DashboardUsers{Total: counts.TotalUsers, New: counts.NewUsers},
		Orders:   DashboardOrders{Total: counts.TotalOrders},
		Revenue:  DashboardRevenue{Total: counts.TotalRevenue, Monthly: counts.MonthlyRevenue},
		Products: DashboardProducts{Total: counts.TotalProducts},
		Designs:  DashboardDesigns{Total: counts.TotalDesigns, New: counts.NewDesigns},
	}, nil
}
