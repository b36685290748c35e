package reports

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fashionmart/fashionmart-backend/internal/orders"
	"github.com/fashionmart/fashionmart-backend/pkg/db/models"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	pkgerrors "github.com/fashionmart/fashionmart-backend/pkg/errors"
)

type fakeSales struct {
	from, to time.Time
	summary  *orders.SalesSummary
}

func (f *fakeSales) SalesBetween(_ context.Context, from, to time.Time) (*orders.SalesSummary, error) {
	f.from, f.to = from, to
	return f.summary, nil
}

func newTestService(t *testing.T, sales *fakeSales) (Service, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := conn.AutoMigrate(&models.Report{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	svc, err := NewService(NewRepository(conn), sales, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func sampleSummary() *orders.SalesSummary {
	return &orders.SalesSummary{
		TotalOrders: 12,
		Revenue:     decimal.RequireFromString("1480.00"),
		ByStatus: map[enums.OrderStatus]int64{
			enums.OrderStatusDelivered: 10,
			enums.OrderStatusCancelled: 2,
		},
		TopProducts: []orders.ProductSales{
			{ProductID: uuid.New(), Name: "denim jacket", Quantity: 9, Revenue: decimal.RequireFromString("900.00")},
		},
	}
}

func TestGenerateMonthly_PersistsSummary(t *testing.T) {
	sales := &fakeSales{summary: sampleSummary()}
	svc, _ := newTestService(t, sales)

	report, err := svc.GenerateMonthly(context.Background(), 2026, time.March, uuid.New())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if report.Type != enums.ReportTypeMonthlySales {
		t.Fatalf("expected monthly type, got %s", report.Type)
	}
	if !sales.from.Equal(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected window start %s", sales.from)
	}
	if !sales.to.Equal(time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected window end %s", sales.to)
	}

	var decoded orders.SalesSummary
	if err := json.Unmarshal(report.Data, &decoded); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if decoded.TotalOrders != 12 || len(decoded.TopProducts) != 1 {
		t.Fatalf("unexpected decoded summary %+v", decoded)
	}
}

func TestGenerateQuarterly_WindowAndValidation(t *testing.T) {
	sales := &fakeSales{summary: sampleSummary()}
	svc, _ := newTestService(t, sales)
	ctx := context.Background()

	report, err := svc.GenerateQuarterly(ctx, 2026, 2, uuid.New())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if report.Type != enums.ReportTypeQuarterlySales {
		t.Fatalf("expected quarterly type, got %s", report.Type)
	}
	if !sales.from.Equal(time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected window start %s", sales.from)
	}
	if !sales.to.Equal(time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected window end %s", sales.to)
	}

	_, err = svc.GenerateQuarterly(ctx, 2026, 5, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestList_FiltersByType(t *testing.T) {
	sales := &fakeSales{summary: sampleSummary()}
	svc, _ := newTestService(t, sales)
	ctx := context.Background()

	if _, err := svc.GenerateMonthly(ctx, 2026, time.January, uuid.New()); err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if _, err := svc.GenerateQuarterly(ctx, 2026, 1, uuid.New()); err != nil {
		t.Fatalf("quarterly: %v", err)
	}

	monthly := enums.ReportTypeMonthlySales
	rows, err := svc.List(ctx, &monthly)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].Type != enums.ReportTypeMonthlySales {
		t.Fatalf("expected one monthly report, got %+v", rows)
	}
}

func seedDashboardUser(t *testing.T, conn *gorm.DB, createdAt time.Time) {
	t.Helper()
	row := models.User{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		FirstName:    "Dana",
		LastName:     "Reyes",
		Role:         enums.RoleCustomer,
		CreatedAt:    createdAt,
	}
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func seedDashboardOrder(t *testing.T, conn *gorm.DB, amount string, paymentStatus enums.OrderPaymentStatus, createdAt time.Time) {
	t.Helper()
	row := models.Order{
		ID:            uuid.New(),
		CustomerID:    uuid.New(),
		Status:        enums.OrderStatusProcessing,
		PaymentStatus: paymentStatus,
		TotalAmount:   decimal.RequireFromString(amount),
		CreatedAt:     createdAt,
	}
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
}

func TestDashboard_AggregatesCounters(t *testing.T) {
	sales := &fakeSales{summary: sampleSummary()}
	svc, conn := newTestService(t, sales)
	if err := conn.AutoMigrate(&models.User{}, &models.Order{}, &models.Product{}, &models.Design{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	ctx := context.Background()
	now := time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)

	seedDashboardUser(t, conn, now.AddDate(0, 0, -5))
	seedDashboardUser(t, conn, now.AddDate(0, 0, -60))

	seedDashboardOrder(t, conn, "100.00", enums.OrderPaymentStatusPaid, now.AddDate(0, 0, -2))
	seedDashboardOrder(t, conn, "40.00", enums.OrderPaymentStatusPaid, now.AddDate(0, -2, 0))
	seedDashboardOrder(t, conn, "25.00", enums.OrderPaymentStatusPending, now.AddDate(0, 0, -1))
	seedDashboardOrder(t, conn, "75.00", enums.OrderPaymentStatusRefunded, now.AddDate(0, 0, -3))

	product := models.Product{ID: uuid.New(), CategoryID: uuid.New(), Name: "denim jacket", Description: "stonewashed", Price: decimal.RequireFromString("89.00")}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	design := models.Design{ID: uuid.New(), DesignerID: uuid.New(), Name: "fall capsule", Description: "sketches", CategoryID: uuid.New(), Status: enums.DesignStatusDraft, CreatedAt: now.AddDate(0, 0, -40)}
	if err := conn.Create(&design).Error; err != nil {
		t.Fatalf("seed design: %v", err)
	}

	stats, err := svc.Dashboard(ctx, now)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if stats.Users.Total != 2 || stats.Users.New != 1 {
		t.Fatalf("unexpected user counters %+v", stats.Users)
	}
	if stats.Orders.Total != 4 {
		t.Fatalf("unexpected order total %d", stats.Orders.Total)
	}
	if !stats.Revenue.Total.Equal(decimal.RequireFromString("140.00")) {
		t.Fatalf("unexpected total revenue %s", stats.Revenue.Total)
	}
	if !stats.Revenue.Monthly.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("unexpected monthly revenue %s", stats.Revenue.Monthly)
	}
	if stats.Products.Total != 1 {
		t.Fatalf("unexpected product total %d", stats.Products.Total)
	}
	if stats.Designs.Total != 1 || stats.Designs.New != 0 {
		t.Fatalf("unexpected design counters %+v", stats.Designs)
	}
}
