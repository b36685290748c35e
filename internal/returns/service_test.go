package returns

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fashionmart/fashionmart-backend/internal/orders"
	"github.com/fashionmart/fashionmart-backend/internal/payments"
	"github.com/fashionmart/fashionmart-backend/internal/stock"
	"github.com/fashionmart/fashionmart-backend/pkg/config"
	dbpkg "github.com/fashionmart/fashionmart-backend/pkg/db"
	"github.com/fashionmart/fashionmart-backend/pkg/db/models"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	pkgerrors "github.com/fashionmart/fashionmart-backend/pkg/errors"
	"github.com/fashionmart/fashionmart-backend/pkg/outbox"
	"github.com/fashionmart/fashionmart-backend/pkg/stripe"
	"github.com/fashionmart/fashionmart-backend/pkg/types"
)

type fakeProcessor struct {
	refundErr error
	refunds   []int64
}

func (f *fakeProcessor) CreateIntent(context.Context, int64, string, map[string]string) (string, string, error) {
	return "pi_" + uuid.NewString(), "secret", nil
}

func (f *fakeProcessor) RetrieveIntent(context.Context, string) (string, error) {
	return stripe.IntentStatusSucceeded, nil
}

func (f *fakeProcessor) CreateRefund(_ context.Context, _ string, amount int64, _ string) (string, error) {
	if f.refundErr != nil {
		return "", f.refundErr
	}
	f.refunds = append(f.refunds, amount)
	return "re_" + uuid.NewString(), nil
}

type fakeDirectory struct{}

func (fakeDirectory) ActiveByRole(context.Context, enums.Role) ([]models.User, error) {
	return nil, nil
}

type testEnv struct {
	svc       Service
	ordersSvc orders.Service
	payments  payments.Service
	conn      *gorm.DB
	processor *fakeProcessor
	customer  uuid.UUID
	variant   *models.Stock
}

func newTestEnv(t *testing.T) *testEnv {
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
	err = conn.AutoMigrate(
		&models.Product{}, &models.Stock{}, &models.Order{}, &models.OrderItem{},
		&models.Payment{}, &models.Refund{}, &models.Return{}, &models.OutboxEvent{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	client := dbpkg.NewFromConn(conn)
	stockSvc, err := stock.NewService(stock.NewRepository(conn), fakeDirectory{}, nil, nil, nil)
	if err != nil {
		t.Fatalf("stock service: %v", err)
	}
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), nil)
	ordersSvc, err := orders.NewService(orders.NewRepository(conn), client, stockSvc, outboxSvc,
		nil, nil, nil, nil, config.ReturnsConfig{WindowDays: 7}, nil)
	if err != nil {
		t.Fatalf("orders service: %v", err)
	}
	processor := &fakeProcessor{}
	paySvc, err := payments.NewService(payments.NewRepository(conn), client, processor, ordersSvc,
		outboxSvc, nil, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("payments service: %v", err)
	}
	svc, err := NewService(NewRepository(conn), client, ordersSvc, stockSvc, paySvc, outboxSvc,
		nil, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("returns service: %v", err)
	}

	env := &testEnv{
		svc: svc, ordersSvc: ordersSvc, payments: paySvc,
		conn: conn, processor: processor, customer: uuid.New(),
	}
	product := models.Product{
		ID:          uuid.New(),
		CategoryID:  uuid.New(),
		Name:        "pleated skirt",
		Description: "midi pleated skirt",
		Price:       decimal.RequireFromString("40.00"),
		IsActive:    true,
	}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	variant := models.Stock{
		ID: uuid.New(), ProductID: product.ID,
		Size: "M", Color: "black", Quantity: 10, LowStockThreshold: 2,
	}
	if err := conn.Create(&variant).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	env.variant = &variant
	return env
}

// deliveredOrder walks an order through payment and delivery so it is
// eligible for returns.
func deliveredOrder(t *testing.T, env *testEnv, qty int) *models.Order {
	t.Helper()
	ctx := context.Background()
	order, err := env.ordersSvc.Create(ctx, orders.CreateOrderInput{
		CustomerID: env.customer,
		Items:      []orders.OrderItemInput{{StockID: env.variant.ID, Quantity: qty}},
		ShippingAddress: types.ShippingAddress{
			Name: "Ada", Street: "1 Mill Rd", City: "Leeds", State: "YS", Zip: "LS1", Country: "GB",
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	result, err := env.payments.CreateIntent(ctx, order.ID, env.customer)
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if _, err := env.payments.Confirm(ctx, order.ID, env.customer, result.Payment.ProviderIntentID); err != nil {
		t.Fatalf("confirm payment: %v", err)
	}

	staff := uuid.New()
	if _, err := env.ordersSvc.Assign(ctx, order.ID, staff); err != nil {
		t.Fatalf("assign order: %v", err)
	}
	actor := orders.Actor{UserID: staff, Role: enums.RoleStaff}
	if _, err := env.ordersSvc.UpdateStatus(ctx, order.ID, actor, enums.OrderStatusShipped, nil); err != nil {
		t.Fatalf("ship: %v", err)
	}
	delivered, err := env.ordersSvc.UpdateStatus(ctx, order.ID, actor, enums.OrderStatusDelivered, nil)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	return delivered
}

func openReturn(t *testing.T, env *testEnv, order *models.Order) *models.Return {
	t.Helper()
	row, err := env.svc.Create(context.Background(), CreateInput{
		CustomerID:  env.customer,
		OrderID:     order.ID,
		OrderItemID: order.Items[0].ID,
		Reason:      "wrong size",
	})
	if err != nil {
		t.Fatalf("create return: %v", err)
	}
	return row
}

func TestCreate_RequiresDeliveredOrderWithinWindow(t *testing.T) {
	env := newTestEnv(t)
	order := deliveredOrder(t, env, 1)
	ctx := context.Background()

	row := openReturn(t, env, order)
	if row.Status != enums.ReturnStatusPending {
		t.Fatalf("expected pending return, got %s", row.Status)
	}

	// Second return for the same item conflicts.
	_, err := env.svc.Create(ctx, CreateInput{
		CustomerID:  env.customer,
		OrderID:     order.ID,
		OrderItemID: order.Items[0].ID,
		Reason:      "changed my mind",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreate_WindowClosed(t *testing.T) {
	env := newTestEnv(t)
	order := deliveredOrder(t, env, 1)

	past := time.Now().Add(-time.Hour)
	err := env.conn.Model(&models.Order{}).Where("id = ?", order.ID).
		UpdateColumn("return_deadline", past).Error
	if err != nil {
		t.Fatalf("age order: %v", err)
	}

	_, err = env.svc.Create(context.Background(), CreateInput{
		CustomerID:  env.customer,
		OrderID:     order.ID,
		OrderItemID: order.Items[0].ID,
		Reason:      "too late",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected window-closed error, got %v", err)
	}
}

func TestCreate_UndeliveredOrderRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order, err := env.ordersSvc.Create(ctx, orders.CreateOrderInput{
		CustomerID: env.customer,
		Items:      []orders.OrderItemInput{{StockID: env.variant.ID, Quantity: 1}},
		ShippingAddress: types.ShippingAddress{
			Name: "Ada", Street: "1 Mill Rd", City: "Leeds", State: "YS", Zip: "LS1", Country: "GB",
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	_, err = env.svc.Create(ctx, CreateInput{
		CustomerID:  env.customer,
		OrderID:     order.ID,
		OrderItemID: order.Items[0].ID,
		Reason:      "early",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestAssign_ClaimOnceOnly(t *testing.T) {
	env := newTestEnv(t)
	order := deliveredOrder(t, env, 1)
	row := openReturn(t, env, order)
	ctx := context.Background()

	staff := uuid.New()
	claimed, err := env.svc.Assign(ctx, row.ID, staff)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if claimed.StaffID == nil || *claimed.StaffID != staff {
		t.Fatalf("expected staff recorded, got %+v", claimed.StaffID)
	}

	_, err = env.svc.Assign(ctx, row.ID, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected already-assigned conflict, got %v", err)
	}
}

func TestProcess_ApproveRefundsAndRestoresStock(t *testing.T) {
	env := newTestEnv(t)
	order := deliveredOrder(t, env, 2)
	row := openReturn(t, env, order)
	ctx := context.Background()

	staff := uuid.New()
	if _, err := env.svc.Assign(ctx, row.ID, staff); err != nil {
		t.Fatalf("assign: %v", err)
	}
	done, err := env.svc.Process(ctx, ProcessInput{
		ReturnID: row.ID, StaffID: staff, Decision: DecisionApprove,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if done.Status != enums.ReturnStatusCompleted {
		t.Fatalf("expected completed, got %s", done.Status)
	}
	if done.RefundAmount == nil || !done.RefundAmount.Equal(decimal.RequireFromString("80.00")) {
		t.Fatalf("expected refund 80.00, got %v", done.RefundAmount)
	}
	if done.ProcessedAt == nil {
		t.Fatal("expected processed timestamp")
	}

	// 8000 minor units hit the processor.
	if len(env.processor.refunds) != 1 || env.processor.refunds[0] != 8000 {
		t.Fatalf("expected processor refund of 8000, got %v", env.processor.refunds)
	}

	// Both reserved units returned to the shelf.
	var variant models.Stock
	if err := env.conn.First(&variant, "id = ?", env.variant.ID).Error; err != nil {
		t.Fatalf("reload stock: %v", err)
	}
	if variant.Quantity != 10 {
		t.Fatalf("expected quantity back to 10, got %d", variant.Quantity)
	}

	var events int64
	if err := env.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventReturnCompleted).Count(&events).Error; err != nil {
		t.Fatalf("count outbox: %v", err)
	}
	if events != 1 {
		t.Fatalf("expected one return.completed event, got %d", events)
	}
}

func TestProcess_RefundFailureAbortsApproval(t *testing.T) {
	env := newTestEnv(t)
	order := deliveredOrder(t, env, 1)
	row := openReturn(t, env, order)
	ctx := context.Background()

	staff := uuid.New()
	if _, err := env.svc.Assign(ctx, row.ID, staff); err != nil {
		t.Fatalf("assign: %v", err)
	}
	env.processor.refundErr = errors.New("gateway timeout")
	_, err := env.svc.Process(ctx, ProcessInput{
		ReturnID: row.ID, StaffID: staff, Decision: DecisionApprove,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeExternal {
		t.Fatalf("expected external error, got %v", err)
	}

	pending, err := env.svc.Get(ctx, row.ID)
	if err != nil {
		t.Fatalf("reload return: %v", err)
	}
	if pending.Status != enums.ReturnStatusPending {
		t.Fatalf("expected return still pending, got %s", pending.Status)
	}
	var variant models.Stock
	if err := env.conn.First(&variant, "id = ?", env.variant.ID).Error; err != nil {
		t.Fatalf("reload stock: %v", err)
	}
	if variant.Quantity != 9 {
		t.Fatalf("expected stock untouched at 9, got %d", variant.Quantity)
	}
}

func TestProcess_RejectRecordsNotes(t *testing.T) {
	env := newTestEnv(t)
	order := deliveredOrder(t, env, 1)
	row := openReturn(t, env, order)
	ctx := context.Background()

	staff := uuid.New()
	if _, err := env.svc.Assign(ctx, row.ID, staff); err != nil {
		t.Fatalf("assign: %v", err)
	}
	notes := "item shows wear"
	rejected, err := env.svc.Process(ctx, ProcessInput{
		ReturnID: row.ID, StaffID: staff, Decision: DecisionReject, Notes: &notes,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if rejected.Status != enums.ReturnStatusRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}
	if rejected.Notes == nil || *rejected.Notes != notes {
		t.Fatalf("expected notes recorded, got %v", rejected.Notes)
	}

	_, err = env.svc.Process(ctx, ProcessInput{
		ReturnID: row.ID, StaffID: staff, Decision: DecisionApprove,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestProcess_NonAssigneeForbidden(t *testing.T) {
	env := newTestEnv(t)
	order := deliveredOrder(t, env, 1)
	row := openReturn(t, env, order)
	ctx := context.Background()

	if _, err := env.svc.Assign(ctx, row.ID, uuid.New()); err != nil {
		t.Fatalf("assign: %v", err)
	}
	_, err := env.svc.Process(ctx, ProcessInput{
		ReturnID: row.ID, StaffID: uuid.New(), Decision: DecisionApprove,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
