package payments

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fashionmart/fashionmart-backend/internal/orders"
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
	intentStatus string
	refundErr    error
	refunds      []int64
}

func (f *fakeProcessor) CreateIntent(_ context.Context, amount int64, _ string, _ map[string]string) (string, string, error) {
	return "pi_" + uuid.NewString(), "secret_" + uuid.NewString(), nil
}

func (f *fakeProcessor) RetrieveIntent(context.Context, string) (string, error) {
	return f.intentStatus, nil
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
	conn      *gorm.DB
	processor *fakeProcessor
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
		&models.Payment{}, &models.Refund{}, &models.OutboxEvent{},
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

	processor := &fakeProcessor{intentStatus: stripe.IntentStatusSucceeded}
	svc, err := NewService(NewRepository(conn), client, processor, ordersSvc, outboxSvc,
		nil, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("payments service: %v", err)
	}
	return &testEnv{svc: svc, ordersSvc: ordersSvc, conn: conn, processor: processor}
}

func seedOrder(t *testing.T, env *testEnv, total string) *models.Order {
	t.Helper()
	product := models.Product{
		ID:          uuid.New(),
		CategoryID:  uuid.New(),
		Name:        "wrap dress",
		Description: "floral wrap dress",
		Price:       decimal.RequireFromString(total),
		IsActive:    true,
	}
	if err := env.conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	variant := models.Stock{
		ID: uuid.New(), ProductID: product.ID,
		Size: "S", Color: "red", Quantity: 10, LowStockThreshold: 2,
	}
	if err := env.conn.Create(&variant).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	order, err := env.ordersSvc.Create(context.Background(), orders.CreateOrderInput{
		CustomerID: uuid.New(),
		Items:      []orders.OrderItemInput{{StockID: variant.ID, Quantity: 1}},
		ShippingAddress: types.ShippingAddress{
			Name: "Ada", Street: "1 Mill Rd", City: "Leeds", State: "YS", Zip: "LS1", Country: "GB",
		},
	})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func TestCreateIntent_PersistsPendingPayment(t *testing.T) {
	env := newTestEnv(t)
	order := seedOrder(t, env, "120.50")

	result, err := env.svc.CreateIntent(context.Background(), order.ID, order.CustomerID)
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if result.ClientSecret == "" {
		t.Fatal("expected client secret")
	}
	if result.Payment.Status != enums.PaymentStatusPending {
		t.Fatalf("expected pending payment, got %s", result.Payment.Status)
	}
	if !result.Payment.Amount.Equal(order.TotalAmount) {
		t.Fatalf("expected amount %s, got %s", order.TotalAmount, result.Payment.Amount)
	}
}

func TestCreateIntent_PaidOrderConflicts(t *testing.T) {
	env := newTestEnv(t)
	order := seedOrder(t, env, "10.00")
	ctx := context.Background()

	result, err := env.svc.CreateIntent(ctx, order.ID, order.CustomerID)
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if _, err := env.svc.Confirm(ctx, order.ID, order.CustomerID, result.Payment.ProviderIntentID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	_, err = env.svc.CreateIntent(ctx, order.ID, order.CustomerID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestConfirm_SucceededAdvancesOrder(t *testing.T) {
	env := newTestEnv(t)
	order := seedOrder(t, env, "75.00")
	ctx := context.Background()

	result, err := env.svc.CreateIntent(ctx, order.ID, order.CustomerID)
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	payment, err := env.svc.Confirm(ctx, order.ID, order.CustomerID, result.Payment.ProviderIntentID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if payment.Status != enums.PaymentStatusSucceeded {
		t.Fatalf("expected succeeded, got %s", payment.Status)
	}

	reloaded, err := env.ordersSvc.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.PaymentStatus != enums.OrderPaymentStatusPaid || reloaded.Status != enums.OrderStatusProcessing {
		t.Fatalf("expected paid/processing, got %s/%s", reloaded.PaymentStatus, reloaded.Status)
	}

	var events int64
	if err := env.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventPaymentSucceeded).Count(&events).Error; err != nil {
		t.Fatalf("count outbox: %v", err)
	}
	if events != 1 {
		t.Fatalf("expected one payment.succeeded event, got %d", events)
	}
}

func TestConfirm_NotSucceededLeavesEverythingAlone(t *testing.T) {
	env := newTestEnv(t)
	env.processor.intentStatus = "requires_payment_method"
	order := seedOrder(t, env, "75.00")
	ctx := context.Background()

	result, err := env.svc.CreateIntent(ctx, order.ID, order.CustomerID)
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	_, err = env.svc.Confirm(ctx, order.ID, order.CustomerID, result.Payment.ProviderIntentID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	payment, err := env.svc.Get(ctx, result.Payment.ID)
	if err != nil {
		t.Fatalf("reload payment: %v", err)
	}
	if payment.Status != enums.PaymentStatusPending {
		t.Fatalf("expected payment untouched, got %s", payment.Status)
	}
	reloaded, err := env.ordersSvc.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.PaymentStatus != enums.OrderPaymentStatusPending {
		t.Fatalf("expected order untouched, got %s", reloaded.PaymentStatus)
	}
}

func confirmPaid(t *testing.T, env *testEnv, order *models.Order) *models.Payment {
	t.Helper()
	ctx := context.Background()
	result, err := env.svc.CreateIntent(ctx, order.ID, order.CustomerID)
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	payment, err := env.svc.Confirm(ctx, order.ID, order.CustomerID, result.Payment.ProviderIntentID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	return payment
}

func TestRefund_FullFlipsOrderPaymentStatus(t *testing.T) {
	env := newTestEnv(t)
	order := seedOrder(t, env, "50.00")
	payment := confirmPaid(t, env, order)
	ctx := context.Background()

	refund, err := env.svc.Refund(ctx, RefundInput{
		PaymentID:   payment.ID,
		Reason:      "requested_by_customer",
		ProcessedBy: uuid.New(),
	})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if !refund.Amount.Equal(payment.Amount) {
		t.Fatalf("expected full refund %s, got %s", payment.Amount, refund.Amount)
	}
	if len(env.processor.refunds) != 1 || env.processor.refunds[0] != 5000 {
		t.Fatalf("expected 5000 minor units refunded, got %v", env.processor.refunds)
	}

	reloaded, err := env.ordersSvc.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.PaymentStatus != enums.OrderPaymentStatusRefunded {
		t.Fatalf("expected order refunded, got %s", reloaded.PaymentStatus)
	}
}

func TestRefund_EventCarriesActorRole(t *testing.T) {
	env := newTestEnv(t)
	order := seedOrder(t, env, "50.00")
	payment := confirmPaid(t, env, order)
	ctx := context.Background()
	staffID := uuid.New()

	_, err := env.svc.Refund(ctx, RefundInput{
		PaymentID:       payment.ID,
		Reason:          "return approved",
		ProcessedBy:     staffID,
		ProcessedByRole: enums.RoleStaff,
	})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}

	var event models.OutboxEvent
	err = env.conn.Where("event_type = ?", enums.EventPaymentRefunded).First(&event).Error
	if err != nil {
		t.Fatalf("load refund event: %v", err)
	}
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Actor == nil {
		t.Fatal("expected actor on refund event")
	}
	if envelope.Actor.UserID != staffID {
		t.Fatalf("expected actor %s, got %s", staffID, envelope.Actor.UserID)
	}
	if envelope.Actor.Role != string(enums.RoleStaff) {
		t.Fatalf("expected staff actor role, got %q", envelope.Actor.Role)
	}
}

func TestRefund_PartialKeepsOrderPaid(t *testing.T) {
	env := newTestEnv(t)
	order := seedOrder(t, env, "50.00")
	payment := confirmPaid(t, env, order)
	ctx := context.Background()

	partial := decimal.RequireFromString("20.00")
	refund, err := env.svc.Refund(ctx, RefundInput{
		PaymentID:   payment.ID,
		Amount:      &partial,
		Reason:      "damaged item",
		ProcessedBy: uuid.New(),
	})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if !refund.Amount.Equal(partial) {
		t.Fatalf("expected partial refund, got %s", refund.Amount)
	}

	reloaded, err := env.ordersSvc.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.PaymentStatus != enums.OrderPaymentStatusPaid {
		t.Fatalf("expected order still paid, got %s", reloaded.PaymentStatus)
	}
}

func TestRefund_ProcessorFailureAborts(t *testing.T) {
	env := newTestEnv(t)
	order := seedOrder(t, env, "50.00")
	payment := confirmPaid(t, env, order)
	env.processor.refundErr = errors.New("card network unavailable")

	_, err := env.svc.Refund(context.Background(), RefundInput{
		PaymentID:   payment.ID,
		Reason:      "requested_by_customer",
		ProcessedBy: uuid.New(),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeExternal {
		t.Fatalf("expected external error, got %v", err)
	}

	reloaded, err := env.svc.Get(context.Background(), payment.ID)
	if err != nil {
		t.Fatalf("reload payment: %v", err)
	}
	if reloaded.Status != enums.PaymentStatusSucceeded {
		t.Fatalf("expected payment untouched, got %s", reloaded.Status)
	}
	var refunds int64
	if err := env.conn.Model(&models.Refund{}).Count(&refunds).Error; err != nil {
		t.Fatalf("count refunds: %v", err)
	}
	if refunds != 0 {
		t.Fatalf("expected no refund rows, got %d", refunds)
	}
}

func TestRefund_RejectsNonSucceededAndOversized(t *testing.T) {
	env := newTestEnv(t)
	order := seedOrder(t, env, "50.00")
	ctx := context.Background()

	result, err := env.svc.CreateIntent(ctx, order.ID, order.CustomerID)
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	_, err = env.svc.Refund(ctx, RefundInput{
		PaymentID: result.Payment.ID, Reason: "x", ProcessedBy: uuid.New(),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for pending payment, got %v", err)
	}

	payment := confirmPaid(t, env, order)
	over := payment.Amount.Add(decimal.RequireFromString("0.01"))
	_, err = env.svc.Refund(ctx, RefundInput{
		PaymentID: payment.ID, Amount: &over, Reason: "x", ProcessedBy: uuid.New(),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
