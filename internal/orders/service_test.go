package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fashionmart/fashionmart-backend/internal/stock"
	"github.com/fashionmart/fashionmart-backend/pkg/config"
	dbpkg "github.com/fashionmart/fashionmart-backend/pkg/db"
	"github.com/fashionmart/fashionmart-backend/pkg/db/models"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	pkgerrors "github.com/fashionmart/fashionmart-backend/pkg/errors"
	"github.com/fashionmart/fashionmart-backend/pkg/outbox"
	"github.com/fashionmart/fashionmart-backend/pkg/types"
)

type fakeDirectory struct{}

func (fakeDirectory) ActiveByRole(context.Context, enums.Role) ([]models.User, error) {
	return nil, nil
}

type recordingNotifier struct {
	calls []recordedAlert
}

type recordedAlert struct {
	userID uuid.UUID
	kind   enums.NotificationType
}

func (r *recordingNotifier) Notify(_ context.Context, userID uuid.UUID, kind enums.NotificationType, _, _ string) {
	r.calls = append(r.calls, recordedAlert{userID: userID, kind: kind})
}

type recordingSender struct {
	sent []string
}

func (r *recordingSender) Send(_ context.Context, to, _, _ string) error {
	r.sent = append(r.sent, to)
	return nil
}

type testEnv struct {
	svc    Service
	conn   *gorm.DB
	alerts *recordingNotifier
	mail   *recordingSender
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
		&models.User{}, &models.Product{}, &models.Stock{},
		&models.Order{}, &models.OrderItem{}, &models.OutboxEvent{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	stockSvc, err := stock.NewService(stock.NewRepository(conn), fakeDirectory{}, nil, nil, nil)
	if err != nil {
		t.Fatalf("stock service: %v", err)
	}
	alerts := &recordingNotifier{}
	mail := &recordingSender{}
	svc, err := NewService(
		NewRepository(conn),
		dbpkg.NewFromConn(conn),
		stockSvc,
		outbox.NewService(outbox.NewRepository(conn), nil),
		alerts,
		usersFromConn{conn: conn},
		mail,
		nil,
		config.ReturnsConfig{WindowDays: 7},
		nil,
	)
	if err != nil {
		t.Fatalf("orders service: %v", err)
	}
	return &testEnv{svc: svc, conn: conn, alerts: alerts, mail: mail}
}

type usersFromConn struct {
	conn *gorm.DB
}

func (u usersFromConn) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var row models.User
	if err := u.conn.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func seedCustomer(t *testing.T, conn *gorm.DB) uuid.UUID {
	t.Helper()
	row := models.User{
		ID:        uuid.New(),
		Email:     uuid.NewString() + "@example.com",
		FirstName: "Ada",
		LastName:  "Nwosu",
		Role:      enums.RoleCustomer,
		IsActive:  true,
	}
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return row.ID
}

func seedVariant(t *testing.T, conn *gorm.DB, price string, qty int) *models.Stock {
	t.Helper()
	product := models.Product{
		ID:          uuid.New(),
		CategoryID:  uuid.New(),
		Name:        "denim jacket",
		Description: "stonewashed denim jacket",
		Price:       decimal.RequireFromString(price),
		IsActive:    true,
	}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	variant := models.Stock{
		ID:                uuid.New(),
		ProductID:         product.ID,
		Size:              "M",
		Color:             "indigo",
		Quantity:          qty,
		LowStockThreshold: 2,
	}
	if err := conn.Create(&variant).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	return &variant
}

func validAddress() types.ShippingAddress {
	return types.ShippingAddress{
		Name:    "Ada Nwosu",
		Street:  "12 Broad St",
		City:    "Lagos",
		State:   "LA",
		Zip:     "100001",
		Country: "NG",
	}
}

func placeOrder(t *testing.T, env *testEnv, customerID uuid.UUID, variant *models.Stock, qty int) *models.Order {
	t.Helper()
	order, err := env.svc.Create(context.Background(), CreateOrderInput{
		CustomerID:      customerID,
		Items:           []OrderItemInput{{StockID: variant.ID, Quantity: qty}},
		ShippingAddress: validAddress(),
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func forcePaidProcessing(t *testing.T, env *testEnv, orderID uuid.UUID) {
	t.Helper()
	err := env.conn.Model(&models.Order{}).Where("id = ?", orderID).Updates(map[string]any{
		"status":         enums.OrderStatusProcessing,
		"payment_status": enums.OrderPaymentStatusPaid,
	}).Error
	if err != nil {
		t.Fatalf("force paid/processing: %v", err)
	}
}

func TestCreate_ReservesStockAndSnapshotsPrices(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env.conn)
	variant := seedVariant(t, env.conn, "120.50", 10)

	order := placeOrder(t, env, customer, variant, 3)

	if order.Status != enums.OrderStatusPending || order.PaymentStatus != enums.OrderPaymentStatusPending {
		t.Fatalf("expected pending/pending, got %s/%s", order.Status, order.PaymentStatus)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("361.50")) {
		t.Fatalf("expected total 361.50, got %s", order.TotalAmount)
	}
	if len(order.Items) != 1 || !order.Items[0].UnitPrice.Equal(decimal.RequireFromString("120.50")) {
		t.Fatalf("expected unit price snapshot, got %+v", order.Items)
	}

	var remaining models.Stock
	if err := env.conn.First(&remaining, "id = ?", variant.ID).Error; err != nil {
		t.Fatalf("reload stock: %v", err)
	}
	if remaining.Quantity != 7 {
		t.Fatalf("expected 7 remaining, got %d", remaining.Quantity)
	}

	var events int64
	if err := env.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventOrderCreated).Count(&events).Error; err != nil {
		t.Fatalf("count outbox: %v", err)
	}
	if events != 1 {
		t.Fatalf("expected one order.created event, got %d", events)
	}
	if len(env.mail.sent) != 1 {
		t.Fatalf("expected confirmation email, got %d", len(env.mail.sent))
	}
}

func TestCreate_InsufficientStockLeavesNothingBehind(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env.conn)
	variant := seedVariant(t, env.conn, "50.00", 2)

	_, err := env.svc.Create(context.Background(), CreateOrderInput{
		CustomerID:      customer,
		Items:           []OrderItemInput{{StockID: variant.ID, Quantity: 5}},
		ShippingAddress: validAddress(),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	var orders int64
	if err := env.conn.Model(&models.Order{}).Count(&orders).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orders != 0 {
		t.Fatalf("expected no orders, got %d", orders)
	}
}

func TestCreate_RejectsIncompleteAddress(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env.conn)
	variant := seedVariant(t, env.conn, "50.00", 5)

	addr := validAddress()
	addr.Zip = ""
	_, err := env.svc.Create(context.Background(), CreateOrderInput{
		CustomerID:      customer,
		Items:           []OrderItemInput{{StockID: variant.ID, Quantity: 1}},
		ShippingAddress: addr,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateStatus_HappyPathToDelivered(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env.conn)
	staff := uuid.New()
	variant := seedVariant(t, env.conn, "80.00", 5)
	order := placeOrder(t, env, customer, variant, 1)
	forcePaidProcessing(t, env, order.ID)
	if _, err := env.svc.Assign(context.Background(), order.ID, staff); err != nil {
		t.Fatalf("assign: %v", err)
	}
	actor := Actor{UserID: staff, Role: enums.RoleStaff}
	ctx := context.Background()

	if _, err := env.svc.UpdateStatus(ctx, order.ID, actor, enums.OrderStatusShipped, nil); err != nil {
		t.Fatalf("ship: %v", err)
	}
	delivered, err := env.svc.UpdateStatus(ctx, order.ID, actor, enums.OrderStatusDelivered, nil)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if delivered.DeliveredAt == nil || delivered.ReturnDeadline == nil {
		t.Fatal("expected delivery timestamps")
	}
	window := delivered.ReturnDeadline.Sub(*delivered.DeliveredAt)
	if window < 6*24*time.Hour || window > 8*24*time.Hour {
		t.Fatalf("expected ~7 day return window, got %s", window)
	}

	// status notifications fire on every transition
	if len(env.alerts.calls) != 2 {
		t.Fatalf("expected two customer notifications, got %d", len(env.alerts.calls))
	}

	_, err = env.svc.UpdateStatus(ctx, order.ID, actor, enums.OrderStatusCancelled, nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected terminal state conflict, got %v", err)
	}
}

func TestUpdateStatus_RejectsIllegalTransition(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env.conn)
	variant := seedVariant(t, env.conn, "80.00", 5)
	order := placeOrder(t, env, customer, variant, 1)

	actor := Actor{UserID: uuid.New(), Role: enums.RoleAdmin}
	_, err := env.svc.UpdateStatus(context.Background(), order.ID, actor, enums.OrderStatusDelivered, nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestUpdateStatus_StaffMustBeAssignee(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env.conn)
	staff := uuid.New()
	variant := seedVariant(t, env.conn, "80.00", 5)
	order := placeOrder(t, env, customer, variant, 1)
	forcePaidProcessing(t, env, order.ID)
	if _, err := env.svc.Assign(context.Background(), order.ID, staff); err != nil {
		t.Fatalf("assign: %v", err)
	}

	intruder := Actor{UserID: uuid.New(), Role: enums.RoleStaff}
	_, err := env.svc.UpdateStatus(context.Background(), order.ID, intruder, enums.OrderStatusShipped, nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestAssign_DistinguishesConflictFromWrongState(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env.conn)
	variant := seedVariant(t, env.conn, "80.00", 5)
	order := placeOrder(t, env, customer, variant, 1)
	ctx := context.Background()

	// Still pending/unpaid.
	_, err := env.svc.Assign(ctx, order.ID, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected wrong-state error, got %v", err)
	}

	forcePaidProcessing(t, env, order.ID)
	first := uuid.New()
	assigned, err := env.svc.Assign(ctx, order.ID, first)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if assigned.StaffID == nil || *assigned.StaffID != first {
		t.Fatalf("expected staff recorded, got %+v", assigned.StaffID)
	}

	_, err = env.svc.Assign(ctx, order.ID, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected already-assigned conflict, got %v", err)
	}
}

func TestGetForActor_CustomerOwnership(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env.conn)
	variant := seedVariant(t, env.conn, "80.00", 5)
	order := placeOrder(t, env, customer, variant, 1)
	ctx := context.Background()

	if _, err := env.svc.GetForActor(ctx, order.ID, Actor{UserID: customer, Role: enums.RoleCustomer}); err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
	_, err := env.svc.GetForActor(ctx, order.ID, Actor{UserID: uuid.New(), Role: enums.RoleCustomer})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for other customer, got %v", err)
	}
	if _, err := env.svc.GetForActor(ctx, order.ID, Actor{UserID: uuid.New(), Role: enums.RoleStaff}); err != nil {
		t.Fatalf("staff read failed: %v", err)
	}
}

func TestMarkPaid_AdvancesBothMachines(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env.conn)
	variant := seedVariant(t, env.conn, "80.00", 5)
	order := placeOrder(t, env, customer, variant, 1)
	ctx := context.Background()

	err := dbpkg.NewFromConn(env.conn).WithTx(ctx, func(tx *gorm.DB) error {
		return env.svc.MarkPaid(ctx, tx, order.ID)
	})
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	paid, err := env.svc.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if paid.PaymentStatus != enums.OrderPaymentStatusPaid || paid.Status != enums.OrderStatusProcessing {
		t.Fatalf("expected paid/processing, got %s/%s", paid.PaymentStatus, paid.Status)
	}

	err = dbpkg.NewFromConn(env.conn).WithTx(ctx, func(tx *gorm.DB) error {
		return env.svc.MarkPaid(ctx, tx, order.ID)
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on double pay, got %v", err)
	}
}

func TestMarkPaid_RejectsCancelledOrder(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env.conn)
	variant := seedVariant(t, env.conn, "80.00", 5)
	order := placeOrder(t, env, customer, variant, 1)
	ctx := context.Background()

	err := env.conn.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("status", enums.OrderStatusCancelled).Error
	if err != nil {
		t.Fatalf("cancel order: %v", err)
	}

	err = dbpkg.NewFromConn(env.conn).WithTx(ctx, func(tx *gorm.DB) error {
		return env.svc.MarkPaid(ctx, tx, order.ID)
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for cancelled order, got %v", err)
	}

	row, err := env.svc.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if row.PaymentStatus != enums.OrderPaymentStatusPending {
		t.Fatalf("payment status must roll back to pending, got %s", row.PaymentStatus)
	}
	if row.Status != enums.OrderStatusCancelled {
		t.Fatalf("order must stay cancelled, got %s", row.Status)
	}
}

func TestSalesBetween_Aggregates(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env.conn)
	variant := seedVariant(t, env.conn, "100.00", 50)
	ctx := context.Background()

	first := placeOrder(t, env, customer, variant, 2)
	placeOrder(t, env, customer, variant, 1)
	forcePaidProcessing(t, env, first.ID)

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)
	summary, err := env.svc.SalesBetween(ctx, from, to)
	if err != nil {
		t.Fatalf("sales: %v", err)
	}
	if summary.TotalOrders != 1 {
		t.Fatalf("expected one paid order, got %d", summary.TotalOrders)
	}
	if !summary.Revenue.Equal(decimal.RequireFromString("200")) {
		t.Fatalf("expected revenue 200, got %s", summary.Revenue)
	}
	if summary.ByStatus[enums.OrderStatusPending] != 1 || summary.ByStatus[enums.OrderStatusProcessing] != 1 {
		t.Fatalf("unexpected status counts: %+v", summary.ByStatus)
	}
	if len(summary.TopProducts) != 1 || summary.TopProducts[0].Quantity != 3 {
		t.Fatalf("unexpected top products: %+v", summary.TopProducts)
	}
}

func TestListAll_FiltersAndPaginates(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env.conn)
	other := seedCustomer(t, env.conn)
	variant := seedVariant(t, env.conn, "20.00", 50)
	ctx := context.Background()

	first := placeOrder(t, env, customer, variant, 1)
	placeOrder(t, env, other, variant, 1)
	placeOrder(t, env, customer, variant, 2)
	forcePaidProcessing(t, env, first.ID)

	firstPage, err := env.svc.ListAll(ctx, AdminListParams{Limit: 2})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(firstPage.Orders) != 2 {
		t.Fatalf("expected two orders on first page, got %d", len(firstPage.Orders))
	}
	if firstPage.NextCursor == nil {
		t.Fatal("expected a next cursor")
	}

	secondPage, err := env.svc.ListAll(ctx, AdminListParams{Limit: 2, Cursor: firstPage.NextCursor})
	if err != nil {
		t.Fatalf("list all second page: %v", err)
	}
	if len(secondPage.Orders) != 1 || secondPage.NextCursor != nil {
		t.Fatalf("expected a final page of one, got %d orders", len(secondPage.Orders))
	}
	seen := map[uuid.UUID]bool{}
	for _, row := range append(firstPage.Orders, secondPage.Orders...) {
		if seen[row.ID] {
			t.Fatalf("order %s returned twice", row.ID)
		}
		seen[row.ID] = true
	}

	processing := enums.OrderStatusProcessing
	filtered, err := env.svc.ListAll(ctx, AdminListParams{Status: &processing})
	if err != nil {
		t.Fatalf("list all filtered: %v", err)
	}
	if len(filtered.Orders) != 1 || filtered.Orders[0].ID != first.ID {
		t.Fatalf("expected only the processing order, got %+v", filtered.Orders)
	}
}
