package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fashionmart/fashionmart-backend/internal/stock"
	"github.com/fashionmart/fashionmart-backend/pkg/config"
	"github.com/fashionmart/fashionmart-backend/pkg/db/models"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	pkgerrors "github.com/fashionmart/fashionmart-backend/pkg/errors"
	"github.com/fashionmart/fashionmart-backend/pkg/logger"
	"github.com/fashionmart/fashionmart-backend/pkg/mailer"
	"github.com/fashionmart/fashionmart-backend/pkg/metrics"
	"github.com/fashionmart/fashionmart-backend/pkg/outbox"
	"github.com/fashionmart/fashionmart-backend/pkg/outbox/payloads"
	"github.com/fashionmart/fashionmart-backend/pkg/pagination"
	"github.com/fashionmart/fashionmart-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string)
}

type userDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Actor identifies who is driving an order operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
}

// Service owns the order lifecycle: creation with stock reservation, the staff
// status machine, assignment and the aggregates reports are built from.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error)
	GetForActor(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, params ListParams) (*ListResult, error)
	ListAll(ctx context.Context, params AdminListParams) (*ListResult, error)
	ListUnassigned(ctx context.Context) ([]models.Order, error)
	ListAssigned(ctx context.Context, staffID uuid.UUID) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, actor Actor, target enums.OrderStatus, notes *string) (*models.Order, error)
	Assign(ctx context.Context, orderID, staffID uuid.UUID) (*models.Order, error)
	MarkPaid(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
	MarkRefunded(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
	SalesBetween(ctx context.Context, from, to time.Time) (*SalesSummary, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	stocks  stock.Service
	outbox  outboxPublisher
	alerts  notifier
	users   userDirectory
	mail    mailer.Sender
	metrics *metrics.BackofficeMetrics
	returns config.ReturnsConfig
	logg    *logger.Logger
}

// OrderItemInput selects one stock variant and a quantity.
type OrderItemInput struct {
	StockID  uuid.UUID
	Quantity int
}

// CreateOrderInput carries a customer's checkout request.
type CreateOrderInput struct {
	CustomerID      uuid.UUID
	Items           []OrderItemInput
	ShippingAddress types.ShippingAddress
	Notes           *string
}

// ListParams pages a customer's order history.
type ListParams struct {
	Limit  int
	Cursor *pagination.Cursor
}

// AdminListParams pages the back-office order overview.
type AdminListParams struct {
	Status *enums.OrderStatus
	Limit  int
	Cursor *pagination.Cursor
}

// ListResult is one page of orders.
type ListResult struct {
	Orders     []models.Order
	NextCursor *pagination.Cursor
}

// SalesSummary aggregates one reporting window.
type SalesSummary struct {
	TotalOrders int64                       `json:"total_orders"`
	Revenue     decimal.Decimal             `json:"revenue"`
	ByStatus    map[enums.OrderStatus]int64 `json:"by_status"`
	TopProducts []ProductSales              `json:"top_products"`
}

// NewService wires order dependencies. Notifier, user directory, mail sender,
// metrics and logger are optional.
func NewService(
	repo Repository,
	tx txRunner,
	stocks stock.Service,
	outboxSvc outboxPublisher,
	alerts notifier,
	users userDirectory,
	mail mailer.Sender,
	m *metrics.BackofficeMetrics,
	returns config.ReturnsConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if stocks == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stock service required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox service required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		stocks:  stocks,
		outbox:  outboxSvc,
		alerts:  alerts,
		users:   users,
		mail:    mail,
		metrics: m,
		returns: returns,
		logg:    logg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if missing := input.ShippingAddress.Validate(); missing != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address missing "+missing)
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	for _, item := range input.Items {
		if item.StockID == uuid.Nil || item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "each item needs a stock id and positive quantity")
		}
	}

	// Pre-flight every line before touching anything so the customer gets a
	// full validation answer instead of a partial reservation failure.
	items := make([]models.OrderItem, 0, len(input.Items))
	total := decimal.Zero
	for _, line := range input.Items {
		variant, product, err := s.stocks.GetVariant(ctx, line.StockID)
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("product %s is not available", product.Name))
		}
		if variant.Quantity < line.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("insufficient stock for %s (%s/%s)", product.Name, variant.Size, variant.Color))
		}
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			StockID:   variant.ID,
			Name:      product.Name,
			Size:      variant.Size,
			Color:     variant.Color,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
			Subtotal:  subtotal,
		})
		total = total.Add(subtotal)
	}

	order := &models.Order{
		CustomerID:      input.CustomerID,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.OrderPaymentStatusPending,
		TotalAmount:     total,
		ShippingAddress: input.ShippingAddress,
		Notes:           input.Notes,
		Items:           items,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		for _, item := range order.Items {
			if _, err := s.stocks.Reserve(ctx, tx, item.StockID, item.Quantity); err != nil {
				return err
			}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.CustomerID, Role: string(enums.RoleCustomer)},
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				CustomerID:  order.CustomerID,
				TotalAmount: order.TotalAmount,
				ItemCount:   len(order.Items),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderCreated()
	for _, item := range order.Items {
		s.stocks.AlertIfLow(ctx, item.StockID)
	}
	s.sendOrderEmail(ctx, order.CustomerID, func(first string) (string, string) {
		return "Order confirmation", mailer.OrderConfirmationHTML(first, order.ID.String(), order.TotalAmount)
	})
	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order created")
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	row, err := s.repo.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return row, nil
}

func (s *service) GetItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error) {
	row, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
	}
	return row, nil
}

// GetForActor loads the order and enforces who may see it. Customers only see
// their own orders; staff, inventory managers and admins see any.
func (s *service) GetForActor(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	row, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role == enums.RoleCustomer && row.CustomerID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return row, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID, params ListParams) (*ListResult, error) {
	rows, next, err := s.repo.ListByCustomer(ctx, customerID, listOrdersParams{
		Limit:  params.Limit,
		Cursor: params.Cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return &ListResult{Orders: rows, NextCursor: next}, nil
}

func (s *service) ListAll(ctx context.Context, params AdminListParams) (*ListResult, error) {
	rows, next, err := s.repo.ListAll(ctx, listAllOrdersParams{
		Status: params.Status,
		Limit:  params.Limit,
		Cursor: params.Cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list all orders")
	}
	return &ListResult{Orders: rows, NextCursor: next}, nil
}

func (s *service) ListUnassigned(ctx context.Context) ([]models.Order, error) {
	rows, err := s.repo.ListUnassigned(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unassigned orders")
	}
	return rows, nil
}

func (s *service) ListAssigned(ctx context.Context, staffID uuid.UUID) ([]models.Order, error) {
	rows, err := s.repo.ListAssigned(ctx, staffID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assigned orders")
	}
	return rows, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, actor Actor, target enums.OrderStatus, notes *string) (*models.Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role == enums.RoleStaff {
		if order.StaffID == nil || *order.StaffID != actor.UserID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order is assigned to another staff member")
		}
	} else if actor.Role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only staff or admins update order status")
	}
	if order.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order is already %s", order.Status))
	}
	if !order.Status.CanTransitionTo(target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
	}

	fields := map[string]any{"status": target}
	if notes != nil {
		fields["notes"] = *notes
	}
	var deadline *time.Time
	if target == enums.OrderStatusDelivered {
		now := time.Now().UTC()
		until := now.Add(s.returns.Window())
		fields["delivered_at"] = now
		fields["return_deadline"] = until
		deadline = &until
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.WithTx(tx).TransitionStatus(ctx, orderID, order.Status, fields)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)},
			Data: payloads.OrderStatusChangedEvent{
				OrderID:        orderID,
				CustomerID:     order.CustomerID,
				PreviousStatus: order.Status,
				Status:         target,
				ReturnDeadline: deadline,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderStatus(string(target))
	if s.alerts != nil {
		s.alerts.Notify(ctx, order.CustomerID, enums.NotificationTypeOrderStatus,
			"Order update", fmt.Sprintf("Your order %s is now %s.", orderID, target))
	}
	if target == enums.OrderStatusShipped || target == enums.OrderStatusDelivered {
		s.sendOrderEmail(ctx, order.CustomerID, func(first string) (string, string) {
			return "Order " + string(target), mailer.OrderStatusHTML(first, orderID.String(), string(target))
		})
	}
	return s.Get(ctx, orderID)
}

func (s *service) Assign(ctx context.Context, orderID, staffID uuid.UUID) (*models.Order, error) {
	if staffID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "staff id required")
	}

	var claimed bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.WithTx(tx).Claim(ctx, orderID, staffID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign order")
		}
		if affected == 0 {
			return nil
		}
		claimed = true
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderAssigned,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &outbox.ActorRef{UserID: staffID, Role: string(enums.RoleStaff)},
			Data:          payloads.OrderAssignedEvent{OrderID: orderID, StaffID: staffID},
		})
	})
	if err != nil {
		return nil, err
	}
	if claimed {
		return s.Get(ctx, orderID)
	}

	// The claim lost. Work out why so the caller gets a precise answer.
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.StaffID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is already assigned")
	}
	return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order must be processing and paid before assignment")
}

// MarkPaid advances the payment machine to paid and kicks fulfillment off by
// moving a pending order to processing. Runs inside the caller's transaction.
func (s *service) MarkPaid(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	repo := s.repo.WithTx(tx)
	affected, err := repo.TransitionPaymentStatus(ctx, orderID, enums.OrderPaymentStatusPending,
		map[string]any{"payment_status": enums.OrderPaymentStatusPaid})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
	}
	advanced, err := repo.TransitionStatus(ctx, orderID, enums.OrderStatusPending,
		map[string]any{"status": enums.OrderStatusProcessing})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance paid order")
	}
	if advanced == 0 {
		// The order left pending before payment settled. Anything short of
		// processing (a cancellation, most likely) must fail the confirm so
		// the payment transition rolls back with it.
		row, getErr := repo.Get(ctx, orderID)
		if getErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, getErr, "load order after payment")
		}
		if row.Status != enums.OrderStatusProcessing {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is no longer awaiting fulfillment")
		}
	}
	return nil
}

// MarkRefunded flips a paid order to refunded inside the caller's transaction.
func (s *service) MarkRefunded(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	affected, err := s.repo.WithTx(tx).TransitionPaymentStatus(ctx, orderID, enums.OrderPaymentStatusPaid,
		map[string]any{"payment_status": enums.OrderPaymentStatusRefunded})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order refunded")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not paid")
	}
	return nil
}

func (s *service) SalesBetween(ctx context.Context, from, to time.Time) (*SalesSummary, error) {
	if !to.After(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reporting window must not be empty")
	}
	revenue, totalOrders, err := s.repo.RevenueBetween(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate revenue")
	}
	byStatus, err := s.repo.CountByStatusBetween(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate order statuses")
	}
	top, err := s.repo.TopProductsBetween(ctx, from, to, 5)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate top products")
	}
	return &SalesSummary{
		TotalOrders: totalOrders,
		Revenue:     revenue,
		ByStatus:    byStatus,
		TopProducts: top,
	}, nil
}

// sendOrderEmail resolves the customer and sends on a best-effort basis.
func (s *service) sendOrderEmail(ctx context.Context, customerID uuid.UUID, build func(firstName string) (subject, body string)) {
	if s.mail == nil || s.users == nil {
		return
	}
	user, err := s.users.Get(ctx, customerID)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithUserID(ctx, customerID.String()), "skipping order email, customer lookup failed")
		}
		return
	}
	subject, body := build(user.FirstName)
	if err := s.mail.Send(ctx, user.Email, subject, body); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithUserID(ctx, customerID.String()), "order email failed", err)
	}
}
