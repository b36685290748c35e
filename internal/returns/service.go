package returns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fashionmart/fashionmart-backend/internal/payments"
	"github.com/fashionmart/fashionmart-backend/internal/stock"
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

// Decision is the action staff take on a pending return.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

type orderAccess interface {
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error)
}

type refunder interface {
	List(ctx context.Context, params payments.ListParams) (*payments.ListResult, error)
	Refund(ctx context.Context, input payments.RefundInput) (*models.Refund, error)
}

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

// Service drives the per-item return workflow from customer request through
// staff decision, refund and stock restoration.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Return, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Return, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, params ListParams) (*ListResult, error)
	ListUnassigned(ctx context.Context) ([]models.Return, error)
	ListAssigned(ctx context.Context, staffID uuid.UUID) ([]models.Return, error)
	Assign(ctx context.Context, returnID, staffID uuid.UUID) (*models.Return, error)
	Process(ctx context.Context, input ProcessInput) (*models.Return, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	orders  orderAccess
	stocks  stock.Service
	refunds refunder
	outbox  outboxPublisher
	alerts  notifier
	users   userDirectory
	mail    mailer.Sender
	metrics *metrics.BackofficeMetrics
	logg    *logger.Logger
}

// CreateInput is a customer's return request for one purchased item.
type CreateInput struct {
	CustomerID  uuid.UUID
	OrderID     uuid.UUID
	OrderItemID uuid.UUID
	Reason      string
	Images      types.ImageList
}

// ProcessInput carries the staff decision on a pending return.
type ProcessInput struct {
	ReturnID uuid.UUID
	StaffID  uuid.UUID
	Decision Decision
	Notes    *string
}

// ListParams pages a customer's return history.
type ListParams struct {
	Limit  int
	Cursor *pagination.Cursor
}

// ListResult is one page of returns.
type ListResult struct {
	Returns    []models.Return
	NextCursor *pagination.Cursor
}

// NewService wires return workflow dependencies. Notifier, user directory,
// mail sender, metrics and logger are optional.
func NewService(
	repo Repository,
	tx txRunner,
	orders orderAccess,
	stocks stock.Service,
	refunds refunder,
	outboxSvc outboxPublisher,
	alerts notifier,
	users userDirectory,
	mail mailer.Sender,
	m *metrics.BackofficeMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "returns repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order access required")
	}
	if stocks == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stock service required")
	}
	if refunds == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payments service required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox service required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		orders:  orders,
		stocks:  stocks,
		refunds: refunds,
		outbox:  outboxSvc,
		alerts:  alerts,
		users:   users,
		mail:    mail,
		metrics: m,
		logg:    logg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Return, error) {
	if input.CustomerID == uuid.Nil || input.OrderID == uuid.Nil || input.OrderItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer, order and order item ids required")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return reason required")
	}

	order, err := s.orders.Get(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != input.CustomerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.Status != enums.OrderStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only delivered orders can be returned")
	}
	if order.ReturnDeadline == nil || time.Now().After(*order.ReturnDeadline) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "return window has closed")
	}

	item, err := s.orders.GetItem(ctx, input.OrderItemID)
	if err != nil {
		return nil, err
	}
	if item.OrderID != order.ID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item does not belong to this order")
	}

	if _, err := s.repo.GetByOrderItem(ctx, input.OrderItemID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a return already exists for this item")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing return")
	}

	row := &models.Return{
		OrderID:     order.ID,
		OrderItemID: item.ID,
		CustomerID:  input.CustomerID,
		Reason:      input.Reason,
		Images:      input.Images,
		Status:      enums.ReturnStatusPending,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create return")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReturnRequested,
			AggregateType: enums.AggregateReturn,
			AggregateID:   row.ID,
			Actor:         &outbox.ActorRef{UserID: input.CustomerID, Role: string(enums.RoleCustomer)},
			Data: payloads.ReturnRequestedEvent{
				ReturnID:    row.ID,
				OrderID:     order.ID,
				OrderItemID: item.ID,
				CustomerID:  input.CustomerID,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.sendReturnEmail(ctx, input.CustomerID, row.ID)
	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "return requested")
	}
	return row, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Return, error) {
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return")
	}
	return row, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID, params ListParams) (*ListResult, error) {
	rows, next, err := s.repo.ListByCustomer(ctx, customerID, listReturnsParams{
		Limit:  params.Limit,
		Cursor: params.Cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list returns")
	}
	return &ListResult{Returns: rows, NextCursor: next}, nil
}

func (s *service) ListUnassigned(ctx context.Context) ([]models.Return, error) {
	rows, err := s.repo.ListUnassigned(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unassigned returns")
	}
	return rows, nil
}

func (s *service) ListAssigned(ctx context.Context, staffID uuid.UUID) ([]models.Return, error) {
	rows, err := s.repo.ListAssigned(ctx, staffID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assigned returns")
	}
	return rows, nil
}

func (s *service) Assign(ctx context.Context, returnID, staffID uuid.UUID) (*models.Return, error) {
	if staffID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "staff id required")
	}
	affected, err := s.repo.Claim(ctx, returnID, staffID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign return")
	}
	if affected > 0 {
		return s.Get(ctx, returnID)
	}

	row, err := s.Get(ctx, returnID)
	if err != nil {
		return nil, err
	}
	if row.StaffID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "return is already assigned")
	}
	return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "return is no longer pending")
}

func (s *service) Process(ctx context.Context, input ProcessInput) (*models.Return, error) {
	if input.Decision != DecisionApprove && input.Decision != DecisionReject {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve or reject")
	}
	row, err := s.Get(ctx, input.ReturnID)
	if err != nil {
		return nil, err
	}
	if row.StaffID == nil || *row.StaffID != input.StaffID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "return is assigned to another staff member")
	}
	if row.Status != enums.ReturnStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "return has already been processed")
	}

	if input.Decision == DecisionReject {
		return s.reject(ctx, row, input.Notes)
	}
	return s.approve(ctx, row, input.Notes)
}

func (s *service) reject(ctx context.Context, row *models.Return, notes *string) (*models.Return, error) {
	fields := map[string]any{
		"status":       enums.ReturnStatusRejected,
		"processed_at": time.Now().UTC(),
	}
	if notes != nil {
		fields["notes"] = *notes
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.WithTx(tx).TransitionStatus(ctx, row.ID, enums.ReturnStatusPending, fields)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject return")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "return processed concurrently")
		}
		event := payloads.ReturnRejectedEvent{ReturnID: row.ID, OrderID: row.OrderID}
		if notes != nil {
			event.Notes = *notes
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReturnRejected,
			AggregateType: enums.AggregateReturn,
			AggregateID:   row.ID,
			Actor:         &outbox.ActorRef{UserID: *row.StaffID, Role: string(enums.RoleStaff)},
			Data:          event,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncReturnDecision("rejected")
	if s.alerts != nil {
		s.alerts.Notify(ctx, row.CustomerID, enums.NotificationTypeReturnStatus,
			"Return update", fmt.Sprintf("Your return %s was rejected.", row.ID))
	}
	return s.Get(ctx, row.ID)
}

func (s *service) approve(ctx context.Context, row *models.Return, notes *string) (*models.Return, error) {
	item, err := s.orders.GetItem(ctx, row.OrderItemID)
	if err != nil {
		return nil, err
	}
	refundAmount := item.Subtotal

	// The refund settles with the processor before any local state moves. If
	// it fails the return stays pending and can be retried.
	payment, err := s.succeededPayment(ctx, row.OrderID)
	if err != nil {
		return nil, err
	}
	if payment != nil {
		if _, err := s.refunds.Refund(ctx, payments.RefundInput{
			PaymentID:       payment.ID,
			Amount:          &refundAmount,
			Reason:          "return approved",
			ProcessedBy:     *row.StaffID,
			ProcessedByRole: enums.RoleStaff,
		}); err != nil {
			return nil, err
		}
	}

	fields := map[string]any{
		"status":        enums.ReturnStatusCompleted,
		"refund_amount": refundAmount,
		"processed_at":  time.Now().UTC(),
	}
	if notes != nil {
		fields["notes"] = *notes
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.stocks.Restore(ctx, tx, item.StockID, item.Quantity); err != nil {
			return err
		}
		affected, err := s.repo.WithTx(tx).TransitionStatus(ctx, row.ID, enums.ReturnStatusPending, fields)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete return")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "return processed concurrently")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReturnCompleted,
			AggregateType: enums.AggregateReturn,
			AggregateID:   row.ID,
			Actor:         &outbox.ActorRef{UserID: *row.StaffID, Role: string(enums.RoleStaff)},
			Data: payloads.ReturnCompletedEvent{
				ReturnID:     row.ID,
				OrderID:      row.OrderID,
				RefundAmount: refundAmount,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncReturnDecision("approved")
	if s.alerts != nil {
		s.alerts.Notify(ctx, row.CustomerID, enums.NotificationTypeReturnStatus,
			"Return update", fmt.Sprintf("Your return %s was approved. %s will be refunded.",
				row.ID, refundAmount.StringFixed(2)))
	}
	return s.Get(ctx, row.ID)
}

// succeededPayment finds the refundable payment for the order, nil when the
// order was never captured.
func (s *service) succeededPayment(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	status := enums.PaymentStatusSucceeded
	result, err := s.refunds.List(ctx, payments.ListParams{OrderID: &orderID, Status: &status})
	if err != nil {
		return nil, err
	}
	if len(result.Payments) == 0 {
		return nil, nil
	}
	return &result.Payments[0], nil
}

func (s *service) sendReturnEmail(ctx context.Context, customerID, returnID uuid.UUID) {
	if s.mail == nil || s.users == nil {
		return
	}
	user, err := s.users.Get(ctx, customerID)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithUserID(ctx, customerID.String()), "skipping return email, customer lookup failed")
		}
		return
	}
	body := mailer.ReturnReceivedHTML(user.FirstName, returnID.String())
	if err := s.mail.Send(ctx, user.Email, "Return received", body); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithUserID(ctx, customerID.String()), "return email failed", err)
	}
}
