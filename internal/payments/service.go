package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fashionmart/fashionmart-backend/pkg/db/models"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	pkgerrors "github.com/fashionmart/fashionmart-backend/pkg/errors"
	"github.com/fashionmart/fashionmart-backend/pkg/logger"
	"github.com/fashionmart/fashionmart-backend/pkg/mailer"
	"github.com/fashionmart/fashionmart-backend/pkg/metrics"
	"github.com/fashionmart/fashionmart-backend/pkg/outbox"
	"github.com/fashionmart/fashionmart-backend/pkg/outbox/payloads"
	"github.com/fashionmart/fashionmart-backend/pkg/pagination"
	"github.com/fashionmart/fashionmart-backend/pkg/stripe"
)

// Processor is the payment provider port. pkg/stripe carries the production
// implementation.
type Processor interface {
	CreateIntent(ctx context.Context, amountMinorUnits int64, currency string, metadata map[string]string) (intentID, clientSecret string, err error)
	RetrieveIntent(ctx context.Context, intentID string) (status string, err error)
	CreateRefund(ctx context.Context, intentID string, amountMinorUnits int64, reason string) (refundID string, err error)
}

type orderAccess interface {
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	MarkPaid(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
	MarkRefunded(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
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

// Service reconciles orders against the payment processor.
type Service interface {
	CreateIntent(ctx context.Context, orderID, customerID uuid.UUID) (*IntentResult, error)
	Confirm(ctx context.Context, orderID, customerID uuid.UUID, intentID string) (*models.Payment, error)
	Refund(ctx context.Context, input RefundInput) (*models.Refund, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	RefundsFor(ctx context.Context, paymentID uuid.UUID) ([]models.Refund, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	processor Processor
	orders    orderAccess
	outbox    outboxPublisher
	alerts    notifier
	users     userDirectory
	mail      mailer.Sender
	metrics   *metrics.BackofficeMetrics
	logg      *logger.Logger
}

// IntentResult is handed back to the client to drive the processor SDK.
type IntentResult struct {
	Payment      *models.Payment
	ClientSecret string
}

// RefundInput carries an admin-initiated refund. A nil amount refunds the
// whole payment.
type RefundInput struct {
	PaymentID       uuid.UUID
	Amount          *decimal.Decimal
	Reason          string
	ProcessedBy     uuid.UUID
	ProcessedByRole enums.Role
}

// ListParams filters the admin payment listing.
type ListParams struct {
	OrderID *uuid.UUID
	Status  *enums.PaymentStatus
	Limit   int
	Cursor  *pagination.Cursor
}

// ListResult is one page of payments.
type ListResult struct {
	Payments   []models.Payment
	NextCursor *pagination.Cursor
}

// NewService wires payment dependencies. Notifier, user directory, mail
// sender, metrics and logger are optional.
func NewService(
	repo Repository,
	tx txRunner,
	processor Processor,
	orders orderAccess,
	outboxSvc outboxPublisher,
	alerts notifier,
	users userDirectory,
	mail mailer.Sender,
	m *metrics.BackofficeMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payments repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if processor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment processor required")
	}
	if orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order access required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox service required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		processor: processor,
		orders:    orders,
		outbox:    outboxSvc,
		alerts:    alerts,
		users:     users,
		mail:      mail,
		metrics:   m,
		logg:      logg,
	}, nil
}

func (s *service) CreateIntent(ctx context.Context, orderID, customerID uuid.UUID) (*IntentResult, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.PaymentStatus == enums.OrderPaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is already paid")
	}

	amount := minorUnits(order.TotalAmount)
	intentID, clientSecret, err := s.processor.CreateIntent(ctx, amount, "usd", map[string]string{
		"order_id":    order.ID.String(),
		"customer_id": order.CustomerID.String(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeExternal, err, "create payment intent")
	}

	payment := &models.Payment{
		OrderID:          order.ID,
		Amount:           order.TotalAmount,
		Currency:         "usd",
		Status:           enums.PaymentStatusPending,
		ProviderIntentID: intentID,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "payment intent created")
	}
	return &IntentResult{Payment: payment, ClientSecret: clientSecret}, nil
}

func (s *service) Confirm(ctx context.Context, orderID, customerID uuid.UUID, intentID string) (*models.Payment, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	payment, err := s.repo.GetByOrderAndIntent(ctx, orderID, intentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment.Status == enums.PaymentStatusSucceeded {
		return payment, nil
	}

	status, err := s.processor.RetrieveIntent(ctx, intentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeExternal, err, "retrieve payment intent")
	}
	if status != stripe.IntentStatusSucceeded {
		s.metrics.IncPayment(status)
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payment not succeeded: processor reports %s", status)).
			WithDetails(map[string]any{"processor_status": status})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.TransitionStatus(ctx, payment.ID, enums.PaymentStatusPending,
			map[string]any{"status": enums.PaymentStatusSucceeded})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment succeeded")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment already settled")
		}
		if err := s.orders.MarkPaid(ctx, tx, orderID); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentSucceeded,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Actor:         &outbox.ActorRef{UserID: customerID, Role: string(enums.RoleCustomer)},
			Data: payloads.PaymentSucceededEvent{
				PaymentID: payment.ID,
				OrderID:   orderID,
				Amount:    payment.Amount,
				IntentID:  intentID,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncPayment("succeeded")
	if s.alerts != nil {
		s.alerts.Notify(ctx, customerID, enums.NotificationTypePayment,
			"Payment received", fmt.Sprintf("Payment for order %s was successful.", orderID))
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "payment confirmed")
	}
	return s.Get(ctx, payment.ID)
}

func (s *service) Refund(ctx context.Context, input RefundInput) (*models.Refund, error) {
	if input.PaymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	if input.ProcessedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "processed by required")
	}
	actorRole := input.ProcessedByRole
	if actorRole == "" {
		actorRole = enums.RoleAdmin
	}

	payment, err := s.Get(ctx, input.PaymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != enums.PaymentStatusSucceeded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only succeeded payments can be refunded")
	}

	amount := payment.Amount
	if input.Amount != nil {
		amount = *input.Amount
	}
	if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(payment.Amount) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive and at most the payment amount")
	}
	full := amount.Equal(payment.Amount)

	// Money moves first. If the processor rejects the refund nothing local
	// changes.
	refundID, err := s.processor.CreateRefund(ctx, payment.ProviderIntentID, minorUnits(amount), input.Reason)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeExternal, err, "processor refund")
	}

	refund := &models.Refund{
		PaymentID:        payment.ID,
		OrderID:          payment.OrderID,
		Amount:           amount,
		Reason:           input.Reason,
		Status:           enums.RefundStatusCompleted,
		ProviderRefundID: &refundID,
		ProcessedBy:      input.ProcessedBy,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.TransitionStatus(ctx, payment.ID, enums.PaymentStatusSucceeded,
			map[string]any{"status": enums.PaymentStatusRefunded})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment refunded")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment refunded concurrently")
		}
		if full {
			if err := s.orders.MarkRefunded(ctx, tx, payment.OrderID); err != nil {
				return err
			}
		}
		if err := repo.CreateRefund(ctx, refund); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist refund")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentRefunded,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Actor:         &outbox.ActorRef{UserID: input.ProcessedBy, Role: string(actorRole)},
			Data: payloads.PaymentRefundedEvent{
				PaymentID:  payment.ID,
				OrderID:    payment.OrderID,
				Amount:     amount,
				FullRefund: full,
				Reason:     input.Reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncRefund()
	s.notifyRefund(ctx, payment, amount)
	return refund, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return row, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	rows, next, err := s.repo.List(ctx, listPaymentsParams{
		OrderID: params.OrderID,
		Status:  params.Status,
		Limit:   params.Limit,
		Cursor:  params.Cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return &ListResult{Payments: rows, NextCursor: next}, nil
}

func (s *service) RefundsFor(ctx context.Context, paymentID uuid.UUID) ([]models.Refund, error) {
	rows, err := s.repo.ListRefundsByPayment(ctx, paymentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list refunds")
	}
	return rows, nil
}

func (s *service) notifyRefund(ctx context.Context, payment *models.Payment, amount decimal.Decimal) {
	order, err := s.orders.Get(ctx, payment.OrderID)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "skipping refund notification, order lookup failed", err)
		}
		return
	}
	if s.alerts != nil {
		s.alerts.Notify(ctx, order.CustomerID, enums.NotificationTypePayment,
			"Refund processed", fmt.Sprintf("A refund of %s was issued for order %s.", amount.StringFixed(2), order.ID))
	}
	if s.mail != nil && s.users != nil {
		if user, err := s.users.Get(ctx, order.CustomerID); err == nil {
			body := mailer.RefundHTML(user.FirstName, order.ID.String(), amount)
			if err := s.mail.Send(ctx, user.Email, "Refund processed", body); err != nil && s.logg != nil {
				s.logg.Error(ctx, "refund email failed", err)
			}
		}
	}
}

// minorUnits converts a major-unit decimal amount into processor minor units.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
