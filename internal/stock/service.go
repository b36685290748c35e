package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fashionmart/fashionmart-backend/pkg/db/models"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	pkgerrors "github.com/fashionmart/fashionmart-backend/pkg/errors"
	"github.com/fashionmart/fashionmart-backend/pkg/logger"
	"github.com/fashionmart/fashionmart-backend/pkg/metrics"
)

// Service owns the stock ledger: atomic reservations, restores and threshold
// management with low-stock alerting.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Stock, error)
	GetVariant(ctx context.Context, id uuid.UUID) (*models.Stock, *models.Product, error)
	Reserve(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) (*models.Stock, error)
	Restore(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) error
	Adjust(ctx context.Context, input AdjustInput) (*models.Stock, error)
	AlertIfLow(ctx context.Context, id uuid.UUID)
	ListLow(ctx context.Context) ([]models.Stock, error)
}

// ManagerDirectory resolves the users who receive inventory alerts.
type ManagerDirectory interface {
	ActiveByRole(ctx context.Context, role enums.Role) ([]models.User, error)
}

type notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string)
}

type service struct {
	repo      Repository
	directory ManagerDirectory
	notifier  notifier
	metrics   *metrics.BackofficeMetrics
	logg      *logger.Logger
}

// AdjustInput carries an inventory manager's stock update.
type AdjustInput struct {
	StockID           uuid.UUID
	Quantity          *int
	LowStockThreshold *int
}

// NewService wires stock dependencies.
func NewService(repo Repository, directory ManagerDirectory, n notifier, m *metrics.BackofficeMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stock repository required")
	}
	if directory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "manager directory required")
	}
	return &service{repo: repo, directory: directory, notifier: n, metrics: m, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Stock, error) {
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock")
	}
	return row, nil
}

// GetVariant loads a stock row together with its product.
func (s *service) GetVariant(ctx context.Context, id uuid.UUID) (*models.Stock, *models.Product, error) {
	row, product, err := s.repo.GetWithProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock variant")
	}
	return row, product, nil
}

// Reserve atomically decrements quantity inside the caller's transaction.
// A zero-row update is resolved into not-found or insufficient-stock.
func (s *service) Reserve(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) (*models.Stock, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	repo := s.repo.WithTx(tx)

	affected, err := repo.Reserve(ctx, id, qty)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
	}
	if affected == 0 {
		row, lookupErr := repo.Get(ctx, id)
		if lookupErr != nil {
			if errors.Is(lookupErr, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, lookupErr, "load stock")
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("insufficient stock: %d available, %d requested", row.Quantity, qty))
	}

	row, err := repo.Get(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload stock")
	}
	return row, nil
}

// Restore unconditionally returns quantity to the variant inside the caller's
// transaction.
func (s *service) Restore(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	affected, err := s.repo.WithTx(tx).Restore(ctx, id, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "stock not found")
	}
	return nil
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.Stock, error) {
	if input.StockID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock id required")
	}
	fields := map[string]any{}
	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
		}
		fields["quantity"] = *input.Quantity
	}
	if input.LowStockThreshold != nil {
		if *input.LowStockThreshold < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "low stock threshold cannot be negative")
		}
		fields["low_stock_threshold"] = *input.LowStockThreshold
	}
	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}

	affected, err := s.repo.Update(ctx, input.StockID, fields)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock not found")
	}

	row, err := s.repo.Get(ctx, input.StockID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload stock")
	}

	// Re-emitted on every adjustment that lands at or below the threshold.
	if row.IsLow() {
		s.AlertIfLow(ctx, row.ID)
	}
	return row, nil
}

// AlertIfLow notifies every active inventory manager when the variant sits at
// or below its threshold. Alert failures never propagate.
func (s *service) AlertIfLow(ctx context.Context, id uuid.UUID) {
	row, product, err := s.repo.GetWithProduct(ctx, id)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "low stock check failed", err)
		}
		return
	}
	if !row.IsLow() {
		return
	}

	managers, err := s.directory.ActiveByRole(ctx, enums.RoleInventoryManager)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "loading inventory managers for low stock alert", err)
		}
		return
	}

	message := fmt.Sprintf("Product %s (%s/%s) is running low on stock. Current quantity: %d",
		product.Name, row.Size, row.Color, row.Quantity)
	for _, manager := range managers {
		if s.notifier != nil {
			s.notifier.Notify(ctx, manager.ID, enums.NotificationTypeLowStock, "Low Stock Alert", message)
		}
	}
	s.metrics.IncLowStockAlert()
}

func (s *service) ListLow(ctx context.Context) ([]models.Stock, error) {
	rows, err := s.repo.ListLow(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock")
	}
	return rows, nil
}
