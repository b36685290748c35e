package products

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fashionmart/fashionmart-backend/internal/stock"
	dbpkg "github.com/fashionmart/fashionmart-backend/pkg/db"
	"github.com/fashionmart/fashionmart-backend/pkg/db/models"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	pkgerrors "github.com/fashionmart/fashionmart-backend/pkg/errors"
	"github.com/fashionmart/fashionmart-backend/pkg/logger"
	"github.com/fashionmart/fashionmart-backend/pkg/pagination"
	"github.com/fashionmart/fashionmart-backend/pkg/types"
)

// Service manages the sellable catalog. Products are promoted from approved
// designs together with their initial stock variants.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	CreateFromDesign(ctx context.Context, input CreateInput) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Product, error)
}

type designDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Design, error)
}

type service struct {
	db      *dbpkg.Client
	repo    Repository
	stocks  stock.Repository
	designs designDirectory
	logg    *logger.Logger
}

// VariantInput describes one size/color stock row created with the product.
type VariantInput struct {
	Size              string
	Color             string
	Quantity          int
	LowStockThreshold *int
}

// CreateInput promotes an approved design into a product.
type CreateInput struct {
	DesignID uuid.UUID
	Price    decimal.Decimal
	Variants []VariantInput
}

// UpdateInput carries product field updates.
type UpdateInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Images      types.ImageList
	IsActive    *bool
}

// ListParams filters the catalog listing.
type ListParams struct {
	CategoryID *uuid.UUID
	ActiveOnly bool
	Limit      int
	Cursor     *pagination.Cursor
}

// ListResult is one page of products.
type ListResult struct {
	Products   []models.Product
	NextCursor *pagination.Cursor
}

// NewService wires products dependencies.
func NewService(db *dbpkg.Client, repo Repository, stocks stock.Repository, designs designDirectory, logg *logger.Logger) (Service, error) {
	if db == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "database client required")
	}
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "products repository required")
	}
	if stocks == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stock repository required")
	}
	if designs == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "design directory required")
	}
	return &service{db: db, repo: repo, stocks: stocks, designs: designs, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return row, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	rows, next, err := s.repo.List(ctx, listProductsParams{
		CategoryID: params.CategoryID,
		ActiveOnly: params.ActiveOnly,
		Limit:      params.Limit,
		Cursor:     params.Cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return &ListResult{Products: rows, NextCursor: next}, nil
}

func (s *service) CreateFromDesign(ctx context.Context, input CreateInput) (*models.Product, error) {
	if input.DesignID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "design id required")
	}
	if input.Price.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if len(input.Variants) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one stock variant required")
	}
	for _, v := range input.Variants {
		if strings.TrimSpace(v.Size) == "" || strings.TrimSpace(v.Color) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant size and color required")
		}
		if v.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant quantity cannot be negative")
		}
	}

	design, err := s.designs.Get(ctx, input.DesignID)
	if err != nil {
		return nil, err
	}
	if design.Status != enums.DesignStatusApproved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "design must be approved before it becomes a product")
	}

	product := &models.Product{
		DesignID:    &design.ID,
		DesignerID:  &design.DesignerID,
		CategoryID:  design.CategoryID,
		Name:        design.Name,
		Description: design.Description,
		Price:       input.Price,
		Images:      design.Images,
		IsActive:    true,
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, product); err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "design already has a product")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}

		variants := make([]*models.Stock, 0, len(input.Variants))
		for _, v := range input.Variants {
			row := &models.Stock{
				ProductID: product.ID,
				Size:      strings.TrimSpace(v.Size),
				Color:     strings.TrimSpace(v.Color),
				Quantity:  v.Quantity,
			}
			if v.LowStockThreshold != nil {
				row.LowStockThreshold = *v.LowStockThreshold
			}
			variants = append(variants, row)
		}
		if err := s.stocks.WithTx(tx).CreateBatch(ctx, variants); err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "duplicate size/color variant")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stock variants")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		fields := map[string]any{"product_id": product.ID.String(), "design_id": design.ID.String()}
		s.logg.Info(s.logg.WithFields(ctx, fields), "product created from design")
	}
	return s.Get(ctx, product.ID)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	fields := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be blank")
		}
		fields["name"] = name
	}
	if input.Description != nil {
		fields["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if input.Price.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		fields["price"] = *input.Price
	}
	if input.Images != nil {
		fields["images"] = input.Images
	}
	if input.IsActive != nil {
		fields["is_active"] = *input.IsActive
	}
	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}

	affected, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return s.Get(ctx, id)
}
