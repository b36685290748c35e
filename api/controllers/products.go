package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fashionmart/fashionmart-backend/api/middleware"
	"github.com/fashionmart/fashionmart-backend/api/responses"
	"github.com/fashionmart/fashionmart-backend/api/validators"
	productsvc "github.com/fashionmart/fashionmart-backend/internal/products"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	"github.com/fashionmart/fashionmart-backend/pkg/logger"
	"github.com/fashionmart/fashionmart-backend/pkg/types"
)

// ListProducts pages the catalog. Customers only see active products;
// inventory managers and admins see everything.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor, err := cursorFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role := middleware.RoleFromContext(r.Context())
		activeOnly := role != enums.RoleInventoryManager && role != enums.RoleAdmin

		result, err := svc.List(r.Context(), productsvc.ListParams{
			CategoryID: categoryID,
			ActiveOnly: activeOnly,
			Limit:      limit,
			Cursor:     cursor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page(result.Products, result.NextCursor))
	}
}

// GetProduct returns one product with its stock variants.
func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.PathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type createProductRequest struct {
	DesignID uuid.UUID       `json:"design_id" validate:"required"`
	Price    decimal.Decimal `json:"price" validate:"required"`
	Variants []struct {
		Size              string `json:"size" validate:"required,max=20"`
		Color             string `json:"color" validate:"required,max=50"`
		Quantity          int    `json:"quantity" validate:"min=0"`
		LowStockThreshold *int   `json:"low_stock_threshold,omitempty" validate:"omitempty,min=0"`
	} `json:"variants" validate:"required,min=1,dive"`
}

// CreateProduct promotes an approved design into a sellable product.
func CreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := productsvc.CreateInput{
			DesignID: payload.DesignID,
			Price:    payload.Price,
		}
		for _, variant := range payload.Variants {
			input.Variants = append(input.Variants, productsvc.VariantInput{
				Size:              variant.Size,
				Color:             variant.Color,
				Quantity:          variant.Quantity,
				LowStockThreshold: variant.LowStockThreshold,
			})
		}

		product, err := svc.CreateFromDesign(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type updateProductRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Images      types.ImageList  `json:"images,omitempty" validate:"omitempty,max=10,dive,url"`
	IsActive    *bool            `json:"is_active,omitempty"`
}

// UpdateProduct patches catalog fields on a product.
func UpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.PathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), productID, productsvc.UpdateInput{
			Name:        payload.Name,
			Description: payload.Description,
			Price:       payload.Price,
			Images:      payload.Images,
			IsActive:    payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
