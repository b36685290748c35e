package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fashionmart/fashionmart-backend/api/middleware"
	"github.com/fashionmart/fashionmart-backend/api/responses"
	"github.com/fashionmart/fashionmart-backend/api/validators"
	ordersvc "github.com/fashionmart/fashionmart-backend/internal/orders"
	"github.com/fashionmart/fashionmart-backend/pkg/logger"
	"github.com/fashionmart/fashionmart-backend/pkg/types"
)

type createOrderRequest struct {
	Items []struct {
		StockID  uuid.UUID `json:"stock_id" validate:"required"`
		Quantity int       `json:"quantity" validate:"required,min=1"`
	} `json:"items" validate:"required,min=1,dive"`
	ShippingAddress types.ShippingAddress `json:"shipping_address" validate:"required"`
	Notes           *string               `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// CreateOrder places an order for the authenticated customer.
func CreateOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := ordersvc.CreateOrderInput{
			CustomerID:      middleware.UserIDFromContext(r.Context()),
			ShippingAddress: payload.ShippingAddress,
			Notes:           payload.Notes,
		}
		for _, item := range payload.Items {
			input.Items = append(input.Items, ordersvc.OrderItemInput{
				StockID:  item.StockID,
				Quantity: item.Quantity,
			})
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// ListMyOrders pages the authenticated customer's order history.
func ListMyOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		result, err := svc.ListForCustomer(r.Context(), middleware.UserIDFromContext(r.Context()), ordersvc.ListParams{
			Limit:  limit,
			Cursor: cursor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page(result.Orders, result.NextCursor))
	}
}

// GetMyOrder returns one order, scoped to the caller's role.
func GetMyOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.PathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetForActor(r.Context(), orderID, ordersvc.Actor{
			UserID: middleware.UserIDFromContext(r.Context()),
			Role:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
