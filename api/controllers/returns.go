package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fashionmart/fashionmart-backend/api/middleware"
	"github.com/fashionmart/fashionmart-backend/api/responses"
	"github.com/fashionmart/fashionmart-backend/api/validators"
	returnsvc "github.com/fashionmart/fashionmart-backend/internal/returns"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	pkgerrors "github.com/fashionmart/fashionmart-backend/pkg/errors"
	"github.com/fashionmart/fashionmart-backend/pkg/logger"
	"github.com/fashionmart/fashionmart-backend/pkg/types"
)

type createReturnRequest struct {
	OrderID     uuid.UUID       `json:"order_id" validate:"required"`
	OrderItemID uuid.UUID       `json:"order_item_id" validate:"required"`
	Reason      string          `json:"reason" validate:"required,min=3,max=1000"`
	Images      types.ImageList `json:"images,omitempty" validate:"omitempty,max=10,dive,url"`
}

// CreateReturn opens a return request for a delivered order item.
func CreateReturn(svc returnsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createReturnRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ret, err := svc.Create(r.Context(), returnsvc.CreateInput{
			CustomerID:  middleware.UserIDFromContext(r.Context()),
			OrderID:     payload.OrderID,
			OrderItemID: payload.OrderItemID,
			Reason:      payload.Reason,
			Images:      payload.Images,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, ret)
	}
}

// ListMyReturns pages the authenticated customer's returns.
func ListMyReturns(svc returnsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		result, err := svc.ListForCustomer(r.Context(), middleware.UserIDFromContext(r.Context()), returnsvc.ListParams{
			Limit:  limit,
			Cursor: cursor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page(result.Returns, result.NextCursor))
	}
}

// GetReturn returns one return request.
func GetReturn(svc returnsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		returnID, err := validators.PathUUID(chi.URLParam(r, "returnId"), "returnId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ret, err := svc.Get(r.Context(), returnID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if middleware.RoleFromContext(r.Context()) == enums.RoleCustomer &&
			ret.CustomerID != middleware.UserIDFromContext(r.Context()) {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeNotFound, "return not found"))
			return
		}
		responses.WriteSuccess(w, ret)
	}
}
