package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fashionmart/fashionmart-backend/api/middleware"
	"github.com/fashionmart/fashionmart-backend/api/responses"
	"github.com/fashionmart/fashionmart-backend/api/validators"
	returnsvc "github.com/fashionmart/fashionmart-backend/internal/returns"
	"github.com/fashionmart/fashionmart-backend/pkg/logger"
)

// PendingReturns lists unassigned return requests.
func PendingReturns(svc returnsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		returns, err := svc.ListUnassigned(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, returns)
	}
}

// AssignedReturns lists returns claimed by the calling staff member.
func AssignedReturns(svc returnsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		returns, err := svc.ListAssigned(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, returns)
	}
}

// AssignReturn claims a pending return for the calling staff member.
func AssignReturn(svc returnsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		returnID, err := validators.PathUUID(chi.URLParam(r, "returnId"), "returnId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ret, err := svc.Assign(r.Context(), returnID, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ret)
	}
}

type processReturnRequest struct {
	Decision string  `json:"decision" validate:"required,oneof=approve reject"`
	Notes    *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// ProcessReturn applies the staff decision: approve refunds and restores
// stock, reject closes the request.
func ProcessReturn(svc returnsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		returnID, err := validators.PathUUID(chi.URLParam(r, "returnId"), "returnId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload processReturnRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ret, err := svc.Process(r.Context(), returnsvc.ProcessInput{
			ReturnID: returnID,
			StaffID:  middleware.UserIDFromContext(r.Context()),
			Decision: returnsvc.Decision(payload.Decision),
			Notes:    payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ret)
	}
}
