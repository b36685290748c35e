package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fashionmart/fashionmart-backend/api/middleware"
	"github.com/fashionmart/fashionmart-backend/api/responses"
	"github.com/fashionmart/fashionmart-backend/api/validators"
	designsvc "github.com/fashionmart/fashionmart-backend/internal/designs"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	pkgerrors "github.com/fashionmart/fashionmart-backend/pkg/errors"
	"github.com/fashionmart/fashionmart-backend/pkg/logger"
	"github.com/fashionmart/fashionmart-backend/pkg/types"
)

type designRequest struct {
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Description string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	CategoryID  uuid.UUID       `json:"category_id" validate:"required"`
	Images      types.ImageList `json:"images,omitempty" validate:"omitempty,max=10,dive,url"`
}

func (r designRequest) toInput() designsvc.Input {
	return designsvc.Input{
		Name:        r.Name,
		Description: r.Description,
		CategoryID:  r.CategoryID,
		Images:      r.Images,
	}
}

// CreateDesign registers a new draft design for the calling designer.
func CreateDesign(svc designsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload designRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		design, err := svc.Create(r.Context(), middleware.UserIDFromContext(r.Context()), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, design)
	}
}

// ListDesigns pages designs. Designers see their own; reviewers can filter
// by status across designers.
func ListDesigns(svc designsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		params := designsvc.ListParams{Limit: limit, Cursor: cursor}

		role := middleware.RoleFromContext(r.Context())
		if role == enums.RoleDesigner {
			designerID := middleware.UserIDFromContext(r.Context())
			params.DesignerID = &designerID
		}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, parseErr := enums.ParseDesignStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status filter"))
				return
			}
			params.Status = &status
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page(result.Designs, result.NextCursor))
	}
}

// GetDesign returns one design.
func GetDesign(svc designsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		designID, err := validators.PathUUID(chi.URLParam(r, "designId"), "designId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		design, err := svc.Get(r.Context(), designID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, design)
	}
}

// UpdateDesign edits a draft or rejected design owned by the caller.
func UpdateDesign(svc designsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		designID, err := validators.PathUUID(chi.URLParam(r, "designId"), "designId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload designRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		design, err := svc.Update(r.Context(), middleware.UserIDFromContext(r.Context()), designID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, design)
	}
}

// DeleteDesign removes a draft or rejected design owned by the caller.
func DeleteDesign(svc designsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		designID, err := validators.PathUUID(chi.URLParam(r, "designId"), "designId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), middleware.UserIDFromContext(r.Context()), designID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// SubmitDesign moves a draft design into the review queue.
func SubmitDesign(svc designsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		designID, err := validators.PathUUID(chi.URLParam(r, "designId"), "designId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		design, err := svc.Submit(r.Context(), middleware.UserIDFromContext(r.Context()), designID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, design)
	}
}

type reviewDesignRequest struct {
	Decision        string `json:"decision" validate:"required,oneof=approve reject"`
	RejectionReason string `json:"rejection_reason,omitempty" validate:"omitempty,max=1000"`
}

// ReviewDesign records the inventory manager's verdict on a pending design.
func ReviewDesign(svc designsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		designID, err := validators.PathUUID(chi.URLParam(r, "designId"), "designId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reviewDesignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		design, err := svc.Review(r.Context(), designID, designsvc.ReviewInput{
			Approve:         payload.Decision == "approve",
			RejectionReason: payload.RejectionReason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, design)
	}
}
