package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fashionmart/fashionmart-backend/api/middleware"
	"github.com/fashionmart/fashionmart-backend/api/responses"
	"github.com/fashionmart/fashionmart-backend/api/validators"
	ordersvc "github.com/fashionmart/fashionmart-backend/internal/orders"
	reportsvc "github.com/fashionmart/fashionmart-backend/internal/reports"
	usersvc "github.com/fashionmart/fashionmart-backend/internal/users"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
	pkgerrors "github.com/fashionmart/fashionmart-backend/pkg/errors"
	"github.com/fashionmart/fashionmart-backend/pkg/logger"
)

// ListUsers pages all accounts, optionally filtered by role.
func ListUsers(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), usersvc.ListParams{
			Role:   r.URL.Query().Get("role"),
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// UpdateUserRole reassigns a user's role.
func UpdateUserRole(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.PathUUID(chi.URLParam(r, "userId"), "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateRoleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseRole(payload.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		if err := svc.UpdateRole(r.Context(), userID, role); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"role": string(role)})
	}
}

// ListAllOrders pages every order in the system, optionally filtered by
// fulfillment status.
func ListAllOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		var status *enums.OrderStatus
		if raw := r.URL.Query().Get("status"); raw != "" {
			parsed, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
				return
			}
			status = &parsed
		}

		result, err := svc.ListAll(r.Context(), ordersvc.AdminListParams{
			Status: status,
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

// GetAnyOrder returns one order without customer scoping.
func GetAnyOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
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

// Dashboard returns the admin overview counters.
func Dashboard(svc reportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Dashboard(r.Context(), time.Now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

type generateReportRequest struct {
	Type    string `json:"type" validate:"required,oneof=monthly quarterly"`
	Year    int    `json:"year" validate:"required,min=2000,max=2100"`
	Month   int    `json:"month,omitempty" validate:"omitempty,min=1,max=12"`
	Quarter int    `json:"quarter,omitempty" validate:"omitempty,min=1,max=4"`
}

// GenerateReport computes and persists a sales report for the given window.
func GenerateReport(svc reportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload generateReportRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		generatedBy := middleware.UserIDFromContext(r.Context())

		switch payload.Type {
		case "monthly":
			if payload.Month == 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "month required for monthly reports"))
				return
			}
			report, err := svc.GenerateMonthly(r.Context(), payload.Year, time.Month(payload.Month), generatedBy)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccessStatus(w, http.StatusCreated, report)
		case "quarterly":
			if payload.Quarter == 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "quarter required for quarterly reports"))
				return
			}
			report, err := svc.GenerateQuarterly(r.Context(), payload.Year, payload.Quarter, generatedBy)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccessStatus(w, http.StatusCreated, report)
		}
	}
}

// ListReports returns saved reports, optionally filtered by type.
func ListReports(svc reportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reportType *enums.ReportType
		if raw := r.URL.Query().Get("type"); raw != "" {
			parsed, err := enums.ParseReportType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid report type"))
				return
			}
			reportType = &parsed
		}

		reports, err := svc.List(r.Context(), reportType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reports)
	}
}

// GetReport returns one saved report.
func GetReport(svc reportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reportID, err := validators.PathUUID(chi.URLParam(r, "reportId"), "reportId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.Get(r.Context(), reportID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
