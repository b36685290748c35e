package responses

import (
	"context"
	"encoding/json"
	"net/http"

	pkgerrors "github.com/fashionmart/fashionmart-backend/pkg/errors"
	"github.com/fashionmart/fashionmart-backend/pkg/logger"
	"github.com/fashionmart/fashionmart-backend/pkg/types"
)

// WriteSuccess writes a 200 envelope with the given payload.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

// WriteSuccessStatus writes a success envelope with an explicit status code.
func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Success: true, Data: data})
}

// WriteError maps an application error onto the wire envelope. Unknown errors
// are treated as internal and their message suppressed.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	appErr := pkgerrors.As(err)
	if appErr == nil {
		appErr = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(appErr.Code())

	if logg != nil {
		logCtx := logg.WithFields(ctx, map[string]any{
			"error_code":  string(appErr.Code()),
			"http_status": meta.HTTPStatus,
		})
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(logCtx, "request failed", appErr)
		} else {
			logg.Warn(logCtx, "request rejected: "+appErr.Message())
		}
	}

	message := meta.PublicMessage
	switch appErr.Code() {
	case pkgerrors.CodeValidation, pkgerrors.CodeStateConflict, pkgerrors.CodeNotFound,
		pkgerrors.CodeConflict, pkgerrors.CodeForbidden, pkgerrors.CodeUnauthorized,
		pkgerrors.CodeExternal:
		if appErr.Message() != "" {
			message = appErr.Message()
		}
	}

	payload := types.ErrorEnvelope{
		Error: types.APIError{Code: string(appErr.Code()), Message: message},
	}
	if meta.DetailsAllowed {
		payload.Error.Details = appErr.Details()
	}
	writeJSON(w, meta.HTTPStatus, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
