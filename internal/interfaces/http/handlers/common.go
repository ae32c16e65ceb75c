// Package handlers implements the HTTP API over the explorer core.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molexplorer/pkg/errors"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// writeAppError maps err to the status of its code. Server-side failures
// other than the loading taxonomy are masked.
func writeAppError(w http.ResponseWriter, logger logging.Logger, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)
	resp := ErrorResponse{
		Code:    code.String(),
		Kind:    errors.KindForCode(code),
		Message: errors.Message(err),
	}
	if status == http.StatusInternalServerError {
		orNop(logger).Error("request failed", logging.Err(err), logging.String("code", code.String()))
		resp = ErrorResponse{
			Code:    errors.ErrCodeInternal.String(),
			Kind:    errors.KindForCode(errors.ErrCodeInternal),
			Message: "internal server error",
		}
	}
	writeJSON(w, status, resp)
}

func orNop(logger logging.Logger) logging.Logger {
	if logger == nil {
		return logging.NewNopLogger()
	}
	return logger
}
