/*
Package resp provides helper functions for constructing and sending standardized HTTP JSON responses.

Successful responses carry either the endpoint's payload or {"success": true}. Error
responses carry {"error": "<message>"} and the HTTP status of the CustomError.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"monetchat/internal/pkg/errs"
	"monetchat/internal/pkg/logx"
)

// SuccessResponse is the body of an endpoint that returns no payload.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	// Error is the client-facing error message.
	Error string `json:"error"`
}

// RespondJSON is a generic response function used to set the Content-Type and send the JSON payload.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	response, err := json.Marshal(payload)
	if err != nil {
		logx.Error(
			err,
			"Error encoding JSON response",
			"http_status", httpStatus,
			"path", r.URL.Path,
		)

		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	if _, err := w.Write(response); err != nil {
		logx.Warn("Failed to write response body", "path", r.URL.Path, "error", err.Error())
	}
}

// RespondSuccess sends an HTTP 200 response. A nil data sends {"success": true}.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	if data == nil {
		data = SuccessResponse{Success: true}
	}
	RespondJSON(w, r, http.StatusOK, data)
}

// RespondError sends an HTTP response containing custom error information.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	RespondJSON(w, r, customErr.Status, ErrorResponse{Error: customErr.Message})
}
