package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/akolanti/extractview/internal/adapter"
	"github.com/akolanti/extractview/internal/domain/extractionModel"
	"github.com/akolanti/extractview/internal/fsutil"
	"github.com/akolanti/extractview/pkg/logger_i"
	"github.com/go-playground/validator/v10"
)

var logRH = logger_i.NewLogger("RequestHandler")

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logRH.Error("Error encoding response", "err", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, message string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(message))
}

// statusFor maps the domain error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, extractionModel.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, extractionModel.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, extractionModel.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, extractionModel.ErrSecurityViolation):
		return http.StatusForbidden
	case errors.Is(err, extractionModel.ErrSubprocessFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, log *logger_i.Logger, err error) {
	code := statusFor(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		log.Error("request failed", "err", err)
		message = "Internal server error"
	} else {
		log.Warn("request rejected", "status", code, "err", err)
	}
	WriteErrorResponse(w, code, message)
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
func (h *Handler) decodeAndValidate(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("malformed request body: %w", extractionModel.ErrValidation)
	}
	if err := h.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fmt.Errorf("field %s failed %q: %w", fieldErrs[0].Field(), fieldErrs[0].Tag(), extractionModel.ErrValidation)
		}
		return fmt.Errorf("%v: %w", err, extractionModel.ErrValidation)
	}
	return nil
}

func fileExists(path string) bool {
	return fsutil.Exists(path) && !fsutil.IsDir(path)
}
