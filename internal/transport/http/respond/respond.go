// Package respond holds the JSON helpers shared by the HTTP handlers.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/schema"
)

var (
	validate = validator.New()
	decoder  = func() *schema.Decoder {
		d := schema.NewDecoder()
		d.IgnoreUnknownKeys(true)
		d.RegisterConverter(uuid.UUID{}, parseUUID)
		return d
	}()
)

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error sending response", "error", err)
	}
}

// NoContent writes 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// StatusOf maps a domain error to an HTTP status.
func StatusOf(err error) int {
	switch {
	case apperr.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden), errors.Is(err, apperr.ErrBlocked):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as a JSON error body. Internal errors are logged and
// their text is not exposed.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	body := errorBody{Error: err.Error(), RequestID: middleware.GetReqID(r.Context())}

	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		body.Error = http.StatusText(status)
	} else {
		slog.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}

	JSON(w, status, body)
}

// Decode reads a JSON body into dst and validates its struct tags.
func Decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Invalid("body", err.Error())
	}
	return Validate(dst)
}

// Query decodes URL query parameters into dst using schema tags.
func Query(r *http.Request, dst any) error {
	if err := decoder.Decode(dst, r.URL.Query()); err != nil {
		return apperr.Invalid("query", err.Error())
	}
	return Validate(dst)
}

func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperr.Invalid(verrs[0].Field(), "failed "+verrs[0].Tag()+" check")
		}
		return apperr.Invalid("body", err.Error())
	}
	return nil
}

// UUIDParam parses a chi URL parameter as a UUID.
func UUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.Invalid(name, "must be a UUID")
	}
	return id, nil
}

// parseUUID is the schema converter for uuid.UUID fields. The zero
// reflect.Value makes schema report a conversion error.
func parseUUID(s string) reflect.Value {
	id, err := uuid.Parse(s)
	if err != nil {
		return reflect.Value{}
	}
	return reflect.ValueOf(id)
}
