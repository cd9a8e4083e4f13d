package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"flightsurety-ledger/pkg/ledgererr"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

// statusFor maps a ledger error kind to an HTTP status
func statusFor(kind ledgererr.Kind) int {
	switch kind {
	case ledgererr.KindOperational:
		return http.StatusServiceUnavailable
	case ledgererr.KindAuthorization:
		return http.StatusForbidden
	case ledgererr.KindValidation:
		return http.StatusUnprocessableEntity
	case ledgererr.KindNotFound:
		return http.StatusNotFound
	case ledgererr.KindTransfer:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *LedgerHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := ledgererr.KindOf(err)
	status := statusFor(kind)

	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		message = "internal error"
	}
	respondJSON(w, status, ErrorResponse{Error: message, Kind: string(kind)})
}

// decode reads a JSON body and validates it. Malformed bodies are 400,
// bodies that fail validation are 422.
func (h *LedgerHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			err = fmt.Errorf("field %s failed %s validation", fe.Field(), fe.Tag())
		}
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Kind: string(ledgererr.KindValidation)})
		return false
	}
	return true
}
