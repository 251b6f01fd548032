package httputil

import (
	"net/http"

	"github.com/AdamBeresnev/school-cup/internal/bracket"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason"`
	Details any    `json:"details,omitempty"`
}

type mappedError struct {
	Status int
	Reason string
}

// Errors carrying more than a message, such as a rejected roster, expose it
// through this method.
type detailer interface {
	ErrorDetails() any
}

func mapError(err error) mappedError {
	switch {
	case errors.Is(err, bracket.ErrNotFound):
		return mappedError{Status: http.StatusNotFound, Reason: "notFound"}
	case errors.Is(err, bracket.ErrValidation):
		return mappedError{Status: http.StatusBadRequest, Reason: "invalidInput"}
	case errors.Is(err, bracket.ErrIntegrity):
		return mappedError{Status: http.StatusConflict, Reason: "bracketConflict"}
	default:
		return mappedError{Status: http.StatusInternalServerError, Reason: "internalError"}
	}
}

// StatusOf is the HTTP status an error from the services maps to.
func StatusOf(err error) int {
	return mapError(err).Status
}

// Error writes err as JSON with the status of its class. Internal failures
// are logged and their message is not echoed back.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	mapped := mapError(err)
	body := errorResponse{Error: err.Error(), Reason: mapped.Reason}

	var d detailer
	if errors.As(err, &d) {
		body.Details = d.ErrorDetails()
	}

	switch {
	case mapped.Status >= http.StatusInternalServerError:
		zap.L().Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		body.Error = "internal server error"
	case mapped.Status == http.StatusConflict:
		zap.L().Warn("bracket conflict", zap.String("path", r.URL.Path), zap.Error(err))
	}

	WriteJSON(w, mapped.Status, body)
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	zap.L().Error(msg, zap.Error(err))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		zap.L().Warn("bad request", zap.String("message", msg), zap.Error(err))
	} else {
		zap.L().Warn("bad request", zap.String("message", msg))
	}
	http.Error(w, msg, http.StatusBadRequest)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		zap.L().Warn("not found", zap.String("message", msg), zap.Error(err))
	} else {
		zap.L().Warn("not found", zap.String("message", msg))
	}
	http.Error(w, msg, http.StatusNotFound)
}
