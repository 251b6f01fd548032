package httputil

import (
	"io"
	"net/http"

	"github.com/AdamBeresnev/school-cup/internal/bracket"
	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := sonic.ConfigDefault.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("write json response", zap.Error(err))
	}
}

// ReadJSON decodes a single JSON object from the request body into dst.
// Malformed bodies are validation errors.
func ReadJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := sonic.ConfigDefault.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.Wrap(bracket.ErrValidation, "body must not be empty")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.Wrapf(bracket.ErrValidation, "body must not be larger than %d bytes", maxBodyBytes)
		}
		return errors.Mark(errors.Wrap(err, "malformed json body"), bracket.ErrValidation)
	}
	return nil
}
