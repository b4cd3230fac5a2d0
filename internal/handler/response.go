package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"arkive/internal/model"
	"arkive/pkg/apierror"
)

const maxJSONBody = 1 << 20

var exposeErrorDetails atomic.Bool

// ExposeErrorDetails controls whether unclassified errors echo their text in
// the details field. Only development should enable it.
func ExposeErrorDetails(enabled bool) {
	exposeErrorDetails.Store(enabled)
}

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    apierror.Internal.Code,
		Message: apierror.Internal.Message,
	}
	message := ""

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
		if len(apiErr.Fields) > 0 {
			body.Validation = apiErr.Fields
			message = apiErr.Message
		}
		if apiErr.Kind == apierror.KindInternal {
			slog.Error("internal error", "code", apiErr.Code, "error", err.Error())
		}
	} else {
		slog.Error("unhandled error in writeError", "error", err.Error())
		if exposeErrorDetails.Load() {
			body.Details = err.Error()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Errors:  body,
		Message: message,
	})
}

// decodeJSON reads a bounded JSON body into dst, normalizes it when it can and
// returns its field errors.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := decoder.Decode(dst); err != nil {
		return apierror.BadRequest.WithDetails("invalid JSON body")
	}

	if n, ok := dst.(interface{ Normalize() }); ok {
		n.Normalize()
	}
	if v, ok := dst.(interface{ Validate() map[string]string }); ok {
		if fields := v.Validate(); fields != nil {
			return apierror.Validation(fields)
		}
	}
	return nil
}

func parseIntOrDefault(raw string, fallback int) int {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}
