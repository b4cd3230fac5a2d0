package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"arkive/internal/model"
	"arkive/pkg/apierror"
)

func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	body, _ := json.Marshal(model.APIResponse{
		Success: false,
		Errors: &model.APIError{
			Code:    apierror.RequestTimeout.Code,
			Message: apierror.RequestTimeout.Message,
		},
	})
	message := string(body)

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, message)
	}
}
