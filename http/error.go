package http

import (
	"encoding/json"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/hlog"

	"github.com/annweb/mailroom"
)

type appHandler func(w http.ResponseWriter, r *http.Request) error

var codes = map[string]int{
	mailroom.ErrInvalid:      http.StatusBadRequest,
	mailroom.ErrUnauthorized: http.StatusUnauthorized,
	mailroom.ErrForbidden:    http.StatusForbidden,
	mailroom.ErrNotFound:     http.StatusNotFound,
	mailroom.ErrConflict:     http.StatusConflict,
	mailroom.ErrInternal:     http.StatusInternalServerError,
}

// Error maps the error returned by fn to a status code and a JSON body
func (s *Server) Error(fn appHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		status := ErrorStatusCode(mailroom.ErrorCode(err))
		message := mailroom.ErrorMessage(err)

		logger := hlog.FromRequest(r)
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Int("status", status).Msg("request failed")
			if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
				hub.CaptureException(err)
			} else {
				sentry.CaptureException(err)
			}
			if message == internalMessage {
				message = "Server error"
			}
		} else {
			logger.Warn().Err(err).Int("status", status).Msg("request rejected")
		}

		writeJSONResponse(w, status, &mailroom.SubscriptionResponse{
			Success: false,
			Error:   message,
		})
	}
}

const internalMessage = "An internal error has occurred."

// ErrorStatusCode returns the HTTP status of an error code
func ErrorStatusCode(code string) int {
	if v, ok := codes[code]; ok {
		return v
	}
	return http.StatusInternalServerError
}

func writeJSONResponse(w http.ResponseWriter, statusCode int, response interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	//nolint:errcheck
	json.NewEncoder(w).Encode(response)
}
