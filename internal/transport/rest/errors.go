package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"gobarber/backend/internal/service"
	"gobarber/backend/internal/service/appointments"
	"gobarber/backend/internal/service/notifications"
	"gobarber/backend/internal/service/sessions"
	"gobarber/backend/internal/service/users"
)

var (
	badRequest = []error{
		appointments.ErrSelfBooking,
		appointments.ErrNotFound,
		users.ErrUserExists,
	}
	unauthorized = []error{
		appointments.ErrNotAProvider,
		appointments.ErrPastDate,
		appointments.ErrSlotTaken,
		appointments.ErrForbidden,
		appointments.ErrCancellationWindow,
		notifications.ErrNotAProvider,
		sessions.ErrInvalidCredentials,
	}
)

func statusFor(err error) int {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	for _, target := range unauthorized {
		if errors.Is(err, target) {
			return http.StatusUnauthorized
		}
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

// fail writes err as the response. Unknown errors are logged and reported as
// "internal error".
func fail(c *gin.Context, log *slog.Logger, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Error("request failed", slog.Any("err", err), slog.String("route", c.FullPath()))
		abortWithError(c, code, "internal error")
		return
	}
	log.Info("request rejected", slog.String("reason", err.Error()), slog.String("route", c.FullPath()))
	abortWithError(c, code, err.Error())
}
