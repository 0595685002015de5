package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"github.com/AntoS03/ProyectoFinal/internal/app/dto"
	"github.com/AntoS03/ProyectoFinal/internal/app/handlers/properties"
	"github.com/AntoS03/ProyectoFinal/internal/app/middleware"
	"github.com/AntoS03/ProyectoFinal/internal/app/services/auth"
	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/reservation"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/daterange"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/money"
	"github.com/AntoS03/ProyectoFinal/internal/domain/user"
	"github.com/AntoS03/ProyectoFinal/internal/infra/security"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type errorMapping struct {
	status int
	code   string
	// message overrides err.Error() when set.
	message string
	targets []error
}

var errorMappings = []errorMapping{
	{http.StatusConflict, "dates_unavailable", "dates unavailable", []error{reservation.ErrConflict, reservation.ErrConcurrentBooking}},
	{http.StatusBadRequest, "invalid_dates", "", []error{
		reservation.ErrInvalidOrder, reservation.ErrInPast, daterange.ErrInvalidRange, daterange.ErrInvalidDate,
	}},
	{http.StatusBadRequest, "invalid_transition", "", []error{reservation.ErrInvalidTransition, reservation.ErrUnknownStatus}},
	{http.StatusBadRequest, "invalid_request", "", []error{
		middleware.ErrValidation, dto.ErrMissingField,
		reservation.ErrInvalidGuests, reservation.ErrTooManyGuests,
		property.ErrNameRequired, property.ErrAddressRequired, property.ErrNegativePrice, property.ErrInvalidMaxGuests,
		properties.ErrPriceRequired, properties.ErrCurrencyWithoutPrice, money.ErrInvalidAmount, money.ErrInvalidCurrency, money.ErrCurrencyMismatch, money.ErrOverflow,
		user.ErrEmailRequired, user.ErrInvalidEmail, user.ErrInvalidRole,
		auth.ErrPasswordTooShort, security.ErrPasswordTooLong,
	}},
	{http.StatusUnauthorized, "unauthenticated", "", []error{
		middleware.ErrUnauthenticated, auth.ErrInvalidCredentials, auth.ErrInvalidToken, auth.ErrTokenRequired,
	}},
	{http.StatusForbidden, "forbidden", "", []error{reservation.ErrForbidden, property.ErrNotOwner, auth.ErrRoleNotAllowed}},
	{http.StatusNotFound, "not_found", "", []error{reservation.ErrNotFound, property.ErrNotFound, user.ErrNotFound}},
	{http.StatusConflict, "conflict", "", []error{user.ErrEmailAlreadyUsed, property.ErrHasReservations}},
}

// statusFor maps an application error to its HTTP status and public message.
func statusFor(err error) (int, errorResponse) {
	for _, m := range errorMappings {
		for _, target := range m.targets {
			if errors.Is(err, target) {
				msg := m.message
				if msg == "" {
					msg = err.Error()
				}
				return m.status, errorResponse{Error: msg, Code: m.code}
			}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return http.StatusServiceUnavailable, errorResponse{Error: "request cancelled", Code: "unavailable"}
	}
	return http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal"}
}

func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func respondBadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "invalid_request"})
}
