package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AntoS03/ProyectoFinal/internal/app/commands"
	"github.com/AntoS03/ProyectoFinal/internal/app/dto"
	"github.com/AntoS03/ProyectoFinal/internal/app/handlers/reservations"
	"github.com/AntoS03/ProyectoFinal/internal/app/queries"
)

type ReservationHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h ReservationHandler) Create(c *gin.Context) {
	actor, ok := requireAuth(c)
	if !ok {
		return
	}
	var req dto.ReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	in, err := req.Normalize()
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	result, err := commands.Dispatch[reservations.CreateReservationCommand, *dto.Reservation](c.Request.Context(), h.Commands, reservations.CreateReservationCommand{
		Actor:           actor,
		ReservationID:   uuid.NewString(),
		PropertyID:      in.PropertyID,
		CheckIn:         in.CheckIn,
		CheckOut:        in.CheckOut,
		Guests:          in.Guests,
		IdempotencyKeyV: strings.TrimSpace(c.GetHeader(idempotencyHeader)),
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ReservationHandler) Mine(c *gin.Context) {
	actor, ok := requireAuth(c)
	if !ok {
		return
	}
	result, err := queries.Ask[reservations.ListMineQuery, dto.ReservationCollection](c.Request.Context(), h.Queries, reservations.ListMineQuery{
		Actor: actor,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) Get(c *gin.Context) {
	actor, ok := requireAuth(c)
	if !ok {
		return
	}
	result, err := queries.Ask[reservations.GetQuery, dto.Reservation](c.Request.Context(), h.Queries, reservations.GetQuery{
		Actor:         actor,
		ReservationID: c.Param("id"),
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) UpdateStatus(c *gin.Context) {
	actor, ok := requireAuth(c)
	if !ok {
		return
	}
	var req dto.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	result, err := commands.Dispatch[reservations.ChangeStatusCommand, *dto.Reservation](c.Request.Context(), h.Commands, reservations.ChangeStatusCommand{
		Actor:         actor,
		ReservationID: c.Param("id"),
		Status:        req.Value(),
		Reason:        req.Reason,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) Cancel(c *gin.Context) {
	actor, ok := requireAuth(c)
	if !ok {
		return
	}
	result, err := commands.Dispatch[reservations.CancelCommand, *dto.Reservation](c.Request.Context(), h.Commands, reservations.CancelCommand{
		Actor:         actor,
		ReservationID: c.Param("id"),
		Reason:        c.Query("reason"),
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
