package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AntoS03/ProyectoFinal/internal/app/commands"
	"github.com/AntoS03/ProyectoFinal/internal/app/dto"
	"github.com/AntoS03/ProyectoFinal/internal/app/handlers/properties"
	"github.com/AntoS03/ProyectoFinal/internal/app/handlers/reservations"
	"github.com/AntoS03/ProyectoFinal/internal/app/queries"
)

const idempotencyHeader = "Idempotency-Key"

type PropertyHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h PropertyHandler) Search(c *gin.Context) {
	minGuests, err := intQuery(c, "guests", "min_guests")
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	offset, err := intQuery(c, "offset")
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	result, err := queries.Ask[properties.SearchQuery, dto.PropertyCollection](c.Request.Context(), h.Queries, properties.SearchQuery{
		OwnerID:   c.Query("owner_id"),
		City:      c.Query("city"),
		Text:      c.Query("q"),
		MinGuests: minGuests,
		PriceMin:  c.Query("price_min"),
		PriceMax:  c.Query("price_max"),
		Sort:      c.Query("sort"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) Get(c *gin.Context) {
	result, err := queries.Ask[properties.GetQuery, dto.Property](c.Request.Context(), h.Queries, properties.GetQuery{
		PropertyID: c.Param("id"),
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) Create(c *gin.Context) {
	actor, ok := requireAuth(c)
	if !ok {
		return
	}
	var req dto.PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	result, err := commands.Dispatch[properties.CreateCommand, *dto.Property](c.Request.Context(), h.Commands, properties.CreateCommand{
		Actor:           actor,
		PropertyID:      uuid.NewString(),
		Input:           req.Normalize(),
		IdempotencyKeyV: strings.TrimSpace(c.GetHeader(idempotencyHeader)),
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h PropertyHandler) Update(c *gin.Context) {
	actor, ok := requireAuth(c)
	if !ok {
		return
	}
	var req dto.PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	result, err := commands.Dispatch[properties.UpdateCommand, *dto.Property](c.Request.Context(), h.Commands, properties.UpdateCommand{
		Actor:      actor,
		PropertyID: c.Param("id"),
		Input:      req.Normalize(),
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) Delete(c *gin.Context) {
	actor, ok := requireAuth(c)
	if !ok {
		return
	}
	result, err := commands.Dispatch[properties.DeleteCommand, *dto.Property](c.Request.Context(), h.Commands, properties.DeleteCommand{
		Actor:      actor,
		PropertyID: c.Param("id"),
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) Quote(c *gin.Context) {
	guests, err := intQuery(c, "guests")
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	result, err := queries.Ask[properties.QuoteQuery, dto.Quote](c.Request.Context(), h.Queries, properties.QuoteQuery{
		PropertyID: c.Param("id"),
		CheckIn:    firstQuery(c, "check_in", "fecha_inicio"),
		CheckOut:   firstQuery(c, "check_out", "fecha_fin"),
		Guests:     guests,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Reservations lists the nights taken on a property. Anonymous callers get the
// redacted view used by the availability calendar.
func (h PropertyHandler) Reservations(c *gin.Context) {
	includeCancelled, _ := strconv.ParseBool(c.Query("include_cancelled"))
	result, err := queries.Ask[reservations.ListByPropertyQuery, dto.ReservationCollection](c.Request.Context(), h.Queries, reservations.ListByPropertyQuery{
		Actor:            actorFrom(c),
		PropertyID:       c.Param("id"),
		IncludeCancelled: includeCancelled,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func firstQuery(c *gin.Context, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(c.Query(name)); v != "" {
			return v
		}
	}
	return ""
}

func intQuery(c *gin.Context, names ...string) (int, error) {
	raw := firstQuery(c, names...)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s", names[0])
	}
	return v, nil
}
