package reservations

import (
	"log/slog"

	"github.com/AntoS03/ProyectoFinal/internal/app/commands"
	"github.com/AntoS03/ProyectoFinal/internal/app/dto"
	"github.com/AntoS03/ProyectoFinal/internal/app/outbox"
	"github.com/AntoS03/ProyectoFinal/internal/app/policies"
	"github.com/AntoS03/ProyectoFinal/internal/app/queries"
	"github.com/AntoS03/ProyectoFinal/internal/app/uow"
)

type Deps struct {
	UoWFactory  uow.Factory
	Pricing     policies.PricingPort
	Cache       policies.PropertyCache
	Clock       policies.Clock
	Encoder     outbox.EventEncoder
	AutoConfirm bool
	Logger      *slog.Logger
}

// Register binds the reservation commands and queries.
func Register(cmds *commands.Registry, qs *queries.Registry, d Deps) {
	create := &CreateReservationHandler{Pricing: d.Pricing, Clock: d.Clock, Encoder: d.Encoder, AutoConfirm: d.AutoConfirm, Logger: d.Logger}
	status := &ChangeStatusHandler{Clock: d.Clock, Encoder: d.Encoder, Logger: d.Logger}
	commands.RegisterHandler[CreateReservationCommand, *dto.Reservation](cmds, CreateReservationKey, create)
	commands.RegisterHandler[ChangeStatusCommand, *dto.Reservation](cmds, ChangeStatusKey, status)
	commands.RegisterHandler[CancelCommand, *dto.Reservation](cmds, CancelKey, status.Cancel())

	q := &QueryHandler{UoWFactory: d.UoWFactory, Cache: d.Cache}
	queries.RegisterHandler[ListByPropertyQuery, dto.ReservationCollection](qs, ListByPropertyKey, q.ListByProperty())
	queries.RegisterHandler[ListMineQuery, dto.ReservationCollection](qs, ListMineKey, q.ListMine())
	queries.RegisterHandler[GetQuery, dto.Reservation](qs, GetKey, q.Get())
}
