package properties

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
	UoWFactory uow.Factory
	Cache      policies.PropertyCache
	Pricing    policies.PricingPort
	Clock      policies.Clock
	Encoder    outbox.EventEncoder
	Currency   string
	Logger     *slog.Logger
}

func Register(cmds *commands.Registry, qs *queries.Registry, d Deps) {
	ch := &CommandHandler{Cache: d.Cache, Clock: d.Clock, Encoder: d.Encoder, Currency: d.Currency, Logger: d.Logger}
	commands.RegisterHandler[CreateCommand, *dto.Property](cmds, CreateKey, ch.Create())
	commands.RegisterHandler[UpdateCommand, *dto.Property](cmds, UpdateKey, ch.Update())
	commands.RegisterHandler[DeleteCommand, *dto.Property](cmds, DeleteKey, ch.Delete())

	qh := &QueryHandler{UoWFactory: d.UoWFactory, Cache: d.Cache, Pricing: d.Pricing, Clock: d.Clock, Currency: d.Currency}
	queries.RegisterHandler[GetQuery, dto.Property](qs, GetKey, qh.Get())
	queries.RegisterHandler[SearchQuery, dto.PropertyCollection](qs, SearchKey, qh.Search())
	queries.RegisterHandler[QuoteQuery, dto.Quote](qs, QuoteKey, qh.Quote())
}
