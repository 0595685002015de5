package dto

import (
	"github.com/AntoS03/ProyectoFinal/internal/domain/reservation"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/money"
)

// MoneyDTO renders an amount with two decimals, e.g. {"amount":"825.00","currency":"EUR"}.
type MoneyDTO struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type PriceDTO struct {
	NightlyPrice MoneyDTO `json:"nightly_price"`
	Nights       int      `json:"nights"`
	Subtotal     MoneyDTO `json:"subtotal"`
	TaxRate      string   `json:"tax_rate"`
	Taxes        MoneyDTO `json:"taxes"`
	Total        MoneyDTO `json:"total"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Decimal(), Currency: value.Currency}
}

func MapPrice(p reservation.PriceBreakdown) PriceDTO {
	return PriceDTO{
		NightlyPrice: MapMoney(p.NightlyPrice),
		Nights:       p.Nights,
		Subtotal:     MapMoney(p.Subtotal),
		TaxRate:      p.TaxRate.String(),
		Taxes:        MapMoney(p.Taxes),
		Total:        MapMoney(p.Total),
	}
}
