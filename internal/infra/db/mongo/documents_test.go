package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/reservation"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/daterange"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/money"
)

func TestReservationDocumentKeepsPriceSnapshot(t *testing.T) {
	in := time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC)
	r := &reservation.Reservation{
		ID:         "r1",
		PropertyID: "p1",
		GuestID:    "g1",
		Range:      daterange.Of(in, in.AddDate(0, 0, 5)),
		Guests:     2,
		Status:     reservation.StatusConfirmed,
		Price: reservation.PriceBreakdown{
			NightlyPrice: money.Must(15000, "EUR"),
			Nights:       5,
			Subtotal:     money.Must(75000, "EUR"),
			TaxRate:      money.Rate{PPM: 100_000},
			Taxes:        money.Must(7500, "EUR"),
			Total:        money.Must(82500, "EUR"),
		},
		CreatedAt: in.Add(-time.Hour),
		UpdatedAt: in.Add(-time.Hour),
		Version:   3,
	}
	got := newReservationDocument(r).toAggregate()
	require.Equal(t, r.Price, got.Price)
	require.True(t, r.Range.CheckIn.Equal(got.Range.CheckIn))
	require.True(t, r.Range.CheckOut.Equal(got.Range.CheckOut))
	require.Equal(t, r.Status, got.Status)
	require.Equal(t, int64(3), got.Version)
}

func TestPropertyDocumentLowercasesCityKey(t *testing.T) {
	p := &property.Property{ID: "p1", OwnerID: "o1", Name: "Loft", City: "Napoli", NightlyPrice: money.Must(100, "EUR")}
	doc := newPropertyDocument(p)
	require.Equal(t, "napoli", doc.CityKey)
	require.Equal(t, p.NightlyPrice, doc.toAggregate().NightlyPrice)
}

func TestSearchFilter(t *testing.T) {
	require.Equal(t, bson.M{}, searchFilter(property.SearchParams{}.Normalized()))

	f := searchFilter(property.SearchParams{City: "Napoli", MinGuests: 3, PriceMaxCents: 20000}.Normalized())
	and, ok := f["$and"].(bson.A)
	require.True(t, ok)
	require.Len(t, and, 3)
	require.Equal(t, bson.M{"city_key": "napoli"}, and[0])
	require.Equal(t, bson.M{"price_cents": bson.M{"$lte": int64(20000)}}, and[2])
}
