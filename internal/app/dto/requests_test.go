package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReservationRequestCanonical(t *testing.T) {
	var req ReservationRequest
	body := `{"property_id":"p-1","check_in":"2025-07-15","check_out":"2025-07-20","guests":2}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	in, err := req.Normalize()
	require.NoError(t, err)
	require.Equal(t, "p-1", in.PropertyID)
	require.Equal(t, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), in.CheckIn)
	require.Equal(t, 2, in.Guests)
}

func TestReservationRequestLegacyShape(t *testing.T) {
	var req ReservationRequest
	body := `{"id_alojamiento":42,"fecha_inicio":"2025-08-05","fecha_fin":"2025-08-06"}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	in, err := req.Normalize()
	require.NoError(t, err)
	require.Equal(t, "42", in.PropertyID)
	require.Equal(t, 1, in.Guests)
	require.Equal(t, time.Date(2025, 8, 6, 0, 0, 0, 0, time.UTC), in.CheckOut)
}

func TestReservationRequestMissingProperty(t *testing.T) {
	_, err := ReservationRequest{CheckIn: "2025-08-05", CheckOut: "2025-08-06"}.Normalize()
	require.ErrorIs(t, err, ErrMissingField)
}

func TestPropertyRequestLegacyPrice(t *testing.T) {
	var req PropertyRequest
	body := `{"nombre":"Casa","direccion":"Calle 1","ciudad":"Lima","precio_noche":150.5}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	in := req.Normalize()
	require.Equal(t, "Casa", in.Name)
	require.Equal(t, "Lima", in.City)
	require.Equal(t, "150.5", in.NightlyPrice)
}

func TestStatusRequestAliases(t *testing.T) {
	require.Equal(t, "confirmed", StatusRequest{Status: "confirmed"}.Value())
	require.Equal(t, "Cancelada", StatusRequest{LegacyState: "Cancelada"}.Value())
}
