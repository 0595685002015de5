package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/reservation"
)

func TestSearchWhereBuildsPositionalArgs(t *testing.T) {
	where, args := searchWhere(property.SearchParams{}.Normalized())
	require.Empty(t, where)
	require.Empty(t, args)

	where, args = searchWhere(property.SearchParams{City: "Napoli", Query: "50%", PriceMinCents: 100}.Normalized())
	require.Equal(t, ` WHERE lower(city) = $1 AND lower(name || ' ' || city || ' ' || region || ' ' || address) LIKE '%' || $2 || '%' AND price_cents >= $3`, where)
	require.Equal(t, []any{"napoli", `50\%`, int64(100)}, args)
}

func TestTranslateConflict(t *testing.T) {
	lockErr := &pgconn.PgError{Code: pgerrcode.LockNotAvailable}
	require.ErrorIs(t, translateConflict(lockErr), reservation.ErrConcurrentBooking)

	other := errors.New("boom")
	require.Equal(t, other, translateConflict(other))
	require.NoError(t, translateConflict(nil))
}

func TestSchemaDeclaresOverlapConstraint(t *testing.T) {
	require.Contains(t, schema, "daterange(check_in, check_out, '[)') WITH &&")
	require.Contains(t, schema, "WHERE (status <> 'cancelled')")
}

func TestSchemaKeepsPriceSnapshotConsistent(t *testing.T) {
	require.Contains(t, schema, "total = subtotal + taxes")
}
