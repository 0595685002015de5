package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AntoS03/ProyectoFinal/internal/app/uow"
	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/infra/storage/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadPropertyFixturesSkipsInvalidEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "properties.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id":"p1","owner_id":"o1","name":"One","address":"A 1","city":"Sevilla","nightly_price":"95.00","max_guests":2},
		{"id":"p2","owner_id":"o1","name":"Two","address":"A 2","nightly_price":"not-a-price"},
		{"id":"","owner_id":"o1","name":"Three","address":"A 3","nightly_price":"10"}
	]`), 0o600))

	store := memory.NewStore()
	require.NoError(t, loadPropertyFixtures(context.Background(), store, path, "EUR", discardLogger()))

	unit, err := memory.Factory{Store: store}.Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer unit.Rollback(context.Background())

	p, err := unit.Properties().ByID(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, int64(9500), p.NightlyPrice.Amount)
	require.Equal(t, "EUR", p.NightlyPrice.Currency)

	res, err := unit.Properties().Search(context.Background(), property.SearchParams{})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
}

func TestLoadPropertyFixturesMissingFile(t *testing.T) {
	store := memory.NewStore()
	err := loadPropertyFixtures(context.Background(), store, filepath.Join(t.TempDir(), "none.json"), "EUR", discardLogger())
	require.NoError(t, err)
}

func TestFlushAllJoinsErrors(t *testing.T) {
	box := memory.NewOutbox()
	f := flushAll{box, nil, failingFlusher{}}
	require.ErrorIs(t, f.Flush(context.Background()), errFlush)
}

var errFlush = errors.New("flush failed")

type failingFlusher struct{}

func (failingFlusher) Flush(context.Context) error { return errFlush }
