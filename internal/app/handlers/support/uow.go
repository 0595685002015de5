package support

import (
	"context"

	"github.com/AntoS03/ProyectoFinal/internal/app/policies"
	"github.com/AntoS03/ProyectoFinal/internal/app/uow"
	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
)

// BeginReadOnlyUnit reuses the unit bound to ctx or opens a read-only one.
// The returned cleanup is nil when the unit was borrowed.
func BeginReadOnlyUnit(ctx context.Context, factory uow.Factory) (uow.UnitOfWork, context.Context, func(), error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := uow.Bind(ctx, unit)
	cleanup := func() {
		_ = unit.Rollback(execCtx)
	}
	return unit, execCtx, cleanup, nil
}

// CachedProperty reads a property through cache. The returned value is a copy
// and may be mutated by the caller.
func CachedProperty(ctx context.Context, repo property.Repository, cache policies.PropertyCache, id property.ID) (*property.Property, error) {
	if cache == nil {
		cache = policies.NoCache{}
	}
	if p, ok := cache.Get(ctx, id); ok {
		return p.Clone(), nil
	}
	p, err := repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cache.Set(ctx, p.Clone())
	return p, nil
}
