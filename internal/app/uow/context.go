package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type ctxKey struct{}

func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, ctxKey{}, unit)
}

func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(ctxKey{}).(UnitOfWork)
	return unit, ok && unit != nil
}

// Injector is implemented by units that carry driver state, such as a Mongo
// session, on the context.
type Injector interface {
	InjectContext(ctx context.Context) context.Context
}

// Bind returns ctx carrying unit and any driver state it injects.
func Bind(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(Injector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return ContextWithUnitOfWork(ctx, unit)
}

// Wrapper is implemented by units that decorate another unit.
type Wrapper interface {
	Unwrap() UnitOfWork
}

// Innermost follows Unwrap to the driver's own unit.
func Innermost(unit UnitOfWork) UnitOfWork {
	for {
		w, ok := unit.(Wrapper)
		if !ok {
			return unit
		}
		unit = w.Unwrap()
	}
}
