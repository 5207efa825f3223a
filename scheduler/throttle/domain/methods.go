package domain

import (
	"context"

	"github.com/pkg/errors"
)

// Predicate adapta um método sem argumentos de um tipo concreto de job.
//
//	domain.Predicate((*ReportJob).QueueFull)
func Predicate[J Job](fn func(J) bool) PredicateFunc {
	return PredicateCtx(func(_ context.Context, j J) (bool, error) { return fn(j), nil })
}

// PredicateCtx é como Predicate, para checagens que fazem I/O e podem falhar.
func PredicateCtx[J Job](fn func(context.Context, J) (bool, error)) PredicateFunc {
	return func(ctx context.Context, job Job) (bool, error) {
		j, ok := job.(J)
		if !ok {
			return false, errors.Wrapf(ErrJobType, "predicate wants %T, got %T", *new(J), job)
		}
		return fn(ctx, j)
	}
}

// Resolver adapta um método de filtro de um tipo concreto de job.
func Resolver[J Job](fn func(J) Filter) ResolverFunc {
	return ResolverCtx(func(_ context.Context, j J) (Filter, error) { return fn(j), nil })
}

// ResolverCtx é como Resolver, para filtros que dependem de I/O.
func ResolverCtx[J Job](fn func(context.Context, J) (Filter, error)) ResolverFunc {
	return func(ctx context.Context, job Job) (Filter, error) {
		j, ok := job.(J)
		if !ok {
			return nil, errors.Wrapf(ErrJobType, "filter wants %T, got %T", *new(J), job)
		}
		return fn(ctx, j)
	}
}
