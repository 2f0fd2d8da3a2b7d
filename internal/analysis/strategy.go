package analysis

import (
	"context"
	"errors"
	"log/slog"
)

// Strategy produces a value of type T from task text, or fails.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context, text string) (T, error)
}

// Heuristic wraps an infallible function as a Strategy.
func Heuristic[T any](name string, fn func(text string) T) Strategy[T] {
	return Strategy[T]{
		Name: name,
		Run: func(_ context.Context, text string) (T, error) {
			return fn(text), nil
		},
	}
}

var errNoStrategy = errors.New("no strategy succeeded")

// runChain tries strategies in order and returns the first success.
// Failures are logged and never surfaced; the caller supplies the final
// fallback value for the case where the chain itself is exhausted.
func runChain[T any](ctx context.Context, log *slog.Logger, op, text string, chain []Strategy[T]) (T, string, error) {
	var zero T
	for _, s := range chain {
		v, err := s.Run(ctx, text)
		if err == nil {
			return v, s.Name, nil
		}
		log.Warn("analysis strategy failed, falling back",
			"operation", op,
			"strategy", s.Name,
			"error", err,
		)
	}
	return zero, "", errNoStrategy
}
