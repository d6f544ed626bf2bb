package middleware

import (
	"context"

	"airbrb/internal/app/commands"
	"airbrb/internal/app/queries"
)

type Validator interface {
	Validate(ctx context.Context, message any) error
}

// SelfValidating messages check rules a struct tag cannot express. Their
// Validate runs after the Validator accepted the message.
type SelfValidating interface {
	Validate() error
}

func Validation(v Validator) CommandMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := validate(ctx, v, cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryValidation(v Validator) QueryMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := validate(ctx, v, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}

func validate(ctx context.Context, v Validator, message any) error {
	if err := v.Validate(ctx, message); err != nil {
		return err
	}
	if sv, ok := message.(SelfValidating); ok {
		return sv.Validate()
	}
	return nil
}
