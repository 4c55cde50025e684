package requestctx

import (
	"context"
	"errors"
)

var (
	ErrOperatorIDNotFoundInContext = errors.New("operator ID not found in context")
	ErrTokenNotFoundInContext      = errors.New("token not found in context")
)

type (
	operatorIDContextKey struct{}
	tokenContextKey      struct{}
)

// SystemOperatorID is the actor recorded for operations that did not come from an authenticated operator, e.g. CLI
// commands run without --actor.
const SystemOperatorID = "system"

// GetOperatorIDFromContext retrieves the ID of the operator performing the request.
func GetOperatorIDFromContext(ctx context.Context) (string, error) {
	operatorID, ok := ctx.Value(operatorIDContextKey{}).(string)
	if !ok || operatorID == "" {
		return "", ErrOperatorIDNotFoundInContext
	}
	return operatorID, nil
}

// MustGetOperatorIDFromContext retrieves the operator ID from the context and defaults to SystemOperatorID.
func MustGetOperatorIDFromContext(ctx context.Context) string {
	operatorID, err := GetOperatorIDFromContext(ctx)
	if err != nil {
		return SystemOperatorID
	}
	return operatorID
}

func SetOperatorIDInContext(ctx context.Context, operatorID string) context.Context {
	return context.WithValue(ctx, operatorIDContextKey{}, operatorID)
}

// GetTokenFromContext retrieves the operator token the request was authenticated with.
func GetTokenFromContext(ctx context.Context) (string, error) {
	token, ok := ctx.Value(tokenContextKey{}).(string)
	if !ok || token == "" {
		return "", ErrTokenNotFoundInContext
	}
	return token, nil
}

func SetTokenInContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, token)
}
