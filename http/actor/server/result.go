package server

import (
	"context"

	"http-toolkit/negotiation"
)

// Result holds the negotiated value of each configured kind.
type Result struct {
	tokens map[negotiation.Kind]negotiation.Token
}

// Token returns the negotiated value of kind, if kind was negotiated.
func (r Result) Token(kind negotiation.Kind) (negotiation.Token, bool) {
	token, ok := r.tokens[kind]
	return token, ok
}

// Value is a shorthand of Token returning "" for kinds left out.
func (r Result) Value(kind negotiation.Kind) string {
	if token, ok := r.tokens[kind]; ok {
		return token.Value()
	}
	return ""
}

type resultKey struct{}

func withResult(ctx context.Context, result Result) context.Context {
	return context.WithValue(ctx, resultKey{}, result)
}

// ResultFrom returns the result stored by the middleware.
func ResultFrom(ctx context.Context) (Result, bool) {
	result, ok := ctx.Value(resultKey{}).(Result)
	return result, ok
}
