// Package handlers provides the API operations, registered with [huma.AutoRegister].
package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type operation[I, O any] = func(context.Context, *I) (*O, error)

// reported passes the errors of op to report, then returns them as converted by convert.
// report sees the errors before conversion so it can inspect their causes.
func reported[I, O any](op operation[I, O], report func(context.Context, error), convert func(error) error) operation[I, O] {
	return func(ctx context.Context, i *I) (*O, error) {
		o, err := op(ctx, i)
		if err == nil {
			return o, nil
		}
		if report != nil {
			report(ctx, err)
		}
		return nil, convert(err)
	}
}

func opErrors(codes ...int) func(*huma.Operation) {
	return func(o *huma.Operation) { o.Errors = codes }
}

func opStatus(code int) func(*huma.Operation) {
	return func(o *huma.Operation) { o.DefaultStatus = code }
}

func opSummary(summary, description string) func(*huma.Operation) {
	return func(o *huma.Operation) { o.Summary, o.Description = summary, description }
}
