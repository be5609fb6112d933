package app

import (
	"context"

	"autoinject/internal/engine/inject"
	"autoinject/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TransformSource runs the transform on in-memory code, bypassing the
// cache and output writing. It backs the HTTP endpoint.
func (a *App) TransformSource(ctx context.Context, code, id string) *inject.Result {
	_, span := observability.Tracer.Start(ctx, "app.TransformSource", trace.WithAttributes(attribute.String("id", id)))
	defer span.End()

	_, transformer, _ := a.current()
	res := transformer.Transform(code, id)
	span.SetAttributes(attribute.String("status", res.Status.String()))
	return res
}
