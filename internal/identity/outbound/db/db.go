package db

import (
	"context"
	"errors"

	"github.com/shandysiswandi/ideabox/internal/identity/entity"
	"github.com/shandysiswandi/ideabox/internal/pkg/goerror"
	"github.com/shandysiswandi/ideabox/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var errUnknownCollection = errors.New("identity: unknown collection")

type tracer struct {
	ins instrument.Instrumentation
}

func (t tracer) startSpan(ctx context.Context, name string, c entity.Collection) (context.Context, trace.Span) {
	return t.ins.Tracer("identity.outbound.db").Start(ctx, name,
		trace.WithAttributes(attribute.String("identity.collection", c.String())))
}

func (t tracer) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
