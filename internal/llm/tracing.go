package llm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type tracedClient struct {
	Client
	tracer trace.Tracer
}

// WithTracing wraps every Complete call in a span.
func WithTracing(c Client) Client {
	return &tracedClient{Client: c, tracer: otel.Tracer("github.com/lshigami/pblagro/internal/llm")}
}

func (t *tracedClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	ctx, span := t.tracer.Start(ctx, "llm.Complete", trace.WithAttributes(
		attribute.String("llm.provider", t.Provider()),
		attribute.String("llm.model", req.Model),
		attribute.Float64("llm.temperature", req.Temperature),
		attribute.Int("llm.max_tokens", req.MaxTokens),
		attribute.Int("llm.messages", len(req.Messages)),
	))
	defer span.End()

	text, err := t.Client.Complete(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("llm.response_chars", len(text)))
	return text, nil
}
