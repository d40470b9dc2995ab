package kernel

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"git.sr.ht/~aondrejcak/wellness-api/models"
)

const runtimeKey = "rt"

type spanCtxPair struct {
	span trace.Span
	ctx  context.Context
}

// RequestRuntime carries per-request state: the app context, the
// authenticated admin and a stack of tracing spans. StepInto opens a child
// span, StepBack closes it and returns to the parent.
type RequestRuntime struct {
	AppRuntime *AppRuntime

	Admin     *models.Admin
	RequestID string

	RequestContext *gin.Context
	Span           trace.Span
	SpanContext    context.Context

	Error error

	pairs []spanCtxPair
}

func InitRequest(art *AppRuntime, c *gin.Context, requestID string) *RequestRuntime {
	name := c.FullPath()
	if name == "" {
		name = c.Request.Method + " unmatched"
	}
	span, ctx := art.Diagnostic.BeginTracing(c.Request.Context(), name)

	rt := &RequestRuntime{
		AppRuntime:     art,
		RequestID:      requestID,
		RequestContext: c,
		Span:           span,
		SpanContext:    ctx,
	}
	rt.pairs = append(rt.pairs, spanCtxPair{span: span, ctx: ctx})
	c.Set(runtimeKey, rt)
	return rt
}

// Runtime returns the request runtime installed by the tracing middleware.
func Runtime(c *gin.Context) *RequestRuntime {
	v, ok := c.Get(runtimeKey)
	if !ok {
		return nil
	}
	rt, _ := v.(*RequestRuntime)
	return rt
}

func (rt *RequestRuntime) StepInto(spanName string) *RequestRuntime {
	ctx, span := rt.AppRuntime.Diagnostic.Tracer.Start(rt.SpanContext, spanName)
	rt.pairs = append(rt.pairs, spanCtxPair{span: span, ctx: ctx})
	rt.Span = span
	rt.SpanContext = ctx
	return rt
}

// StepBack ends the current child span. The root span is left to End.
func (rt *RequestRuntime) StepBack() {
	if len(rt.pairs) <= 1 {
		return
	}
	rt.pairs[len(rt.pairs)-1].span.End()
	rt.pairs = rt.pairs[:len(rt.pairs)-1]

	top := rt.pairs[len(rt.pairs)-1]
	rt.Span = top.span
	rt.SpanContext = top.ctx
}

// End closes every open span, innermost first.
func (rt *RequestRuntime) End() {
	for i := len(rt.pairs) - 1; i >= 0; i-- {
		rt.pairs[i].span.End()
	}
	rt.pairs = rt.pairs[:0]
}

func (rt *RequestRuntime) TraceID() string {
	sc := rt.Span.SpanContext()
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
