/*
Package tracing provides lightweight request tracing backed by the log.

Each HTTP request gets a span; the lookup service opens child spans for
the browser launch and the frame scan. Finished spans are buffered and
written by a single collector goroutine as structured zap entries, so a
slow lookup can be followed through the log by its trace_id.

# Usage

	tracer := tracing.New("game-source-finder", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "finder.scan")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

# Propagation

  - X-Trace-ID: identifier for the whole request flow
  - X-Span-ID: identifier for the current operation

Both are accepted on requests, returned on responses and forwarded on
outbound fetches made by the static engine.
*/
package tracing
