package middleware

import (
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/paste-go/internal/clock"
)

// SimulatedNowHeader carries the override instant as unix milliseconds.
const SimulatedNowHeader = "X-Simulated-Now"

// SimulatedNow is a middleware that threads a per-request time override into
// the context for deterministic runs. It must only be installed when
// deterministic mode is enabled; a missing or unparsable header leaves the
// request on real time.
func SimulatedNow(_ huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		header := ctx.Header(SimulatedNowHeader)
		if header == "" {
			next(ctx)

			return
		}

		millis, err := strconv.ParseInt(header, 10, 64)
		if err != nil || millis <= 0 {
			next(ctx)

			return
		}

		newCtx := clock.ContextWithOverride(ctx.Context(), time.UnixMilli(millis).UTC())
		ctx = huma.WithContext(ctx, newCtx)

		next(ctx)
	}
}
