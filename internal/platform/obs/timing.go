package obs

import (
	"context"
	"log/slog"
	"time"
)

// Time logs an operation's duration once it finishes, tagging the error when
// the wrapped call failed. Usage: defer obs.Time(ctx, "routes.Build")(&err).
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			slog.WarnContext(ctx, "op failed",
				"op", name,
				"dur_ms", dur.Milliseconds(),
				"error", *errp,
			)
			return
		}
		slog.DebugContext(ctx, "op done", "op", name, "dur_ms", dur.Milliseconds())
	}
}
