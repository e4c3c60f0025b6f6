package obs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// Time returns a deferred-call hook that logs an operation's duration and
// outcome through the global zap logger. Usage:
//
//	defer obs.Time(ctx, "ledger.reserve")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	reqID, _ := ctx.Value(RequestIDKey).(string)

	return func(errp *error) {
		fields := []zap.Field{
			zap.String("op", name),
			zap.Duration("dur", time.Since(start)),
		}
		if reqID != "" {
			fields = append(fields, zap.String("req_id", reqID))
		}

		if errp != nil && *errp != nil {
			zap.L().Warn("op failed", append(fields, zap.Error(*errp))...)
			return
		}
		zap.L().Debug("op done", fields...)
	}
}
