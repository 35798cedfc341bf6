package server

import (
	"context"
	"net/http"
	"time"

	"github.com/claimlab/apiserver/internal/metrics"
	"github.com/claimlab/apiserver/internal/services"
	"github.com/claimlab/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// requestLogger logs one line per request and records it in collector.
func requestLogger(logger *zap.Logger, collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				duration := time.Since(start)

				route := "unmatched"
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				collector.RecordRequest(r.Method, route, status, duration)

				fields := []zap.Field{
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("route", route),
					zap.Int("status", status),
					zap.Int64("duration_ms", duration.Milliseconds()),
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("remote_addr", r.RemoteAddr),
				}
				switch {
				case status >= http.StatusInternalServerError:
					logger.Error("request", fields...)
				case status >= http.StatusBadRequest:
					logger.Warn("request", fields...)
				default:
					logger.Info("request", fields...)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// instrumentedPublisher counts publish outcomes per event type.
type instrumentedPublisher struct {
	next      services.EventPublisher
	collector *metrics.Collector
}

func (p instrumentedPublisher) PublishClaimEvent(ctx context.Context, event types.ClaimEvent) error {
	err := p.next.PublishClaimEvent(ctx, event)
	p.collector.RecordEvent(event.Type, err)
	return err
}
