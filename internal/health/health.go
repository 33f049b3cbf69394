package health

import (
	"context"
	"time"

	"github.com/seventv/slide-inverter/internal/global"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// New serves a liveness endpoint that fails while a configured S3 backend is unreachable.
func New(gCtx global.Context) <-chan struct{} {
	done := make(chan struct{})

	srv := fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			defer func() {
				if err := recover(); err != nil {
					zap.S().Errorw("panic in health",
						"panic", err,
					)
				}
			}()

			if !s3Healthy(gCtx) {
				ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			}
		},
		GetOnly: true,
	}

	go func() {
		defer close(done)
		zap.S().Infow("Health enabled",
			"bind", gCtx.Config().Health.Bind,
		)

		if err := srv.ListenAndServe(gCtx.Config().Health.Bind); err != nil {
			zap.S().Fatalw("failed to bind health",
				"error", err,
			)
		}
	}()

	go func() {
		<-gCtx.Done()

		_ = srv.Shutdown()
	}()

	return done
}

func s3Healthy(gCtx global.Context) bool {
	if gCtx.Inst().S3 == nil {
		return true
	}

	lCtx, cancel := context.WithTimeout(gCtx, time.Second*5)
	defer cancel()

	if _, err := gCtx.Inst().S3.ListBuckets(lCtx); err != nil {
		zap.S().Warnw("s3 is not responding",
			"error", err,
		)
		return false
	}

	return true
}
