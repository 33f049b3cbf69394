package monitoring

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/seventv/common/utils"
	"github.com/seventv/slide-inverter/internal/global"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
)

const MetricsPath = "/metrics"

// Handler exposes the registry of gCtx's Prometheus instance on MetricsPath.
func Handler(gCtx global.Context) fasthttp.RequestHandler {
	registry := gCtx.Inst().Prometheus.Registry()

	metrics := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		Registry:          registry,
		EnableOpenMetrics: true,
		ErrorLog:          zap.NewStdLog(zap.L()),
	}))

	return func(ctx *fasthttp.RequestCtx) {
		switch utils.B2S(ctx.Path()) {
		case MetricsPath, "/":
			metrics(ctx)
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		}
	}
}

func New(gCtx global.Context) <-chan struct{} {
	server := fasthttp.Server{
		Handler:          Handler(gCtx),
		GetOnly:          true,
		DisableKeepalive: true,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		zap.S().Infow("Monitoring enabled",
			"bind", gCtx.Config().Monitoring.Bind,
			"path", MetricsPath,
		)
		if err := server.ListenAndServe(gCtx.Config().Monitoring.Bind); err != nil {
			zap.S().Fatalw("failed to start monitoring bind",
				"error", err,
			)
		}
	}()

	go func() {
		<-gCtx.Done()
		_ = server.Shutdown()
	}()
	return done
}
