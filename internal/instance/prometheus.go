package instance

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Prometheus interface {
	Register(r prometheus.Registerer)
	Registry() *prometheus.Registry

	StartJob() func(success bool)

	DecodeDocument() func()
	ApplySlides() func()
	EncodeDocument() func()
	PackArchive() func()

	TotalSlidesProcessed(int)
	TotalPicturesProcessed(int)
	TotalBytesIn(int)
	TotalBytesOut(int)
}
