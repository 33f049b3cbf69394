package global

import "github.com/seventv/slide-inverter/internal/instance"

type Instances struct {
	S3         instance.S3
	Prometheus instance.Prometheus
}
