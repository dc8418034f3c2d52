package server

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var (
	meter  = otel.Meter("java/server")
	tracer = otel.Tracer("java/server")

	connsAccepted = int64Counter("cubes.connections.accepted",
		"The total number of accepted connections")
	packetsHandled = int64Counter("cubes.packets.handled",
		"The total number of dispatched packets")
)

func int64Counter(name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit("1"))
	if err != nil {
		otel.Handle(err)
		return noop.Int64Counter{}
	}
	return c
}
