package netmc

import (
	"context"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"go.minekube.com/cubes/pkg/proto"
)

// PacketInterceptor observes every packet read from or written to a connection.
type PacketInterceptor interface {
	InterceptPacket(ctx context.Context, pc *proto.PacketContext)
}

// PacketInterceptorFunc is a function implementing PacketInterceptor.
type PacketInterceptorFunc func(ctx context.Context, pc *proto.PacketContext)

func (f PacketInterceptorFunc) InterceptPacket(ctx context.Context, pc *proto.PacketContext) {
	f(ctx, pc)
}

// telemetryInterceptor records packets as events of the active span
// and dumps known packets at log verbosity 3.
type telemetryInterceptor struct {
	log logr.Logger
}

// NewTelemetryInterceptor creates a new telemetry interceptor
func NewTelemetryInterceptor(log logr.Logger) PacketInterceptor {
	return &telemetryInterceptor{log: log.WithName("packets")}
}

func (t *telemetryInterceptor) InterceptPacket(ctx context.Context, pc *proto.PacketContext) {
	if pc == nil {
		return
	}
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		attrs := []attribute.KeyValue{
			attribute.String("packet.id", pc.PacketID.String()),
			attribute.Int("packet.size", len(pc.Payload)),
			attribute.String("packet.direction", pc.Direction.String()),
		}
		if pc.KnownPacket() {
			attrs = append(attrs, attribute.String("packet.type", fmt.Sprintf("%T", pc.Packet)))
		}
		span.AddEvent("packet", trace.WithAttributes(attrs...))
	}
	if pc.KnownPacket() {
		if log := t.log.V(3); log.Enabled() {
			log.Info("packet dump", "direction", pc.Direction, "dump", spew.Sdump(pc.Packet))
		}
	}
}
