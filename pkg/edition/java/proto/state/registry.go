package state

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"go.minekube.com/cubes/pkg/edition/java/proto/packet"
	"go.minekube.com/cubes/pkg/proto"
)

// PacketRegistry maps packet ids of one state and direction to packet types.
type PacketRegistry struct {
	State     State
	Direction proto.Direction

	names   map[proto.PacketID]string
	types   map[proto.PacketID]reflect.Type
	typeIDs map[reflect.Type]proto.PacketID
}

type registryKey struct {
	state     State
	direction proto.Direction
}

var registries = map[registryKey]*PacketRegistry{}

// Registry returns the packet registry of a state and direction.
// Registries are filled at init and read-only afterwards.
func Registry(s State, d proto.Direction) *PacketRegistry {
	if r, ok := registries[registryKey{s, d}]; ok {
		return r
	}
	return &PacketRegistry{State: s, Direction: d}
}

func newRegistry(s State, d proto.Direction) *PacketRegistry {
	k := registryKey{s, d}
	r, ok := registries[k]
	if !ok {
		r = &PacketRegistry{
			State:     s,
			Direction: d,
			names:     map[proto.PacketID]string{},
			types:     map[proto.PacketID]reflect.Type{},
			typeIDs:   map[reflect.Type]proto.PacketID{},
		}
		registries[k] = r
	}
	return r
}

// Register registers a packet type under id. The name used in logs is
// the type name. Registering an id or type twice panics.
func (r *PacketRegistry) Register(id proto.PacketID, p proto.Packet) {
	typ := packetType(p)
	if prev, ok := r.typeIDs[typ]; ok {
		panic(fmt.Sprintf("packet type %s already registered as %s in %s %s", typ, prev, r.State, r.Direction))
	}
	r.RegisterName(id, typ.Name())
	r.types[id] = typ
	r.typeIDs[typ] = id
}

// RegisterName names a packet id without a packet type.
func (r *PacketRegistry) RegisterName(id proto.PacketID, name string) {
	if prev, ok := r.names[id]; ok {
		panic(fmt.Sprintf("packet %s %s %s already registered as %s", r.State, r.Direction, id, prev))
	}
	r.names[id] = name
}

// PacketID returns the id of a registered packet type.
func (r *PacketRegistry) PacketID(p proto.Packet) (proto.PacketID, bool) {
	id, ok := r.typeIDs[packetType(p)]
	return id, ok
}

// CreatePacket returns a new zero packet of the type registered under id or nil.
func (r *PacketRegistry) CreatePacket(id proto.PacketID) proto.Packet {
	typ, ok := r.types[id]
	if !ok {
		return nil
	}
	return reflect.New(typ).Interface().(proto.Packet)
}

// PacketName returns the registered name of a packet or its hex id.
func (r *PacketRegistry) PacketName(id proto.PacketID) string {
	if n, ok := r.names[id]; ok {
		return n
	}
	return id.String()
}

// PacketName returns the registered name of a packet or its hex id.
func PacketName(s State, d proto.Direction, id proto.PacketID) string {
	return Registry(s, d).PacketName(id)
}

// PacketID returns the id of a packet type in a state and direction.
func PacketID(s State, d proto.Direction, p proto.Packet) (proto.PacketID, bool) {
	return Registry(s, d).PacketID(p)
}

func packetType(p proto.Packet) reflect.Type {
	typ := reflect.TypeOf(p)
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return typ
}

func init() {
	handshake := newRegistry(HandshakeState, proto.ServerBound)
	handshake.Register(0x00, &packet.Handshake{})
	handshake.RegisterName(0xFE, "LegacyPing")

	serverStatus := newRegistry(StatusState, proto.ServerBound)
	serverStatus.Register(0x00, &packet.StatusRequest{})
	serverStatus.Register(0x01, &packet.StatusPing{})
	clientStatus := newRegistry(StatusState, proto.ClientBound)
	clientStatus.Register(0x00, &packet.StatusResponse{})
	clientStatus.Register(0x01, &packet.StatusPing{})

	for _, s := range []State{LoginState, TransferState} {
		newRegistry(s, proto.ServerBound).Register(0x00, &packet.ServerLogin{})
		client := newRegistry(s, proto.ClientBound)
		client.Register(0x00, &packet.Disconnect{})
		client.Register(0x02, &packet.ServerLoginSuccess{})
	}

	newRegistry(PlayState, proto.ClientBound).Register(0x1A, &packet.Disconnect{})
}

// String implements fmt.Stringer.
func (r *PacketRegistry) String() string {
	names := make([]string, 0, len(r.names))
	for id, n := range r.names {
		names = append(names, id.String()+"="+n)
	}
	slices.Sort(names)
	return fmt.Sprintf("%s %s registry [%s]", r.State, r.Direction, strings.Join(names, " "))
}
