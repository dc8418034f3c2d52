package metadata

import (
	"encoding/json"
	"io"

	"go.minekube.com/cubes/pkg/edition/java/proto/item"
	"go.minekube.com/cubes/pkg/edition/java/proto/particle"
	"go.minekube.com/cubes/pkg/edition/java/proto/util"
	"go.minekube.com/cubes/pkg/util/uuid"
)

// Value is a metadata value. The set of implementations is closed,
// one per FieldType.
type Value interface {
	Type() FieldType
	validate() error
	write(w *util.PWriter)
}

type (
	Byte    int8
	VarInt  int32
	Float   float32
	String  string
	Chat    string // JSON chat text
	Boolean bool
	// OptChat is a Chat that may be absent.
	OptChat struct{ Chat *string }
	// Slot is an item stack, nil is the empty slot.
	Slot     struct{ Item *item.Slot }
	Rotation struct{ X, Y, Z float32 }
	Position util.Position
	// OptPosition is a Position that may be absent.
	OptPosition struct{ Position *util.Position }
	// OptUUID is a UUID that may be absent.
	OptUUID struct{ UUID *uuid.UUID }
	// OptBlockID is a block state id that may be absent.
	OptBlockID struct{ ID *int32 }
	NBT        util.NBT
	Particle   struct{ Particle particle.Particle }
	// VillagerData describes a villager.
	VillagerData struct {
		Kind       VillagerType
		Profession Profession
		Level      int // in [0, 5]
	}
	// OptVarInt is a VarInt that may be absent.
	OptVarInt struct{ Value *int32 }
)

// MaxVillagerLevel is the highest villager level.
const MaxVillagerLevel = 5

var (
	_ Value = Byte(0)
	_ Value = VarInt(0)
	_ Value = Float(0)
	_ Value = String("")
	_ Value = Chat("")
	_ Value = OptChat{}
	_ Value = Slot{}
	_ Value = Boolean(false)
	_ Value = Rotation{}
	_ Value = Position{}
	_ Value = OptPosition{}
	_ Value = Direction(0)
	_ Value = OptUUID{}
	_ Value = OptBlockID{}
	_ Value = NBT{}
	_ Value = Particle{}
	_ Value = VillagerData{}
	_ Value = OptVarInt{}
	_ Value = Pose(0)
)

// Ptr returns a pointer to v, for filling optional values.
func Ptr[T any](v T) *T { return &v }

func (Byte) Type() FieldType         { return ByteType }
func (VarInt) Type() FieldType       { return VarIntType }
func (Float) Type() FieldType        { return FloatType }
func (String) Type() FieldType       { return StringType }
func (Chat) Type() FieldType         { return ChatType }
func (OptChat) Type() FieldType      { return OptChatType }
func (Slot) Type() FieldType         { return SlotType }
func (Boolean) Type() FieldType      { return BooleanType }
func (Rotation) Type() FieldType     { return RotationType }
func (Position) Type() FieldType     { return PositionType }
func (OptPosition) Type() FieldType  { return OptPositionType }
func (Direction) Type() FieldType    { return DirectionType }
func (OptUUID) Type() FieldType      { return OptUUIDType }
func (OptBlockID) Type() FieldType   { return OptBlockIDType }
func (NBT) Type() FieldType          { return NBTType }
func (Particle) Type() FieldType     { return ParticleType }
func (VillagerData) Type() FieldType { return VillagerDataType }
func (OptVarInt) Type() FieldType    { return OptVarIntType }
func (Pose) Type() FieldType         { return PoseType }

func (Byte) validate() error     { return nil }
func (VarInt) validate() error   { return nil }
func (Float) validate() error    { return nil }
func (Boolean) validate() error  { return nil }
func (Rotation) validate() error { return nil }
func (OptUUID) validate() error  { return nil }
func (NBT) validate() error      { return nil }

func (v String) validate() error { return util.ValidateString(string(v)) }
func (v Chat) validate() error   { return validateChat(string(v)) }
func (v Slot) validate() error   { return v.Item.Validate() }

func (v OptChat) validate() error {
	if v.Chat == nil {
		return nil
	}
	return validateChat(*v.Chat)
}

func validateChat(s string) error {
	if err := util.ValidateString(s); err != nil {
		return err
	}
	if !json.Valid([]byte(s)) {
		return util.NewDomainError("Chat", s, "not a JSON text component")
	}
	return nil
}

func (v Position) validate() error { return util.Position(v).Validate() }

func (v OptPosition) validate() error {
	if v.Position == nil {
		return nil
	}
	return v.Position.Validate()
}

func (v Direction) validate() error {
	if !v.Valid() {
		return util.NewDomainError("Direction", int32(v), "unknown direction")
	}
	return nil
}

func (v Pose) validate() error {
	if !v.Valid() {
		return util.NewDomainError("Pose", int32(v), "unknown pose")
	}
	return nil
}

func (v OptBlockID) validate() error { return validateOffByOne("OptBlockID", v.ID) }
func (v OptVarInt) validate() error  { return validateOffByOne("OptVarInt", v.Value) }

// Present values are sent as v+1, so they must be non-negative and leave room for the increment.
func validateOffByOne(typ string, v *int32) error {
	if v != nil && (*v < 0 || *v == 1<<31-1) {
		return util.NewDomainError(typ, *v, "out of range [0, %d]", 1<<31-2)
	}
	return nil
}

func (v Particle) validate() error { return particle.Validate(v.Particle) }

func (v VillagerData) validate() error {
	switch {
	case !v.Kind.Valid():
		return util.NewDomainError("VillagerData", v, "unknown villager type %d", int32(v.Kind))
	case !v.Profession.Valid():
		return util.NewDomainError("VillagerData", v, "unknown profession %d", int32(v.Profession))
	case v.Level < 0 || v.Level > MaxVillagerLevel:
		return util.NewDomainError("VillagerData", v, "level must be in [0, %d]", MaxVillagerLevel)
	}
	return nil
}

func (v Byte) write(w *util.PWriter)    { w.Uint8(uint8(v)) }
func (v VarInt) write(w *util.PWriter)  { w.VarInt(int(v)) }
func (v Float) write(w *util.PWriter)   { w.Float32(float32(v)) }
func (v String) write(w *util.PWriter)  { w.String(string(v)) }
func (v Chat) write(w *util.PWriter)    { w.String(string(v)) }
func (v Boolean) write(w *util.PWriter) { w.Bool(bool(v)) }

func (v OptChat) write(w *util.PWriter) {
	w.Bool(v.Chat != nil)
	if v.Chat != nil {
		w.String(*v.Chat)
	}
}

func (v Slot) write(w *util.PWriter) {
	w.Func(func(wr io.Writer) error { return item.Write(wr, v.Item) })
}

func (v Rotation) write(w *util.PWriter) {
	w.Float32(v.X)
	w.Float32(v.Y)
	w.Float32(v.Z)
}

func (v Position) write(w *util.PWriter) { w.Position(util.Position(v)) }

func (v OptPosition) write(w *util.PWriter) {
	w.Bool(v.Position != nil)
	if v.Position != nil {
		w.Position(*v.Position)
	}
}

func (v Direction) write(w *util.PWriter) { w.VarInt(int(v)) }

func (v OptUUID) write(w *util.PWriter) {
	w.Bool(v.UUID != nil)
	if v.UUID != nil {
		w.UUID(*v.UUID)
	}
}

func (v OptBlockID) write(w *util.PWriter) { writeOffByOne(w, v.ID) }
func (v OptVarInt) write(w *util.PWriter)  { writeOffByOne(w, v.Value) }

func writeOffByOne(w *util.PWriter, v *int32) {
	if v == nil {
		w.VarInt(0)
		return
	}
	w.VarInt(int(*v) + 1)
}

func (v NBT) write(w *util.PWriter) {
	w.Func(func(wr io.Writer) error { return util.WriteNBT(wr, util.NBT(v)) })
}

func (v Particle) write(w *util.PWriter) {
	w.Func(func(wr io.Writer) error { return particle.Write(wr, v.Particle) })
}

func (v VillagerData) write(w *util.PWriter) {
	w.VarInt(int(v.Kind))
	w.VarInt(int(v.Profession))
	w.VarInt(v.Level)
}

func (v Pose) write(w *util.PWriter) { w.VarInt(int(v)) }

// readValue reads the value of type t.
func readValue(r *util.PReader, t FieldType) Value {
	switch t {
	case ByteType:
		var b uint8
		r.Uint8(&b)
		return Byte(int8(b))
	case VarIntType:
		var v int
		r.VarInt(&v)
		return VarInt(v)
	case FloatType:
		var f float32
		r.Float32(&f)
		return Float(f)
	case StringType:
		var s string
		r.String(&s)
		return String(s)
	case ChatType:
		var s string
		r.String(&s)
		return Chat(s)
	case OptChatType:
		var v OptChat
		if readPresent(r) {
			v.Chat = new(string)
			r.String(v.Chat)
		}
		return v
	case SlotType:
		var v Slot
		r.Func(func(rd io.Reader) (err error) {
			v.Item, err = item.Read(rd)
			return err
		})
		return v
	case BooleanType:
		var b bool
		r.Bool(&b)
		return Boolean(b)
	case RotationType:
		var v Rotation
		r.Float32(&v.X)
		r.Float32(&v.Y)
		r.Float32(&v.Z)
		return v
	case PositionType:
		var p util.Position
		r.Position(&p)
		return Position(p)
	case OptPositionType:
		var v OptPosition
		if readPresent(r) {
			v.Position = new(util.Position)
			r.Position(v.Position)
		}
		return v
	case DirectionType:
		return Direction(readInt32(r))
	case OptUUIDType:
		var v OptUUID
		if readPresent(r) {
			v.UUID = new(uuid.UUID)
			r.UUID(v.UUID)
		}
		return v
	case OptBlockIDType:
		return OptBlockID{ID: readOffByOne(r)}
	case NBTType:
		var v NBT
		r.Func(func(rd io.Reader) error {
			tag, err := util.ReadNBT(rd)
			v = NBT(tag)
			return err
		})
		return v
	case ParticleType:
		var v Particle
		r.Func(func(rd io.Reader) (err error) {
			v.Particle, err = particle.Read(rd)
			return err
		})
		return v
	case VillagerDataType:
		var v VillagerData
		v.Kind = VillagerType(readInt32(r))
		v.Profession = Profession(readInt32(r))
		r.VarInt(&v.Level)
		return v
	case OptVarIntType:
		return OptVarInt{Value: readOffByOne(r)}
	case PoseType:
		return Pose(readInt32(r))
	}
	return nil
}

func readPresent(r *util.PReader) (present bool) {
	r.Bool(&present)
	return
}

func readInt32(r *util.PReader) int32 {
	var v int
	r.VarInt(&v)
	return int32(v)
}

func readOffByOne(r *util.PReader) *int32 {
	v := readInt32(r)
	if v == 0 {
		return nil
	}
	v--
	return &v
}
