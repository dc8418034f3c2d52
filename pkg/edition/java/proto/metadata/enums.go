package metadata

import "fmt"

// FieldType is the type tag of a metadata value.
type FieldType int32

const (
	ByteType FieldType = iota
	VarIntType
	FloatType
	StringType
	ChatType
	OptChatType
	SlotType
	BooleanType
	RotationType
	PositionType
	OptPositionType
	DirectionType
	OptUUIDType
	OptBlockIDType
	NBTType
	ParticleType
	VillagerDataType
	OptVarIntType
	PoseType
)

var fieldTypeNames = [...]string{
	"Byte", "VarInt", "Float", "String", "Chat", "OptChat", "Slot", "Boolean",
	"Rotation", "Position", "OptPosition", "Direction", "OptUUID", "OptBlockID",
	"NBT", "Particle", "VillagerData", "OptVarInt", "Pose",
}

func (t FieldType) Valid() bool { return t >= 0 && int(t) < len(fieldTypeNames) }

func (t FieldType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("FieldType(%d)", int32(t))
	}
	return fieldTypeNames[t]
}

// Direction is a block face.
type Direction int32

const (
	Down Direction = iota
	Up
	North
	South
	West
	East
)

var directionNames = [...]string{"down", "up", "north", "south", "west", "east"}

func (d Direction) Valid() bool { return d >= 0 && int(d) < len(directionNames) }

func (d Direction) String() string { return enumName(directionNames[:], int32(d)) }

// VillagerType is the biome variant of a villager.
type VillagerType int32

const (
	Desert VillagerType = iota
	Jungle
	Plains
	Savanna
	Snow
	Swamp
	Taiga
)

var villagerTypeNames = [...]string{"desert", "jungle", "plains", "savanna", "snow", "swamp", "taiga"}

func (v VillagerType) Valid() bool { return v >= 0 && int(v) < len(villagerTypeNames) }

func (v VillagerType) String() string { return enumName(villagerTypeNames[:], int32(v)) }

// Identifier returns the registry key, e.g. minecraft:plains.
func (v VillagerType) Identifier() string { return "minecraft:" + v.String() }

// Profession is the job of a villager.
type Profession int32

const (
	NoProfession Profession = iota
	Armorer
	Butcher
	Cartographer
	Cleric
	Farmer
	Fisherman
	Fletcher
	Leatherworker
	Librarian
	Mason
	Nitwit
	Shepherd
	Toolsmith
	Weaponsmith
)

var professionNames = [...]string{
	"none", "armorer", "butcher", "cartographer", "cleric", "farmer", "fisherman", "fletcher",
	"leatherworker", "librarian", "mason", "nitwit", "shepherd", "toolsmith", "weaponsmith",
}

func (p Profession) Valid() bool { return p >= 0 && int(p) < len(professionNames) }

func (p Profession) String() string { return enumName(professionNames[:], int32(p)) }

// Identifier returns the registry key, e.g. minecraft:librarian.
func (p Profession) Identifier() string { return "minecraft:" + p.String() }

// Pose is the body pose of an entity.
type Pose int32

const (
	Standing Pose = iota
	FallFlying
	Sleeping
	Swimming
	SpinAttack
	Sneaking
	LongJumping
	Dying
)

var poseNames = [...]string{
	"standing", "fall_flying", "sleeping", "swimming", "spin_attack", "sneaking", "long_jumping", "dying",
}

func (p Pose) Valid() bool { return p >= 0 && int(p) < len(poseNames) }

func (p Pose) String() string { return enumName(poseNames[:], int32(p)) }

func enumName(names []string, v int32) string {
	if v < 0 || int(v) >= len(names) {
		return fmt.Sprintf("unknown(%d)", v)
	}
	return names[v]
}
