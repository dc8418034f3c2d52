package particle

import "fmt"

// ID identifies a particle type.
type ID int32

// Particle ids of protocol 756.
const (
	AmbientEntityEffectID ID = iota
	AngryVillagerID
	BarrierID
	LightID
	BlockID
	BubbleID
	CloudID
	CritID
	DamageIndicatorID
	DragonBreathID
	DrippingLavaID
	FallingLavaID
	LandingLavaID
	DrippingWaterID
	FallingWaterID
	DustID
	DustColorTransitionID
	EffectID
	ElderGuardianID
	EnchantedHitID
	EnchantID
	EndRodID
	EntityEffectID
	ExplosionEmitterID
	ExplosionID
	FallingDustID
	FireworkID
	FishingID
	FlameID
	SoulFireFlameID
	SoulID
	FlashID
	HappyVillagerID
	ComposterID
	HeartID
	InstantEffectID
	ItemID
	VibrationID
	ItemSlimeID
	ItemSnowballID
	LargeSmokeID
	LavaID
	MyceliumID
	NoteID
	PoofID
	PortalID
	RainID
	SmokeID
	SneezeID
	SpitID
	SquidInkID
	SweepAttackID
	TotemOfUndyingID
	UnderwaterID
	SplashID
	WitchID
	BubblePopID
	CurrentDownID
	BubbleColumnUpID
	NautilusID
	DolphinID
	CampfireCosySmokeID
	CampfireSignalSmokeID
	DrippingHoneyID
	FallingHoneyID
	LandingHoneyID
	FallingNectarID
	FallingSporeBlossomID
	AshID
	CrimsonSporeID
	WarpedSporeID
	SporeBlossomAirID
	DrippingObsidianTearID
	FallingObsidianTearID
	LandingObsidianTearID
	ReversePortalID
	WhiteAshID
	SmallFlameID
	SnowflakeID
	DrippingDripstoneLavaID
	FallingDripstoneLavaID
	DrippingDripstoneWaterID
	FallingDripstoneWaterID
	GlowSquidInkID
	GlowID
	WaxOnID
	WaxOffID
	ElectricSparkID
	ScrapeID
)

const lastID = ScrapeID

var names = [...]string{
	AmbientEntityEffectID:    "ambient_entity_effect",
	AngryVillagerID:          "angry_villager",
	BarrierID:                "barrier",
	LightID:                  "light",
	BlockID:                  "block",
	BubbleID:                 "bubble",
	CloudID:                  "cloud",
	CritID:                   "crit",
	DamageIndicatorID:        "damage_indicator",
	DragonBreathID:           "dragon_breath",
	DrippingLavaID:           "dripping_lava",
	FallingLavaID:            "falling_lava",
	LandingLavaID:            "landing_lava",
	DrippingWaterID:          "dripping_water",
	FallingWaterID:           "falling_water",
	DustID:                   "dust",
	DustColorTransitionID:    "dust_color_transition",
	EffectID:                 "effect",
	ElderGuardianID:          "elder_guardian",
	EnchantedHitID:           "enchanted_hit",
	EnchantID:                "enchant",
	EndRodID:                 "end_rod",
	EntityEffectID:           "entity_effect",
	ExplosionEmitterID:       "explosion_emitter",
	ExplosionID:              "explosion",
	FallingDustID:            "falling_dust",
	FireworkID:               "firework",
	FishingID:                "fishing",
	FlameID:                  "flame",
	SoulFireFlameID:          "soul_fire_flame",
	SoulID:                   "soul",
	FlashID:                  "flash",
	HappyVillagerID:          "happy_villager",
	ComposterID:              "composter",
	HeartID:                  "heart",
	InstantEffectID:          "instant_effect",
	ItemID:                   "item",
	VibrationID:              "vibration",
	ItemSlimeID:              "item_slime",
	ItemSnowballID:           "item_snowball",
	LargeSmokeID:             "large_smoke",
	LavaID:                   "lava",
	MyceliumID:               "mycelium",
	NoteID:                   "note",
	PoofID:                   "poof",
	PortalID:                 "portal",
	RainID:                   "rain",
	SmokeID:                  "smoke",
	SneezeID:                 "sneeze",
	SpitID:                   "spit",
	SquidInkID:               "squid_ink",
	SweepAttackID:            "sweep_attack",
	TotemOfUndyingID:         "totem_of_undying",
	UnderwaterID:             "underwater",
	SplashID:                 "splash",
	WitchID:                  "witch",
	BubblePopID:              "bubble_pop",
	CurrentDownID:            "current_down",
	BubbleColumnUpID:         "bubble_column_up",
	NautilusID:               "nautilus",
	DolphinID:                "dolphin",
	CampfireCosySmokeID:      "campfire_cosy_smoke",
	CampfireSignalSmokeID:    "campfire_signal_smoke",
	DrippingHoneyID:          "dripping_honey",
	FallingHoneyID:           "falling_honey",
	LandingHoneyID:           "landing_honey",
	FallingNectarID:          "falling_nectar",
	FallingSporeBlossomID:    "falling_spore_blossom",
	AshID:                    "ash",
	CrimsonSporeID:           "crimson_spore",
	WarpedSporeID:            "warped_spore",
	SporeBlossomAirID:        "spore_blossom_air",
	DrippingObsidianTearID:   "dripping_obsidian_tear",
	FallingObsidianTearID:    "falling_obsidian_tear",
	LandingObsidianTearID:    "landing_obsidian_tear",
	ReversePortalID:          "reverse_portal",
	WhiteAshID:               "white_ash",
	SmallFlameID:             "small_flame",
	SnowflakeID:              "snowflake",
	DrippingDripstoneLavaID:  "dripping_dripstone_lava",
	FallingDripstoneLavaID:   "falling_dripstone_lava",
	DrippingDripstoneWaterID: "dripping_dripstone_water",
	FallingDripstoneWaterID:  "falling_dripstone_water",
	GlowSquidInkID:           "glow_squid_ink",
	GlowID:                   "glow",
	WaxOnID:                  "wax_on",
	WaxOffID:                 "wax_off",
	ElectricSparkID:          "electric_spark",
	ScrapeID:                 "scrape",
}

// Valid reports whether id is a known particle id.
func (id ID) Valid() bool { return id >= 0 && id <= lastID }

// HasPayload reports whether particles of this id carry data after the id.
func (id ID) HasPayload() bool {
	switch id {
	case BlockID, DustID, DustColorTransitionID, FallingDustID, ItemID, VibrationID:
		return true
	}
	return false
}

// Identifier returns the namespaced registry key, e.g. minecraft:flame.
func (id ID) Identifier() string {
	if !id.Valid() {
		return fmt.Sprintf("minecraft:unknown_%d", int32(id))
	}
	return "minecraft:" + names[id]
}

func (id ID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("ID(%d)", int32(id))
	}
	return names[id]
}
