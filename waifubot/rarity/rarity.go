package rarity

import "fmt"

// Tier is a card rarity level in the range [MinTier, MaxTier].
type Tier int

const (
	MinTier Tier = 1
	MaxTier Tier = 16

	// Tiers above MaxSpawnTier are premium and never appear as group spawns.
	MinSpawnTier Tier = 1
	MaxSpawnTier Tier = 13

	// VideoTier cards carry video media instead of an image.
	VideoTier Tier = 16

	FallbackPrice int64 = 5000
)

type info struct {
	name  string
	price int64
}

var tiers = map[Tier]info{
	1:  {"Common ⚪", 20000},
	2:  {"Rare 🟢", 20000},
	3:  {"Normal 🟣", 40000},
	4:  {"Legendary 🟡", 50000},
	5:  {"Summer 🏖", 400000},
	6:  {"Winter ❄️", 600000},
	7:  {"Valentine 💕", 300000},
	8:  {"Manga ✨", 20000},
	9:  {"Unique 👑", 400000},
	10: {"Neon 💫", 700000},
	11: {"Celestial 🪽", 800000},
	12: {"Mythical 🪭", 900000},
	13: {"Special 🫧", 1000000},
	14: {"Masterpiece 💸", 1200000},
	15: {"Limited 🔮", 1300000},
	16: {"AMV 🎥", 1400000},
}

// Range is an inclusive span of tiers.
type Range struct {
	Min Tier
	Max Tier
}

// SpawnRange is the span group spawns are drawn from.
var SpawnRange = Range{Min: MinSpawnTier, Max: MaxSpawnTier}

func (r Range) Contains(t Tier) bool {
	return t >= r.Min && t <= r.Max
}

func (r Range) String() string {
	return fmt.Sprintf("%d..%d", r.Min, r.Max)
}

func Valid(t Tier) bool {
	_, ok := tiers[t]
	return ok
}

// Name returns the display name of a tier, or "Unknown".
func Name(t Tier) string {
	if i, ok := tiers[t]; ok {
		return i.name
	}
	return "Unknown"
}

// Price returns the bazaar price of a tier, falling back to FallbackPrice.
func Price(t Tier) int64 {
	if i, ok := tiers[t]; ok {
		return i.price
	}
	return FallbackPrice
}

// All returns every tier in ascending order.
func All() []Tier {
	out := make([]Tier, 0, len(tiers))
	for t := MinTier; t <= MaxTier; t++ {
		out = append(out, t)
	}
	return out
}
