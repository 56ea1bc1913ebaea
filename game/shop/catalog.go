package shop

import "github.com/kasuganosora/textrpg/game/boost"

// Item kinds, in catalog display order.
const (
	KindConsumable = "consumable"
	KindBoost      = "boost"
	KindUpgrade    = "upgrade"
	KindSpecial    = "special"
)

// Kinds lists the item kinds in display order.
var Kinds = []string{KindConsumable, KindBoost, KindUpgrade, KindSpecial}

// Effect is what an item does. Only the fields relevant to the item's kind
// are set.
type Effect struct {
	// consumable
	Heal     int  `json:"heal,omitempty"`
	FullHeal bool `json:"full_heal,omitempty"`

	// boost
	Boost      string  `json:"boost,omitempty"`
	BoostValue float64 `json:"boost_value,omitempty"`
	Uses       int     `json:"uses,omitempty"`

	// upgrade
	MaxHP   int `json:"max_hp,omitempty"`
	Attack  int `json:"attack,omitempty"`
	Defense int `json:"defense,omitempty"`

	// special
	ResetBattles bool `json:"reset_battles,omitempty"`
}

// Item is a catalog entry.
type Item struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Kind        string `json:"kind"`
	Effect      Effect `json:"effect"`
}

var catalog = []Item{
	{Key: "potion", Name: "Health Potion", Description: "Restores 50 HP", Price: 30,
		Kind: KindConsumable, Effect: Effect{Heal: 50}},
	{Key: "super_potion", Name: "Super Health Potion", Description: "Restores 100 HP", Price: 60,
		Kind: KindConsumable, Effect: Effect{Heal: 100}},
	{Key: "full_heal", Name: "Full Heal", Description: "Restores HP to full", Price: 100,
		Kind: KindConsumable, Effect: Effect{FullHeal: true}},

	{Key: "attack_boost", Name: "Attack Boost", Description: "+10 Attack for 3 attacks", Price: 80,
		Kind: KindBoost, Effect: Effect{Boost: boost.KindAttack, BoostValue: 10, Uses: 3}},
	{Key: "defense_boost", Name: "Defense Boost", Description: "+10 Defense for 3 attacks", Price: 80,
		Kind: KindBoost, Effect: Effect{Boost: boost.KindDefense, BoostValue: 10, Uses: 3}},
	{Key: "exp_boost", Name: "EXP Boost", Description: "2x EXP for 5 attacks", Price: 150,
		Kind: KindBoost, Effect: Effect{Boost: boost.KindExpMultiplier, BoostValue: 2, Uses: 5}},
	{Key: "lucky_charm", Name: "Lucky Charm", Description: "+50% battle gold for 5 attacks", Price: 300,
		Kind: KindBoost, Effect: Effect{Boost: boost.KindGoldMultiplier, BoostValue: 1.5, Uses: 5}},

	{Key: "hp_upgrade", Name: "HP Upgrade", Description: "Permanent +20 Max HP", Price: 200,
		Kind: KindUpgrade, Effect: Effect{MaxHP: 20}},
	{Key: "attack_upgrade", Name: "Attack Upgrade", Description: "Permanent +5 Attack", Price: 250,
		Kind: KindUpgrade, Effect: Effect{Attack: 5}},
	{Key: "defense_upgrade", Name: "Defense Upgrade", Description: "Permanent +5 Defense", Price: 250,
		Kind: KindUpgrade, Effect: Effect{Defense: 5}},

	{Key: "battle_reset", Name: "Battle Reset", Description: "Resets today's battle limit", Price: 500,
		Kind: KindSpecial, Effect: Effect{ResetBattles: true}},
}

var byKey = func() map[string]Item {
	m := make(map[string]Item, len(catalog))
	for _, it := range catalog {
		m[it.Key] = it
	}
	return m
}()

// Catalog returns every item grouped by kind in display order.
func Catalog() []Item {
	out := make([]Item, len(catalog))
	copy(out, catalog)
	return out
}

// ByKind returns the items of one kind.
func ByKind(kind string) []Item {
	var out []Item
	for _, it := range catalog {
		if it.Kind == kind {
			out = append(out, it)
		}
	}
	return out
}

// Lookup finds an item by key.
func Lookup(key string) (Item, bool) {
	it, ok := byKey[key]
	return it, ok
}
