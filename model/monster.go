package model

// Monster is an immutable catalog entry a player can battle.
type Monster struct {
	Key        string `gorm:"primaryKey;column:monster_key;size:64" json:"key"`
	Name       string `gorm:"size:64;not null" json:"name"`
	HP         int    `gorm:"not null" json:"hp"`
	Attack     int    `gorm:"not null" json:"attack"`
	Defense    int    `gorm:"not null" json:"defense"`
	Reward     int64  `gorm:"not null" json:"reward"`
	Difficulty int    `gorm:"not null;default:1" json:"difficulty"`
}

// DefaultMonsters is the catalog seeded into an empty database.
func DefaultMonsters() []Monster {
	return []Monster{
		{Key: "goblin", Name: "Goblin", HP: 50, Attack: 15, Defense: 5, Reward: 20, Difficulty: 1},
		{Key: "skeleton", Name: "Skeleton", HP: 60, Attack: 20, Defense: 8, Reward: 35, Difficulty: 1},
		{Key: "orc", Name: "Orc", HP: 80, Attack: 25, Defense: 10, Reward: 50, Difficulty: 2},
		{Key: "wizard", Name: "Dark Wizard", HP: 120, Attack: 40, Defense: 15, Reward: 100, Difficulty: 3},
		{Key: "dragon", Name: "Dragon", HP: 200, Attack: 50, Defense: 25, Reward: 200, Difficulty: 5},
	}
}
