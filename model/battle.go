package model

import "time"

// Battle statuses.
const (
	BattleActive  = "active"
	BattleVictory = "victory"
	BattleDefeat  = "defeat"
	BattleFled    = "fled"
)

// Turn owners.
const (
	TurnPlayer  = "player"
	TurnMonster = "monster"
)

// Combatant is a stat snapshot taken when a battle starts. Reward and
// Difficulty are only meaningful for the monster side.
type Combatant struct {
	Name       string `gorm:"size:64" json:"name"`
	HP         int    `json:"hp"`
	MaxHP      int    `json:"max_hp"`
	Attack     int    `json:"attack"`
	Defense    int    `json:"defense"`
	Level      int    `json:"level,omitempty"`
	Reward     int64  `json:"reward,omitempty"`
	Difficulty int    `json:"difficulty,omitempty"`
}

// Battle is one fight between a player and a monster.
type Battle struct {
	ID         string     `gorm:"primaryKey;size:160" json:"id"`
	PlayerKey  string     `gorm:"index:idx_battle_player;size:128;not null" json:"player_key"`
	MonsterKey string     `gorm:"size:64" json:"monster_key"`
	Player     Combatant  `gorm:"embedded;embeddedPrefix:player_" json:"player"`
	Monster    Combatant  `gorm:"embedded;embeddedPrefix:monster_" json:"monster"`
	Turn       string     `gorm:"size:16" json:"turn"`
	Log        []string   `gorm:"serializer:json;type:text" json:"log"`
	Status     string     `gorm:"index;size:16" json:"status"`
	StartedAt  time.Time  `gorm:"index:idx_battle_player" json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

// Terminal reports whether the battle has reached victory, defeat or fled.
func (b *Battle) Terminal() bool { return b.Status != BattleActive }
