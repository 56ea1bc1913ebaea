package model

import "time"

// Player is a registered participant. Key is the opaque identity supplied by
// the chat transport (for example a phone JID).
type Player struct {
	Key          string     `gorm:"primaryKey;column:player_key;size:128" json:"key"`
	Name         string     `gorm:"size:64;not null" json:"name"`
	Level        int        `gorm:"index:idx_player_rank,priority:1;default:1" json:"level"`
	HP           int        `gorm:"not null" json:"hp"`
	MaxHP        int        `gorm:"not null" json:"max_hp"`
	Attack       int        `gorm:"not null" json:"attack"`
	Defense      int        `gorm:"not null" json:"defense"`
	Exp          int64      `gorm:"index:idx_player_rank,priority:2;default:0" json:"exp"`
	Gold         int64      `gorm:"default:0" json:"gold"`
	BattlesWon   int        `gorm:"default:0" json:"battles_won"`
	BattlesLost  int        `gorm:"default:0" json:"battles_lost"`
	DailyBattles int        `gorm:"default:0" json:"daily_battles"`
	LastBattleAt *time.Time `json:"last_battle_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Alive reports whether the player can still fight.
func (p *Player) Alive() bool { return p.HP > 0 }
