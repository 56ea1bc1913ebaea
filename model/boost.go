package model

// PlayerBoost is a temporary modifier with a remaining-use counter. A player
// holds at most one boost per kind.
type PlayerBoost struct {
	ID        int64   `gorm:"primaryKey;autoIncrement" json:"-"`
	PlayerKey string  `gorm:"uniqueIndex:idx_boost_player_kind;size:128;not null" json:"-"`
	Kind      string  `gorm:"uniqueIndex:idx_boost_player_kind;size:32;not null" json:"kind"`
	Value     float64 `gorm:"not null" json:"value"`
	Uses      int     `gorm:"not null" json:"uses"`
}
