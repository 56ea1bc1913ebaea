package battle

import (
	"github.com/kasuganosora/textrpg/game/progression"
	"github.com/kasuganosora/textrpg/model"
)

// Reward is what a victory paid out.
type Reward struct {
	Gold    int64                `json:"gold"`
	Exp     int64                `json:"exp"`
	LevelUp *progression.LevelUp `json:"level_up,omitempty"`
}

// AttackResult is the outcome of one attack action: the player's hit and,
// unless the monster fell, its automatic counter-attack.
type AttackResult struct {
	Battle        *model.Battle `json:"battle"`
	PlayerDamage  int           `json:"player_damage"`
	MonsterDamage int           `json:"monster_damage"`
	// Retaliated is false when the player's hit ended the battle.
	Retaliated bool     `json:"retaliated"`
	Lines      []string `json:"lines"`
	Reward     *Reward  `json:"reward,omitempty"`
}

// Status is the outcome of the action, one of the model.Battle* values.
func (r *AttackResult) Status() string { return r.Battle.Status }

// Ended reports whether the attack finished the battle.
func (r *AttackResult) Ended() bool { return r.Battle.Terminal() }

// StatusView is an active battle as shown to its player.
type StatusView struct {
	*model.Battle
	PlayerTurn bool `json:"player_turn"`
}
