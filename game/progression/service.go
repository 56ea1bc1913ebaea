// Package progression owns every mutation of a player's long-term state:
// registration, experience and levels, gold, healing, permanent upgrades and
// the daily battle quota.
package progression

import (
	"context"
	"errors"
	"time"

	"github.com/kasuganosora/textrpg/config"
	"github.com/kasuganosora/textrpg/game/gameerr"
	"github.com/kasuganosora/textrpg/model"
	"github.com/kasuganosora/textrpg/store"
	"go.uber.org/zap"
)

var (
	ErrPlayerNotFound   = gameerr.New(gameerr.NotFound, "PLAYER_NOT_FOUND", "player not found")
	ErrInvalidPlayerKey = gameerr.New(gameerr.InvalidInput, "INVALID_PLAYER_KEY", "player key is required")
	ErrInvalidAmount    = gameerr.New(gameerr.InvalidInput, "INVALID_AMOUNT", "amount must not be negative")
	ErrHPFull           = gameerr.New(gameerr.PreconditionFailed, "HP_FULL", "HP is already full")
	ErrInsufficientGold = gameerr.New(gameerr.PreconditionFailed, "INSUFFICIENT_GOLD", "not enough gold")
)

// DefaultName is used when the transport supplies no display name.
const DefaultName = "Player"

// Ranker receives player snapshots whenever experience changes.
type Ranker interface {
	Record(ctx context.Context, p *model.Player)
}

// Stats is a player plus the derived values shown on the profile.
type Stats struct {
	*model.Player
	ExpToNextLevel   int64 `json:"exp_to_next_level"`
	BattlesRemaining int   `json:"battles_remaining"`
	DailyBattleCap   int   `json:"daily_battle_cap"`
}

// LevelUp reports the outcome of an experience grant.
type LevelUp struct {
	Leveled   bool          `json:"leveled"`
	OldLevel  int           `json:"old_level"`
	NewLevel  int           `json:"new_level"`
	ExpGained int64         `json:"exp_gained"`
	HPGain    int           `json:"hp_gain,omitempty"`
	AtkGain   int           `json:"atk_gain,omitempty"`
	DefGain   int           `json:"def_gain,omitempty"`
	Player    *model.Player `json:"-"`
}

// Upgrade is a permanent stat increase.
type Upgrade struct {
	MaxHP   int
	Attack  int
	Defense int
}

// Service implements player progression.
type Service struct {
	players store.Players
	ranker  Ranker
	cfg     config.GameConfig
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger
}

// NewService creates a progression Service. ranker may be nil.
func NewService(players store.Players, ranker Ranker, cfg config.GameConfig, logger *zap.Logger) *Service {
	if cfg.ExpPerLevel <= 0 {
		cfg.ExpPerLevel = config.DefaultGame().ExpPerLevel
	}
	return &Service{
		players: players,
		ranker:  ranker,
		cfg:     cfg,
		loc:     cfg.Location(),
		now:     time.Now,
		logger:  logger,
	}
}

// SetClock replaces the time source used for the daily quota.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Config returns the balance values in effect.
func (s *Service) Config() config.GameConfig { return s.cfg }

// Register returns the player, creating it with starting stats on first use.
func (s *Service) Register(ctx context.Context, key, name string) (*model.Player, bool, error) {
	if key == "" {
		return nil, false, ErrInvalidPlayerKey
	}
	p, err := s.players.Get(ctx, key)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	if name == "" {
		name = DefaultName
	}
	p = &model.Player{
		Key:     key,
		Name:    name,
		Level:   1,
		HP:      s.cfg.StartHP,
		MaxHP:   s.cfg.StartHP,
		Attack:  s.cfg.StartAtk,
		Defense: s.cfg.StartDef,
		Gold:    s.cfg.StartGold,
	}
	if err := s.players.Create(ctx, p); err != nil {
		return nil, false, err
	}
	s.logger.Info("player registered", zap.String("player", key), zap.String("name", name))
	if s.ranker != nil {
		s.ranker.Record(ctx, p)
	}
	return p, true, nil
}

// Get loads a player.
func (s *Service) Get(ctx context.Context, key string) (*model.Player, error) {
	p, err := s.players.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPlayerNotFound
	}
	return p, err
}

// Stats loads a player with derived profile values. It does not reset the
// daily counter; a stale counter simply reads as a full quota.
func (s *Service) Stats(ctx context.Context, key string) (*Stats, error) {
	p, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	used := p.DailyBattles
	if p.LastBattleAt == nil || !s.sameDay(*p.LastBattleAt, s.now()) {
		used = 0
	}
	remaining := s.cfg.DailyBattleCap - used
	if remaining < 0 {
		remaining = 0
	}
	return &Stats{
		Player:           p,
		ExpToNextLevel:   s.cfg.ExpPerLevel - p.Exp%s.cfg.ExpPerLevel,
		BattlesRemaining: remaining,
		DailyBattleCap:   s.cfg.DailyBattleCap,
	}, nil
}

// CanAttemptBattle reports whether the player may start another battle
// today. When the last attempt falls on an earlier calendar day, or there
// was none, the counter is reset to zero and the attempt date stamped as a
// side effect.
func (s *Service) CanAttemptBattle(ctx context.Context, key string) (bool, error) {
	p, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	now := s.now()
	if p.LastBattleAt == nil || !s.sameDay(*p.LastBattleAt, now) {
		if _, err := s.players.Update(ctx, key, map[string]interface{}{
			"daily_battles":  0,
			"last_battle_at": now,
		}); err != nil {
			return false, err
		}
		s.logger.Debug("daily battles reset", zap.String("player", key))
		return true, nil
	}
	return p.DailyBattles < s.cfg.DailyBattleCap, nil
}

// GrantExperience adds experience and recomputes the level as
// exp/ExpPerLevel + 1. Crossing one or more level boundaries in a single
// grant applies the level-up bonus once, fully healing to the new max HP.
// With StatBonusPerLevel the bonus is multiplied by the levels gained.
func (s *Service) GrantExperience(ctx context.Context, key string, amount int64) (*LevelUp, error) {
	if amount < 0 {
		return nil, ErrInvalidAmount
	}
	p, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	newExp := p.Exp + amount
	newLevel := int(newExp/s.cfg.ExpPerLevel) + 1
	if newLevel < p.Level {
		newLevel = p.Level
	}
	res := &LevelUp{
		Leveled:   newLevel > p.Level,
		OldLevel:  p.Level,
		NewLevel:  newLevel,
		ExpGained: amount,
	}

	fields := map[string]interface{}{
		"exp":   newExp,
		"level": newLevel,
	}
	if res.Leveled {
		times := 1
		if s.cfg.StatBonusPerLevel {
			times = newLevel - p.Level
		}
		res.HPGain = s.cfg.LevelUpHP * times
		res.AtkGain = s.cfg.LevelUpAtk * times
		res.DefGain = s.cfg.LevelUpDef * times
		maxHP := p.MaxHP + res.HPGain
		fields["max_hp"] = maxHP
		fields["hp"] = maxHP
		fields["attack"] = p.Attack + res.AtkGain
		fields["defense"] = p.Defense + res.DefGain
	}

	updated, err := s.players.Update(ctx, key, fields)
	if err != nil {
		return nil, err
	}
	res.Player = updated
	if res.Leveled {
		s.logger.Info("player leveled up",
			zap.String("player", key),
			zap.Int("from", res.OldLevel),
			zap.Int("to", res.NewLevel))
	}
	if s.ranker != nil {
		s.ranker.Record(ctx, updated)
	}
	return res, nil
}

// AdjustCurrency adds delta to the balance. A delta that would leave the
// balance negative fails with ErrInsufficientGold.
func (s *Service) AdjustCurrency(ctx context.Context, key string, delta int64) (*model.Player, error) {
	p, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if p.Gold+delta < 0 {
		return nil, ErrInsufficientGold
	}
	return s.players.Update(ctx, key, map[string]interface{}{"gold": p.Gold + delta})
}

// SpendCurrency deducts amount if the balance covers it. It returns false and
// changes nothing otherwise.
func (s *Service) SpendCurrency(ctx context.Context, key string, amount int64) (bool, error) {
	if amount < 0 {
		return false, ErrInvalidAmount
	}
	p, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if p.Gold < amount {
		return false, nil
	}
	if _, err := s.players.Update(ctx, key, map[string]interface{}{"gold": p.Gold - amount}); err != nil {
		return false, err
	}
	return true, nil
}

// Heal restores HP to max for the configured gold cost.
func (s *Service) Heal(ctx context.Context, key string) (*model.Player, error) {
	p, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if p.HP >= p.MaxHP {
		return nil, ErrHPFull
	}
	if p.Gold < s.cfg.HealCost {
		return nil, ErrInsufficientGold
	}
	return s.players.Update(ctx, key, map[string]interface{}{
		"hp":   p.MaxHP,
		"gold": p.Gold - s.cfg.HealCost,
	})
}

// Restore heals by amount, or to max when full is set, without charging.
// It returns the HP actually restored.
func (s *Service) Restore(ctx context.Context, key string, amount int, full bool) (int, *model.Player, error) {
	if amount < 0 {
		return 0, nil, ErrInvalidAmount
	}
	p, err := s.Get(ctx, key)
	if err != nil {
		return 0, nil, err
	}
	if p.HP >= p.MaxHP {
		return 0, nil, ErrHPFull
	}
	missing := p.MaxHP - p.HP
	healed := amount
	if full || healed > missing {
		healed = missing
	}
	updated, err := s.players.Update(ctx, key, map[string]interface{}{"hp": p.HP + healed})
	if err != nil {
		return 0, nil, err
	}
	return healed, updated, nil
}

// ApplyUpgrade permanently raises stats. A max HP increase also raises
// current HP by the same amount.
func (s *Service) ApplyUpgrade(ctx context.Context, key string, u Upgrade) (*model.Player, error) {
	if u.MaxHP < 0 || u.Attack < 0 || u.Defense < 0 {
		return nil, ErrInvalidAmount
	}
	p, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if u.MaxHP > 0 {
		fields["max_hp"] = p.MaxHP + u.MaxHP
		fields["hp"] = clamp(p.HP+u.MaxHP, 0, p.MaxHP+u.MaxHP)
	}
	if u.Attack > 0 {
		fields["attack"] = p.Attack + u.Attack
	}
	if u.Defense > 0 {
		fields["defense"] = p.Defense + u.Defense
	}
	if len(fields) == 0 {
		return p, nil
	}
	return s.players.Update(ctx, key, fields)
}

// ResetDailyAttempts zeroes the player's daily counter.
func (s *Service) ResetDailyAttempts(ctx context.Context, key string) (*model.Player, error) {
	if _, err := s.Get(ctx, key); err != nil {
		return nil, err
	}
	return s.players.Update(ctx, key, map[string]interface{}{
		"daily_battles":  0,
		"last_battle_at": s.now(),
	})
}

// ResetAllDailyAttempts zeroes the counter of every player whose last
// attempt is not from today. It returns how many players were reset.
func (s *Service) ResetAllDailyAttempts(ctx context.Context) (int, error) {
	return s.resetAll(ctx, true)
}

// ClearAllDailyAttempts zeroes every player's counter, including players
// who already battled today.
func (s *Service) ClearAllDailyAttempts(ctx context.Context) (int, error) {
	return s.resetAll(ctx, false)
}

func (s *Service) resetAll(ctx context.Context, skipToday bool) (int, error) {
	ps, err := s.players.List(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	n := 0
	for _, p := range ps {
		if skipToday && p.LastBattleAt != nil && s.sameDay(*p.LastBattleAt, now) {
			continue
		}
		if _, err := s.players.Update(ctx, p.Key, map[string]interface{}{
			"daily_battles":  0,
			"last_battle_at": now,
		}); err != nil {
			return n, err
		}
		n++
	}
	s.logger.Info("daily battles reset", zap.Int("players", n))
	return n, nil
}

// RecordVictory persists the post-battle HP and counts a win and an attempt.
func (s *Service) RecordVictory(ctx context.Context, key string, hp int) (*model.Player, error) {
	p, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.players.Update(ctx, key, map[string]interface{}{
		"hp":            clamp(hp, 0, p.MaxHP),
		"battles_won":   p.BattlesWon + 1,
		"daily_battles": p.DailyBattles + 1,
	})
}

// RecordDefeat zeroes HP and counts a loss and an attempt.
func (s *Service) RecordDefeat(ctx context.Context, key string) (*model.Player, error) {
	p, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.players.Update(ctx, key, map[string]interface{}{
		"hp":            0,
		"battles_lost":  p.BattlesLost + 1,
		"daily_battles": p.DailyBattles + 1,
	})
}

// RecordFlee persists the HP the player escaped with and counts an attempt.
func (s *Service) RecordFlee(ctx context.Context, key string, hp int) (*model.Player, error) {
	p, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.players.Update(ctx, key, map[string]interface{}{
		"hp":            clamp(hp, 0, p.MaxHP),
		"daily_battles": p.DailyBattles + 1,
	})
}

func (s *Service) sameDay(a, b time.Time) bool {
	ay, am, ad := a.In(s.loc).Date()
	by, bm, bd := b.In(s.loc).Date()
	return ay == by && am == bm && ad == bd
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
