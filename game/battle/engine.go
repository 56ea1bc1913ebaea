// Package battle runs turn-based fights between a player and a monster.
//
// A player has at most one active battle. Each attack action resolves the
// player's hit and then, unless the monster fell, the monster's
// counter-attack within the same call. A battle ends exactly once, as a
// victory, a defeat or a flight, and then rejects further actions.
package battle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/kasuganosora/textrpg/cache"
	"github.com/kasuganosora/textrpg/config"
	"github.com/kasuganosora/textrpg/game/boost"
	"github.com/kasuganosora/textrpg/game/gameerr"
	"github.com/kasuganosora/textrpg/game/progression"
	"github.com/kasuganosora/textrpg/metrics"
	"github.com/kasuganosora/textrpg/model"
	"github.com/kasuganosora/textrpg/plugin/hook"
	"github.com/kasuganosora/textrpg/store"
	"go.uber.org/zap"
)

var (
	ErrPlayerNotFound      = progression.ErrPlayerNotFound
	ErrMonsterNotFound     = gameerr.New(gameerr.NotFound, "MONSTER_NOT_FOUND", "monster not found")
	ErrPlayerIncapacitated = gameerr.New(gameerr.PreconditionFailed, "PLAYER_INCAPACITATED", "player has no HP left")
	ErrDailyLimitExceeded  = gameerr.New(gameerr.PreconditionFailed, "DAILY_LIMIT_EXCEEDED", "daily battle limit reached")
	ErrBattleInProgress    = gameerr.New(gameerr.PreconditionFailed, "BATTLE_IN_PROGRESS", "a battle is already in progress")
	ErrNoActiveBattle      = gameerr.New(gameerr.NotFound, "NO_ACTIVE_BATTLE", "no active battle")
	ErrBattleOver          = gameerr.New(gameerr.PreconditionFailed, "BATTLE_OVER", "the battle is already over")
	ErrWrongTurn           = gameerr.New(gameerr.PreconditionFailed, "WRONG_TURN", "it is not the player's turn")
)

const activeKeyPrefix = "battle:active:"

func activeKey(playerKey string) string { return activeKeyPrefix + playerKey }

// Config configures an Engine.
type Config struct {
	Game   config.GameConfig
	RNG    *rand.Rand       // injectable for testing
	Now    func() time.Time // nil = time.Now
	Logger *zap.Logger
	Hooks  *hook.Center // optional
}

// Engine is the battle state machine. Battle records live in the store; the
// cache only maps a player to the ID of their active battle.
type Engine struct {
	prog     *progression.Service
	boosts   *boost.Ledger
	monsters store.Monsters
	battles  store.Battles
	cache    cache.Cache

	game   config.GameConfig
	rng    RNG
	now    func() time.Time
	logger *zap.Logger
	hooks  *hook.Center
}

// NewEngine creates an Engine.
func NewEngine(prog *progression.Service, boosts *boost.Ledger, monsters store.Monsters,
	battles store.Battles, c cache.Cache, cfg Config) *Engine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Engine{
		prog:     prog,
		boosts:   boosts,
		monsters: monsters,
		battles:  battles,
		cache:    c,
		game:     cfg.Game,
		rng:      newLockedRand(cfg.RNG),
		now:      cfg.Now,
		logger:   cfg.Logger,
		hooks:    cfg.Hooks,
	}
}

// Start opens a battle against monsterKey. Nothing is mutated when a
// precondition fails, except that a new calendar day resets the player's
// daily counter before the limit is evaluated.
func (e *Engine) Start(ctx context.Context, playerKey, monsterKey string) (*model.Battle, error) {
	p, err := e.prog.Get(ctx, playerKey)
	if err != nil {
		return nil, err
	}
	m, err := e.monsters.Get(ctx, monsterKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrMonsterNotFound
	}
	if err != nil {
		return nil, err
	}
	if !p.Alive() {
		return nil, ErrPlayerIncapacitated
	}

	if cur, err := e.active(ctx, playerKey); err == nil {
		if !e.game.ReplaceActiveBattle {
			return nil, ErrBattleInProgress
		}
		e.logger.Info("replacing active battle",
			zap.String("player", playerKey),
			zap.String("battle", cur.ID))
		cur.Log = append(cur.Log, fmt.Sprintf("%s left the fight.", cur.Player.Name))
		if err := e.finish(ctx, cur, model.BattleFled); err != nil {
			return nil, err
		}
	} else if gameerr.KindOf(err) == gameerr.Internal {
		return nil, err
	}

	ok, err := e.prog.CanAttemptBattle(ctx, playerKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDailyLimitExceeded
	}

	eff, err := e.boosts.EffectiveStats(ctx, playerKey)
	if err != nil {
		return nil, err
	}

	now, id, err := e.newID(ctx, playerKey)
	if err != nil {
		return nil, err
	}
	b := &model.Battle{
		ID:         id,
		PlayerKey:  playerKey,
		MonsterKey: m.Key,
		Player: model.Combatant{
			Name:    p.Name,
			HP:      p.HP,
			MaxHP:   p.MaxHP,
			Attack:  eff.Attack,
			Defense: eff.Defense,
			Level:   p.Level,
		},
		Monster: model.Combatant{
			Name:       m.Name,
			HP:         m.HP,
			MaxHP:      m.HP,
			Attack:     m.Attack,
			Defense:    m.Defense,
			Reward:     m.Reward,
			Difficulty: m.Difficulty,
		},
		Turn:      model.TurnPlayer,
		Log:       []string{},
		Status:    model.BattleActive,
		StartedAt: now,
	}
	if err := e.battles.Save(ctx, b); err != nil {
		return nil, err
	}
	if err := e.cache.Set(ctx, activeKey(playerKey), b.ID, 0); err != nil {
		return nil, err
	}

	metrics.BattleStarted(m.Key)
	e.logger.Info("battle started",
		zap.String("player", playerKey),
		zap.String("monster", m.Key),
		zap.String("battle", b.ID))
	e.hooks.Emit(ctx, hook.Event{Name: hook.BattleStarted, PlayerKey: playerKey, Data: b})
	return b, nil
}

// Attack performs the player's attack and the monster's automatic
// counter-attack. Boosts tick once per attack action; on the attack that
// ends the battle only when BoostTickOnFinalAttack is set.
func (e *Engine) Attack(ctx context.Context, playerKey string) (*AttackResult, error) {
	b, err := e.active(ctx, playerKey)
	if err != nil {
		return nil, err
	}
	if b.Turn != model.TurnPlayer {
		return nil, ErrWrongTurn
	}

	res := &AttackResult{Battle: b}

	res.PlayerDamage = Damage(e.rng, b.Player.Attack, b.Monster.Defense)
	b.Monster.HP = floorZero(b.Monster.HP - res.PlayerDamage)
	res.Lines = append(res.Lines, fmt.Sprintf("%s attacks %s for %d damage!", b.Player.Name, b.Monster.Name, res.PlayerDamage))
	metrics.Damage(model.TurnPlayer, res.PlayerDamage)

	if b.Monster.HP == 0 {
		b.Log = append(b.Log, res.Lines...)
		if res.Reward, err = e.victory(ctx, b); err != nil {
			return nil, err
		}
	} else {
		b.Turn = model.TurnMonster
		res.Retaliated = true
		res.MonsterDamage = Damage(e.rng, b.Monster.Attack, b.Player.Defense)
		b.Player.HP = floorZero(b.Player.HP - res.MonsterDamage)
		res.Lines = append(res.Lines, fmt.Sprintf("%s strikes back for %d damage!", b.Monster.Name, res.MonsterDamage))
		metrics.Damage(model.TurnMonster, res.MonsterDamage)
		b.Log = append(b.Log, res.Lines...)

		if b.Player.HP == 0 {
			if err := e.defeat(ctx, b); err != nil {
				return nil, err
			}
		} else {
			b.Turn = model.TurnPlayer
			if err := e.battles.Save(ctx, b); err != nil {
				return nil, err
			}
		}
	}

	if !b.Terminal() || e.game.BoostTickOnFinalAttack {
		if err := e.boosts.Tick(ctx, playerKey); err != nil {
			e.logger.Warn("boost tick failed", zap.String("player", playerKey), zap.Error(err))
		}
	}
	return res, nil
}

// Flee abandons the active battle. The player keeps the HP they had and
// spends a daily attempt; there is no reward.
func (e *Engine) Flee(ctx context.Context, playerKey string) (*model.Battle, error) {
	b, err := e.active(ctx, playerKey)
	if err != nil {
		return nil, err
	}
	if _, err := e.prog.RecordFlee(ctx, playerKey, b.Player.HP); err != nil {
		return nil, err
	}
	b.Log = append(b.Log, fmt.Sprintf("%s fled from %s.", b.Player.Name, b.Monster.Name))
	if err := e.finish(ctx, b, model.BattleFled); err != nil {
		return nil, err
	}
	return b, nil
}

// Status returns the player's active battle, or nil when there is none.
func (e *Engine) Status(ctx context.Context, playerKey string) (*StatusView, error) {
	b, err := e.active(ctx, playerKey)
	if err != nil {
		if errors.Is(err, ErrNoActiveBattle) || errors.Is(err, ErrBattleOver) {
			return nil, nil
		}
		return nil, err
	}
	return &StatusView{Battle: b, PlayerTurn: b.Turn == model.TurnPlayer}, nil
}

// Recent returns the player's finished battles, newest first. limit <= 0
// uses the configured history length.
func (e *Engine) Recent(ctx context.Context, playerKey string, limit int) ([]model.Battle, error) {
	if limit <= 0 {
		limit = e.game.HistoryLimit
	}
	return e.battles.ListByPlayer(ctx, playerKey, limit)
}

// Monsters lists the monsters that can be fought, weakest first.
func (e *Engine) Monsters(ctx context.Context) ([]model.Monster, error) {
	return e.monsters.List(ctx)
}

// active resolves the player's active battle. Without a handle the latest
// battle decides: a finished one yields ErrBattleOver, an unfinished one
// (handle lost with a restarted in-process cache) is adopted again.
func (e *Engine) active(ctx context.Context, playerKey string) (*model.Battle, error) {
	id, err := e.cache.Get(ctx, activeKey(playerKey))
	if err != nil {
		if !cache.IsNotFound(err) {
			return nil, err
		}
		latest, err := e.battles.Latest(ctx, playerKey)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoActiveBattle
		}
		if err != nil {
			return nil, err
		}
		if latest.Terminal() {
			return nil, ErrBattleOver
		}
		if err := e.cache.Set(ctx, activeKey(playerKey), latest.ID, 0); err != nil {
			return nil, err
		}
		return latest, nil
	}

	b, err := e.battles.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		_ = e.cache.Del(ctx, activeKey(playerKey))
		return nil, ErrNoActiveBattle
	}
	if err != nil {
		return nil, err
	}
	if b.Terminal() {
		return nil, ErrBattleOver
	}
	return b, nil
}

func (e *Engine) victory(ctx context.Context, b *model.Battle) (*Reward, error) {
	eff, err := e.boosts.EffectiveStats(ctx, b.PlayerKey)
	if err != nil {
		return nil, err
	}
	reward := &Reward{
		Gold: int64(math.Floor(float64(b.Monster.Reward) * eff.GoldMultiplier)),
		Exp:  int64(math.Floor(float64(b.Monster.Reward/2) * eff.ExpMultiplier)),
	}

	if _, err := e.prog.AdjustCurrency(ctx, b.PlayerKey, reward.Gold); err != nil {
		return nil, err
	}
	lvl, err := e.prog.GrantExperience(ctx, b.PlayerKey, reward.Exp)
	if err != nil {
		return nil, err
	}
	// The battle HP is written back over the level-up heal, clamped to the
	// new maximum, unless LevelUpHealWins is set.
	hp := b.Player.HP
	if lvl.Leveled {
		reward.LevelUp = lvl
		if e.game.LevelUpHealWins {
			hp = lvl.Player.HP
		}
	}
	if _, err := e.prog.RecordVictory(ctx, b.PlayerKey, hp); err != nil {
		return nil, err
	}

	b.Log = append(b.Log, fmt.Sprintf("%s defeated %s! +%d gold, +%d exp.", b.Player.Name, b.Monster.Name, reward.Gold, reward.Exp))
	if lvl.Leveled {
		b.Log = append(b.Log, fmt.Sprintf("Level up! %d -> %d.", lvl.OldLevel, lvl.NewLevel))
	}
	if err := e.finish(ctx, b, model.BattleVictory); err != nil {
		return nil, err
	}
	if lvl.Leveled {
		e.hooks.Emit(ctx, hook.Event{Name: hook.PlayerLevelUp, PlayerKey: b.PlayerKey, Data: lvl})
	}
	return reward, nil
}

func (e *Engine) defeat(ctx context.Context, b *model.Battle) error {
	if _, err := e.prog.RecordDefeat(ctx, b.PlayerKey); err != nil {
		return err
	}
	b.Log = append(b.Log, fmt.Sprintf("%s was defeated by %s.", b.Player.Name, b.Monster.Name))
	return e.finish(ctx, b, model.BattleDefeat)
}

// finish marks b terminal, persists it and releases the player's handle.
func (e *Engine) finish(ctx context.Context, b *model.Battle, status string) error {
	now := e.now().UTC()
	b.Status = status
	b.EndedAt = &now
	if err := e.battles.Save(ctx, b); err != nil {
		return err
	}
	if err := e.cache.Del(ctx, activeKey(b.PlayerKey)); err != nil {
		e.logger.Warn("release battle handle failed", zap.String("player", b.PlayerKey), zap.Error(err))
	}
	metrics.BattleFinished(status)
	e.logger.Info("battle finished",
		zap.String("player", b.PlayerKey),
		zap.String("battle", b.ID),
		zap.String("status", status))
	e.hooks.Emit(ctx, hook.Event{Name: hook.BattleFinished, PlayerKey: b.PlayerKey, Data: b})
	return nil
}

// newID derives the battle ID from the start time in milliseconds, moving
// the start forward while the ID is taken so a record is never overwritten.
func (e *Engine) newID(ctx context.Context, playerKey string) (time.Time, string, error) {
	now := e.now().UTC()
	for {
		id := fmt.Sprintf("%s_%d", playerKey, now.UnixMilli())
		_, err := e.battles.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return now, id, nil
		}
		if err != nil {
			return time.Time{}, "", err
		}
		now = now.Add(time.Millisecond)
	}
}

func floorZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
