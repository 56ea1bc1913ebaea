// Package boost is the per-player ledger of temporary stat boosts bought in
// the shop. Each boost lasts a number of attack actions.
package boost

import (
	"context"

	"github.com/kasuganosora/textrpg/game/gameerr"
	"github.com/kasuganosora/textrpg/model"
	"github.com/kasuganosora/textrpg/store"
	"go.uber.org/zap"
)

// Boost kinds.
const (
	KindAttack         = "attack"
	KindDefense        = "defense"
	KindExpMultiplier  = "exp_multiplier"
	KindGoldMultiplier = "gold_multiplier"
)

var (
	ErrUnknownKind  = gameerr.New(gameerr.InvalidInput, "UNKNOWN_BOOST", "unknown boost kind")
	ErrInvalidUses  = gameerr.New(gameerr.InvalidInput, "INVALID_BOOST_USES", "boost must last at least one use")
	ErrInvalidValue = gameerr.New(gameerr.InvalidInput, "INVALID_BOOST_VALUE", "boost magnitude must be positive")
)

// ValidKind reports whether kind names a known boost.
func ValidKind(kind string) bool {
	switch kind {
	case KindAttack, KindDefense, KindExpMultiplier, KindGoldMultiplier:
		return true
	}
	return false
}

// Effective is a player's stats with boosts applied.
type Effective struct {
	Attack         int     `json:"attack"`
	Defense        int     `json:"defense"`
	ExpMultiplier  float64 `json:"exp_multiplier"`
	GoldMultiplier float64 `json:"gold_multiplier"`
}

// Ledger stores boosts through store.Boosts.
type Ledger struct {
	boosts  store.Boosts
	players store.Players
	logger  *zap.Logger
}

// NewLedger creates a Ledger.
func NewLedger(boosts store.Boosts, players store.Players, logger *zap.Logger) *Ledger {
	return &Ledger{boosts: boosts, players: players, logger: logger}
}

// Install adds a boost, replacing any boost of the same kind.
func (l *Ledger) Install(ctx context.Context, playerKey, kind string, magnitude float64, uses int) error {
	if !ValidKind(kind) {
		return ErrUnknownKind
	}
	if uses <= 0 {
		return ErrInvalidUses
	}
	if magnitude <= 0 {
		return ErrInvalidValue
	}
	if err := l.boosts.Put(ctx, &model.PlayerBoost{
		PlayerKey: playerKey,
		Kind:      kind,
		Value:     magnitude,
		Uses:      uses,
	}); err != nil {
		return err
	}
	l.logger.Debug("boost installed",
		zap.String("player", playerKey),
		zap.String("kind", kind),
		zap.Float64("value", magnitude),
		zap.Int("uses", uses))
	return nil
}

// Tick consumes one use of every boost. Boosts on their last use are removed.
func (l *Ledger) Tick(ctx context.Context, playerKey string) error {
	bs, err := l.boosts.List(ctx, playerKey)
	if err != nil {
		return err
	}
	for i := range bs {
		b := bs[i]
		if b.Uses > 1 {
			b.Uses--
			if err := l.boosts.Put(ctx, &b); err != nil {
				return err
			}
			continue
		}
		if err := l.boosts.Delete(ctx, playerKey, b.Kind); err != nil {
			return err
		}
		l.logger.Debug("boost expired", zap.String("player", playerKey), zap.String("kind", b.Kind))
	}
	return nil
}

// Active lists the player's boosts ordered by kind.
func (l *Ledger) Active(ctx context.Context, playerKey string) ([]model.PlayerBoost, error) {
	return l.boosts.List(ctx, playerKey)
}

// Apply folds boosts into base attack and defense. Multipliers default to 1.
func Apply(p *model.Player, bs []model.PlayerBoost) Effective {
	e := Effective{
		Attack:         p.Attack,
		Defense:        p.Defense,
		ExpMultiplier:  1,
		GoldMultiplier: 1,
	}
	for _, b := range bs {
		switch b.Kind {
		case KindAttack:
			e.Attack += int(b.Value)
		case KindDefense:
			e.Defense += int(b.Value)
		case KindExpMultiplier:
			e.ExpMultiplier = b.Value
		case KindGoldMultiplier:
			e.GoldMultiplier = b.Value
		}
	}
	return e
}

// EffectiveStats loads the player and applies their boosts.
func (l *Ledger) EffectiveStats(ctx context.Context, playerKey string) (Effective, error) {
	p, err := l.players.Get(ctx, playerKey)
	if err != nil {
		return Effective{}, err
	}
	bs, err := l.boosts.List(ctx, playerKey)
	if err != nil {
		return Effective{}, err
	}
	return Apply(p, bs), nil
}
