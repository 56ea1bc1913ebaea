// Package shop sells items for gold. Gold is only taken once the item's
// effect has been applied.
package shop

import (
	"context"
	"fmt"

	"github.com/kasuganosora/textrpg/game/boost"
	"github.com/kasuganosora/textrpg/game/gameerr"
	"github.com/kasuganosora/textrpg/game/progression"
	"github.com/kasuganosora/textrpg/metrics"
	"github.com/kasuganosora/textrpg/model"
	"go.uber.org/zap"
)

var (
	ErrItemNotFound     = gameerr.New(gameerr.NotFound, "ITEM_NOT_FOUND", "item not found")
	ErrInsufficientGold = progression.ErrInsufficientGold
)

// Receipt describes a completed purchase.
type Receipt struct {
	Item   Item          `json:"item"`
	Healed int           `json:"healed,omitempty"`
	Player *model.Player `json:"player"`
}

// Service processes purchases.
type Service struct {
	prog   *progression.Service
	ledger *boost.Ledger
	logger *zap.Logger
}

// NewService creates a shop Service.
func NewService(prog *progression.Service, ledger *boost.Ledger, logger *zap.Logger) *Service {
	return &Service{prog: prog, ledger: ledger, logger: logger}
}

// Purchase buys itemKey for the player. It fails without any change when
// the item or player is unknown, the balance is short, or the effect cannot
// apply (a heal at full HP).
func (s *Service) Purchase(ctx context.Context, playerKey, itemKey string) (*Receipt, error) {
	item, ok := Lookup(itemKey)
	if !ok {
		return nil, ErrItemNotFound
	}
	p, err := s.prog.Get(ctx, playerKey)
	if err != nil {
		return nil, err
	}
	if p.Gold < item.Price {
		return nil, ErrInsufficientGold
	}

	rc := &Receipt{Item: item}
	if err := s.apply(ctx, playerKey, item, rc); err != nil {
		return nil, err
	}

	paid, err := s.prog.SpendCurrency(ctx, playerKey, item.Price)
	if err != nil {
		return nil, err
	}
	if !paid {
		// Only reachable if the balance changed under us after the check.
		s.logger.Warn("purchase applied but not paid",
			zap.String("player", playerKey),
			zap.String("item", item.Key))
		return nil, ErrInsufficientGold
	}

	if rc.Player, err = s.prog.Get(ctx, playerKey); err != nil {
		return nil, err
	}
	metrics.Purchase(item.Key, item.Price)
	s.logger.Info("item purchased",
		zap.String("player", playerKey),
		zap.String("item", item.Key),
		zap.Int64("price", item.Price))
	return rc, nil
}

func (s *Service) apply(ctx context.Context, playerKey string, item Item, rc *Receipt) error {
	e := item.Effect
	switch item.Kind {
	case KindConsumable:
		healed, _, err := s.prog.Restore(ctx, playerKey, e.Heal, e.FullHeal)
		if err != nil {
			return err
		}
		rc.Healed = healed
		return nil
	case KindBoost:
		return s.ledger.Install(ctx, playerKey, e.Boost, e.BoostValue, e.Uses)
	case KindUpgrade:
		_, err := s.prog.ApplyUpgrade(ctx, playerKey, progression.Upgrade{
			MaxHP:   e.MaxHP,
			Attack:  e.Attack,
			Defense: e.Defense,
		})
		return err
	case KindSpecial:
		if e.ResetBattles {
			_, err := s.prog.ResetDailyAttempts(ctx, playerKey)
			return err
		}
	}
	return fmt.Errorf("shop: item %q has no applicable effect", item.Key)
}
