package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kasuganosora/textrpg/game/battle"
	"github.com/kasuganosora/textrpg/game/progression"
	"github.com/kasuganosora/textrpg/game/shop"
)

func (d *Dispatcher) register(ctx context.Context, req Request, _ []string) (string, error) {
	p, created, err := d.Progression.Register(ctx, req.PlayerKey, req.Name)
	if err != nil {
		return "", err
	}
	st, err := d.Progression.Stats(ctx, p.Key)
	if err != nil {
		return "", err
	}
	if !created {
		return "✅ You are already registered!\n\n" + renderPlayer(st), nil
	}
	return fmt.Sprintf("🎉 *WELCOME TO THE RPG GAME!*\n\n%s\n\n🎯 Use %s help to see the available commands!",
		renderPlayer(st), d.Prefix), nil
}

func (d *Dispatcher) stats(ctx context.Context, req Request, _ []string) (string, error) {
	if err := d.ensure(ctx, req); err != nil {
		return "", err
	}
	st, err := d.Progression.Stats(ctx, req.PlayerKey)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(renderPlayer(st))

	if rank, ok, err := d.Ranking.Rank(ctx, req.PlayerKey); err == nil && ok {
		fmt.Fprintf(&b, "\n🏆 Rank: #%d", rank)
	}
	if boosts, err := d.Boosts.Active(ctx, req.PlayerKey); err == nil && len(boosts) > 0 {
		b.WriteString("\n\n" + renderBoosts(boosts))
	}
	if view, err := d.Battles.Status(ctx, req.PlayerKey); err == nil && view != nil {
		fmt.Fprintf(&b, "\n\n⚔️ *ACTIVE BATTLE*\n👹 Fighting: %s\n❤️ Monster HP: %d/%d",
			view.Monster.Name, view.Monster.HP, view.Monster.MaxHP)
	}
	return b.String(), nil
}

func (d *Dispatcher) startBattle(ctx context.Context, req Request, args []string) (string, error) {
	if len(args) == 0 {
		return "", ErrMissingMonster
	}
	if err := d.ensure(ctx, req); err != nil {
		return "", err
	}
	b, err := d.Battles.Start(ctx, req.PlayerKey, strings.ToLower(args[0]))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("⚔️ *BATTLE STARTED!*\n\n%s\n\nUse %s attack to attack or %s flee to run away!",
		renderSides(b), d.Prefix, d.Prefix), nil
}

func (d *Dispatcher) attack(ctx context.Context, req Request, _ []string) (string, error) {
	if err := d.ensure(ctx, req); err != nil {
		return "", err
	}
	res, err := d.Battles.Attack(ctx, req.PlayerKey)
	if err != nil {
		return "", err
	}
	return renderAttack(res, d.Prefix), nil
}

func (d *Dispatcher) flee(ctx context.Context, req Request, _ []string) (string, error) {
	b, err := d.Battles.Flee(ctx, req.PlayerKey)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("🏃 You fled from %s!\n❤️ HP: %d/%d",
		b.Monster.Name, b.Player.HP, b.Player.MaxHP), nil
}

func (d *Dispatcher) monsters(ctx context.Context, _ Request, _ []string) (string, error) {
	ms, err := d.Battles.Monsters(ctx)
	if err != nil {
		return "", err
	}
	return renderMonsters(ms, d.Prefix), nil
}

func (d *Dispatcher) heal(ctx context.Context, req Request, _ []string) (string, error) {
	if err := d.ensure(ctx, req); err != nil {
		return "", err
	}
	before, err := d.Progression.Get(ctx, req.PlayerKey)
	if err != nil {
		return "", err
	}
	cost := d.Progression.Config().HealCost
	p, err := d.Progression.Heal(ctx, req.PlayerKey)
	if errors.Is(err, progression.ErrInsufficientGold) {
		return "", withMessage(err, "💰 Not enough gold! Healing costs %d gold, you have %s.",
			cost, formatGold(before.Gold))
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("💚 HP fully restored! (%d → %d)\n💰 Gold: -%d (left: %s)",
		before.HP, p.HP, cost, formatGold(p.Gold)), nil
}

func (d *Dispatcher) shopList(ctx context.Context, req Request, _ []string) (string, error) {
	if err := d.ensure(ctx, req); err != nil {
		return "", err
	}
	p, err := d.Progression.Get(ctx, req.PlayerKey)
	if err != nil {
		return "", err
	}
	return renderShop(d.Prefix) + "\n\n💰 Your gold: " + formatGold(p.Gold), nil
}

func (d *Dispatcher) buy(ctx context.Context, req Request, args []string) (string, error) {
	if len(args) == 0 {
		return "", ErrMissingItem
	}
	if err := d.ensure(ctx, req); err != nil {
		return "", err
	}
	key := strings.ToLower(args[0])
	rc, err := d.Shop.Purchase(ctx, req.PlayerKey, key)
	if errors.Is(err, shop.ErrInsufficientGold) {
		item, _ := shop.Lookup(key)
		p, gerr := d.Progression.Get(ctx, req.PlayerKey)
		if gerr != nil {
			return "", err
		}
		return "", withMessage(err, "💰 Not enough gold! You need %s gold but only have %s.",
			formatGold(item.Price), formatGold(p.Gold))
	}
	if err != nil {
		return "", err
	}
	return renderReceipt(rc), nil
}

func (d *Dispatcher) inventory(ctx context.Context, req Request, _ []string) (string, error) {
	if err := d.ensure(ctx, req); err != nil {
		return "", err
	}
	bs, err := d.Boosts.Active(ctx, req.PlayerKey)
	if err != nil {
		return "", err
	}
	if len(bs) == 0 {
		return fmt.Sprintf("📦 *INVENTORY*\n\nYou have no active boosts.\nBuy items in %s shop to get boosts!", d.Prefix), nil
	}
	return "📦 *INVENTORY*\n\n" + renderBoosts(bs), nil
}

func (d *Dispatcher) leaderboard(ctx context.Context, req Request, _ []string) (string, error) {
	limit := d.Game.LeaderboardLimit
	if limit <= 0 {
		limit = 10
	}
	top, err := d.Ranking.Top(ctx, limit)
	if err != nil {
		return "", err
	}
	if len(top) == 0 {
		return "🏆 *LEADERBOARD*\n\nNo players registered yet.", nil
	}
	msg := renderLeaderboard(top, limit)

	rank, ok, err := d.Ranking.Rank(ctx, req.PlayerKey)
	if err == nil && ok && rank > limit {
		if p, err := d.Progression.Get(ctx, req.PlayerKey); err == nil {
			msg += fmt.Sprintf("📍 *Your rank: #%d*\n   %s - Level %d", rank, p.Name, p.Level)
		}
	}
	return msg, nil
}

func (d *Dispatcher) history(ctx context.Context, req Request, _ []string) (string, error) {
	if err := d.ensure(ctx, req); err != nil {
		return "", err
	}
	bs, err := d.Battles.Recent(ctx, req.PlayerKey, 0)
	if err != nil {
		return "", err
	}
	return renderHistory(bs, d.Game.Location()), nil
}

func (d *Dispatcher) status(ctx context.Context, req Request, _ []string) (string, error) {
	view, err := d.Battles.Status(ctx, req.PlayerKey)
	if err != nil {
		return "", err
	}
	if view == nil {
		return "", withMessage(battle.ErrNoActiveBattle, "❌ There is no active battle.")
	}
	turn := "⏳ Monster's turn..."
	if view.PlayerTurn {
		turn = "🔄 Your turn!"
	}
	return fmt.Sprintf("⚔️ *BATTLE STATUS*\n\n%s\n\n%s\n\nUse %s attack to attack or %s flee to run away!",
		renderSides(view.Battle), turn, d.Prefix, d.Prefix), nil
}

func (d *Dispatcher) help(_ context.Context, _ Request, _ []string) (string, error) {
	return renderHelp(d.Prefix, d.Game), nil
}
