package command

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kasuganosora/textrpg/config"
	"github.com/kasuganosora/textrpg/game/battle"
	"github.com/kasuganosora/textrpg/game/boost"
	"github.com/kasuganosora/textrpg/game/progression"
	"github.com/kasuganosora/textrpg/game/ranking"
	"github.com/kasuganosora/textrpg/game/shop"
	"github.com/kasuganosora/textrpg/model"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

func formatGold(n int64) string {
	return printer.Sprintf("%d", n)
}

func renderPlayer(st *progression.Stats) string {
	p := st.Player
	var b strings.Builder
	fmt.Fprintf(&b, "👤 *%s* (Level %d)\n", p.Name, p.Level)
	fmt.Fprintf(&b, "❤️ HP: %d/%d\n", p.HP, p.MaxHP)
	fmt.Fprintf(&b, "⚔️ ATK: %d | 🛡️ DEF: %d\n", p.Attack, p.Defense)
	fmt.Fprintf(&b, "⭐ EXP: %d (%d to next level)\n", p.Exp, st.ExpToNextLevel)
	fmt.Fprintf(&b, "💰 Gold: %s\n", formatGold(p.Gold))
	fmt.Fprintf(&b, "🗡️ Battles: %dW/%dL | Left today: %d/%d",
		p.BattlesWon, p.BattlesLost, st.BattlesRemaining, st.DailyBattleCap)
	return b.String()
}

func boostLabel(kind string, value float64) string {
	v := strconv.FormatFloat(value, 'f', -1, 64)
	switch kind {
	case boost.KindAttack:
		return "+" + v + " Attack"
	case boost.KindDefense:
		return "+" + v + " Defense"
	case boost.KindExpMultiplier:
		return v + "x EXP"
	case boost.KindGoldMultiplier:
		return v + "x Gold"
	}
	return kind
}

func renderBoosts(bs []model.PlayerBoost) string {
	var b strings.Builder
	b.WriteString("⚡ *ACTIVE BOOSTS*")
	for _, x := range bs {
		fmt.Fprintf(&b, "\n▪️ %s (%d uses left)", boostLabel(x.Kind, x.Value), x.Uses)
	}
	return b.String()
}

func renderSides(bt *model.Battle) string {
	return fmt.Sprintf("👤 %s\n❤️ HP: %d/%d\n⚔️ ATK: %d | 🛡️ DEF: %d\n\n🆚\n\n👹 %s\n❤️ HP: %d/%d\n⚔️ ATK: %d | 🛡️ DEF: %d",
		bt.Player.Name, bt.Player.HP, bt.Player.MaxHP, bt.Player.Attack, bt.Player.Defense,
		bt.Monster.Name, bt.Monster.HP, bt.Monster.MaxHP, bt.Monster.Attack, bt.Monster.Defense)
}

func renderAttack(res *battle.AttackResult, prefix string) string {
	bt := res.Battle
	var b strings.Builder
	b.WriteString(strings.Join(res.Lines, "\n"))

	switch bt.Status {
	case model.BattleVictory:
		fmt.Fprintf(&b, "\n\n🎉 *VICTORY!* You defeated %s!", bt.Monster.Name)
		if r := res.Reward; r != nil {
			fmt.Fprintf(&b, "\n💰 +%s gold\n⭐ +%d EXP", formatGold(r.Gold), r.Exp)
			if lu := r.LevelUp; lu != nil {
				fmt.Fprintf(&b, "\n\n🆙 *LEVEL UP!* %d → %d\n❤️ Max HP +%d | ⚔️ ATK +%d | 🛡️ DEF +%d\nHP fully restored!",
					lu.OldLevel, lu.NewLevel, lu.HPGain, lu.AtkGain, lu.DefGain)
			}
		}
	case model.BattleDefeat:
		fmt.Fprintf(&b, "\n\n💀 *DEFEAT!* %s was too strong.\nUse %s heal to recover before your next battle.",
			bt.Monster.Name, prefix)
	default:
		fmt.Fprintf(&b, "\n\n👤 HP: %d/%d | 👹 %s HP: %d/%d",
			bt.Player.HP, bt.Player.MaxHP, bt.Monster.Name, bt.Monster.HP, bt.Monster.MaxHP)
	}
	return b.String()
}

func renderMonsters(ms []model.Monster, prefix string) string {
	var b strings.Builder
	b.WriteString("👹 *MONSTERS*\n")
	for _, m := range ms {
		fmt.Fprintf(&b, "\n▪️ *%s* - %s %s\n   ❤️ %d HP | ⚔️ %d ATK | 🛡️ %d DEF\n   💰 %s gold | ⭐ %d EXP\n",
			m.Key, m.Name, strings.Repeat("⭐", m.Difficulty), m.HP, m.Attack, m.Defense,
			formatGold(m.Reward), m.Reward/2)
	}
	fmt.Fprintf(&b, "\nUse: %s battle [monster]\nExample: %s battle goblin", prefix, prefix)
	return b.String()
}

var kindTitles = map[string]string{
	shop.KindConsumable: "💊 *HEALING ITEMS*",
	shop.KindBoost:      "⚡ *BOOST ITEMS*",
	shop.KindUpgrade:    "🔧 *PERMANENT UPGRADES*",
	shop.KindSpecial:    "✨ *SPECIAL ITEMS*",
}

func renderShop(prefix string) string {
	var b strings.Builder
	b.WriteString("🛒 *RPG SHOP*\n")
	for _, kind := range shop.Kinds {
		fmt.Fprintf(&b, "\n%s\n", kindTitles[kind])
		for _, it := range shop.ByKind(kind) {
			fmt.Fprintf(&b, "▪️ *%s* - %s\n   %s\n   💰 %s gold\n", it.Key, it.Name, it.Description, formatGold(it.Price))
		}
	}
	fmt.Fprintf(&b, "\nUse: %s buy [item]\nExample: %s buy potion", prefix, prefix)
	return b.String()
}

func renderReceipt(rc *shop.Receipt) string {
	it := rc.Item
	var effect string
	switch it.Kind {
	case shop.KindConsumable:
		effect = fmt.Sprintf("❤️ Restored %d HP (%d/%d)", rc.Healed, rc.Player.HP, rc.Player.MaxHP)
	case shop.KindBoost:
		effect = fmt.Sprintf("⚡ %s active for %d attacks", boostLabel(it.Effect.Boost, it.Effect.BoostValue), it.Effect.Uses)
	case shop.KindUpgrade:
		effect = fmt.Sprintf("💪 %s\n❤️ HP: %d/%d | ⚔️ ATK: %d | 🛡️ DEF: %d",
			it.Description, rc.Player.HP, rc.Player.MaxHP, rc.Player.Attack, rc.Player.Defense)
	case shop.KindSpecial:
		effect = "🔄 Your daily battle limit has been reset!"
	}
	return fmt.Sprintf("✅ Bought *%s*!\n%s\n\n💰 Gold: -%s (left: %s)",
		it.Name, effect, formatGold(it.Price), formatGold(rc.Player.Gold))
}

func renderLeaderboard(top []ranking.Entry, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 *LEADERBOARD TOP %d*\n\n", limit)
	for i, e := range top {
		medal := strconv.Itoa(i+1) + "."
		switch i {
		case 0:
			medal = "🥇"
		case 1:
			medal = "🥈"
		case 2:
			medal = "🥉"
		}
		fmt.Fprintf(&b, "%s *%s*\n   📊 Level %d | ⭐ %d EXP\n   🗡️ %dW/%dL | 💰 %s gold\n\n",
			medal, e.Name, e.Level, e.Exp, e.BattlesWon, e.BattlesLost, formatGold(e.Gold))
	}
	return b.String()
}

var outcomeLabels = map[string]string{
	model.BattleVictory: "🏆 Victory",
	model.BattleDefeat:  "💀 Defeat",
	model.BattleFled:    "🏃 Fled",
}

func renderHistory(bs []model.Battle, loc *time.Location) string {
	if len(bs) == 0 {
		return "📜 *BATTLE HISTORY*\n\nNo battles yet."
	}
	var b strings.Builder
	b.WriteString("📜 *BATTLE HISTORY*\n")
	for _, bt := range bs {
		fmt.Fprintf(&b, "\n%s vs %s\n   📅 %s\n", outcomeLabels[bt.Status], bt.Monster.Name,
			bt.StartedAt.In(loc).Format("02/01/2006 15:04"))
	}
	return b.String()
}

func renderHelp(prefix string, g config.GameConfig) string {
	return strings.NewReplacer("{p}", prefix,
		"{heal}", strconv.FormatInt(g.HealCost, 10),
		"{cap}", strconv.Itoa(g.DailyBattleCap),
	).Replace(`🎮 *RPG GAME COMMANDS*

📋 *PLAYER*
▪️ {p} register - Register as a new player
▪️ {p} stats - Show your stats
▪️ {p} heal - Restore HP ({heal} gold)

⚔️ *BATTLE*
▪️ {p} monsters - List monsters
▪️ {p} battle [monster] - Start a battle
▪️ {p} attack - Attack the monster
▪️ {p} flee - Run away from the battle
▪️ {p} status - Show the active battle

🛒 *SHOP & ITEMS*
▪️ {p} shop - Show the shop
▪️ {p} buy [item] - Buy an item
▪️ {p} boosts - Show active boosts

📊 *INFO*
▪️ {p} leaderboard - Top players
▪️ {p} history - Battle history
▪️ {p} help - This message

🎯 *TIPS*
• Battle to earn gold & EXP
• Level up for stronger stats
• Limit {cap} battles per day
• Buy boosts for an extra edge

Have fun! 🎉`)
}
