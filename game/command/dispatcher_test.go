package command

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/kasuganosora/textrpg/audit"
	"github.com/kasuganosora/textrpg/config"
	"github.com/kasuganosora/textrpg/game/battle"
	"github.com/kasuganosora/textrpg/game/boost"
	"github.com/kasuganosora/textrpg/game/progression"
	"github.com/kasuganosora/textrpg/game/ranking"
	"github.com/kasuganosora/textrpg/game/shop"
	"github.com/kasuganosora/textrpg/model"
	"github.com/kasuganosora/textrpg/store"
	"github.com/kasuganosora/textrpg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memAuditor struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (m *memAuditor) Log(e audit.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
}

type fixture struct {
	d     *Dispatcher
	st    *store.Store
	audit *memAuditor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	game := config.DefaultGame()
	game.Timezone = "UTC"

	st := store.New(testutil.SetupTestDB(t))
	c := testutil.SetupTestCache(t)
	require.NoError(t, st.Monsters.Seed(context.Background(), model.DefaultMonsters()))

	now := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	logger := zap.NewNop()
	rank := ranking.NewService(st.Players, c, logger)
	prog := progression.NewService(st.Players, rank, game, logger)
	prog.SetClock(clock)
	ledger := boost.NewLedger(st.Boosts, st.Players, logger)
	engine := battle.NewEngine(prog, ledger, st.Monsters, st.Battles, c, battle.Config{
		Game: game,
		RNG:  rand.New(rand.NewSource(7)),
		Now:  clock,
	})
	a := &memAuditor{}
	d := NewDispatcher(Deps{
		Progression: prog,
		Battles:     engine,
		Shop:        shop.NewService(prog, ledger, logger),
		Boosts:      ledger,
		Ranking:     rank,
		Audit:       a,
		Game:        game,
		Logger:      logger,
	})
	return &fixture{d: d, st: st, audit: a}
}

func (f *fixture) run(args ...string) Response {
	return f.d.Handle(context.Background(), Request{PlayerKey: "u1", Name: "Ayu", Args: args, TraceID: "t-1"})
}

func TestHandle_HelpAndUnknown(t *testing.T) {
	f := newFixture(t)

	resp := f.run()
	assert.True(t, resp.Success)
	assert.Equal(t, "help", resp.Command)
	assert.Contains(t, resp.Message, ".rpg battle [monster]")
	assert.Contains(t, resp.Message, "Limit 10 battles per day")

	resp = f.run("dance")
	assert.False(t, resp.Success)
	assert.Equal(t, "UNKNOWN_COMMAND", resp.Code)
	assert.Contains(t, resp.Message, ".rpg help")
}

func TestHandle_Register(t *testing.T) {
	f := newFixture(t)

	resp := f.run("register")
	require.True(t, resp.Success)
	assert.Contains(t, resp.Message, "WELCOME")
	assert.Contains(t, resp.Message, "*Ayu* (Level 1)")
	assert.Contains(t, resp.Message, "HP: 100/100")

	resp = f.run("REGISTER")
	require.True(t, resp.Success)
	assert.Contains(t, resp.Message, "already registered")
}

func TestHandle_StatsAutoRegisters(t *testing.T) {
	f := newFixture(t)

	resp := f.run("profile")
	require.True(t, resp.Success)
	assert.Contains(t, resp.Message, "Gold: 100")
	assert.Contains(t, resp.Message, "Left today: 10/10")
	assert.Contains(t, resp.Message, "Rank: #1")

	_, err := f.st.Players.Get(context.Background(), "u1")
	assert.NoError(t, err)
}

func TestHandle_BattleFlow(t *testing.T) {
	f := newFixture(t)

	resp := f.run("battle")
	assert.False(t, resp.Success)
	assert.Equal(t, "MISSING_MONSTER", resp.Code)

	resp = f.run("fight", "unicorn")
	assert.False(t, resp.Success)
	assert.Equal(t, "MONSTER_NOT_FOUND", resp.Code)

	resp = f.run("battle", "Orc")
	require.True(t, resp.Success, resp.Message)
	assert.Contains(t, resp.Message, "BATTLE STARTED")
	assert.Contains(t, resp.Message, "👹 Orc")

	resp = f.run("battle", "goblin")
	assert.Equal(t, "BATTLE_IN_PROGRESS", resp.Code)

	resp = f.run("status")
	require.True(t, resp.Success)
	assert.Contains(t, resp.Message, "Your turn!")

	resp = f.run("attack")
	require.True(t, resp.Success)
	assert.Contains(t, resp.Message, "attacks Orc for")
	assert.Contains(t, resp.Message, "strikes back")

	resp = f.run("stats")
	require.True(t, resp.Success)
	assert.Contains(t, resp.Message, "ACTIVE BATTLE")

	resp = f.run("run")
	require.True(t, resp.Success)
	assert.Contains(t, resp.Message, "You fled from Orc")

	resp = f.run("attack")
	assert.False(t, resp.Success)
	assert.Equal(t, "BATTLE_OVER", resp.Code)

	resp = f.run("status")
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "no active battle")

	resp = f.run("history")
	require.True(t, resp.Success)
	assert.Contains(t, resp.Message, "Fled vs Orc")
}

func TestHandle_AttackWithoutBattle(t *testing.T) {
	f := newFixture(t)

	resp := f.run("flee")
	assert.False(t, resp.Success)
	assert.Equal(t, "NO_ACTIVE_BATTLE", resp.Code)
	_, err := f.st.Players.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, store.ErrNotFound, "flee does not register")

	resp = f.run("attack")
	assert.False(t, resp.Success)
	assert.Equal(t, "NO_ACTIVE_BATTLE", resp.Code)
	assert.Contains(t, resp.Message, ".rpg battle [monster]")
}

func TestHandle_Victory(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.run("register").Success)
	_, err := f.st.Players.Update(context.Background(), "u1", map[string]interface{}{"attack": 999, "exp": int64(95)})
	require.NoError(t, err)

	require.True(t, f.run("battle", "goblin").Success)
	resp := f.run("attack")
	require.True(t, resp.Success)
	assert.Contains(t, resp.Message, "VICTORY")
	assert.Contains(t, resp.Message, "+20 gold")
	assert.Contains(t, resp.Message, "+10 EXP")
	assert.Contains(t, resp.Message, "LEVEL UP!* 1 → 2")
}

func TestHandle_DailyLimit(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.run("register").Success)
	_, err := f.st.Players.Update(context.Background(), "u1", map[string]interface{}{
		"daily_battles":  10,
		"last_battle_at": time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	resp := f.run("battle", "goblin")
	assert.False(t, resp.Success)
	assert.Equal(t, "DAILY_LIMIT_EXCEEDED", resp.Code)
	assert.Contains(t, resp.Message, "all 10 battles")
}

func TestHandle_ShopAndBuy(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.run("register").Success)

	resp := f.run("shop")
	require.True(t, resp.Success)
	assert.Contains(t, resp.Message, "*potion* - Health Potion")
	assert.Contains(t, resp.Message, "SPECIAL ITEMS")
	assert.Contains(t, resp.Message, "Your gold: 100")

	resp = f.run("buy")
	assert.Equal(t, "MISSING_ITEM", resp.Code)

	resp = f.run("buy", "elixir")
	assert.Equal(t, "ITEM_NOT_FOUND", resp.Code)

	resp = f.run("buy", "potion")
	assert.Equal(t, "HP_FULL", resp.Code)

	resp = f.run("buy", "attack_boost")
	require.True(t, resp.Success, resp.Message)
	assert.Contains(t, resp.Message, "+10 Attack active for 3 attacks")
	assert.Contains(t, resp.Message, "left: 20")

	resp = f.run("boosts")
	require.True(t, resp.Success)
	assert.Contains(t, resp.Message, "+10 Attack (3 uses left)")

	_, err := f.st.Players.Update(context.Background(), "u1", map[string]interface{}{"hp": 10})
	require.NoError(t, err)
	resp = f.run("buy", "potion")
	assert.False(t, resp.Success)
	assert.Equal(t, "INSUFFICIENT_GOLD", resp.Code)
	assert.Contains(t, resp.Message, "need 30 gold but only have 20")
}

func TestHandle_Heal(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.run("register").Success)

	resp := f.run("heal")
	assert.Equal(t, "HP_FULL", resp.Code)

	_, err := f.st.Players.Update(context.Background(), "u1", map[string]interface{}{"hp": 30, "gold": int64(1500)})
	require.NoError(t, err)
	resp = f.run("heal")
	require.True(t, resp.Success)
	assert.Contains(t, resp.Message, "(30 → 100)")
	assert.Contains(t, resp.Message, "left: 1,480")
}

func TestHandle_Leaderboard(t *testing.T) {
	f := newFixture(t)

	resp := f.run("lb")
	require.True(t, resp.Success)
	assert.Contains(t, resp.Message, "No players registered yet")

	require.True(t, f.run("register").Success)
	resp = f.run("leaderboard")
	require.True(t, resp.Success)
	assert.Contains(t, resp.Message, "🥇 *Ayu*")
}

func TestHandle_Monsters(t *testing.T) {
	f := newFixture(t)
	resp := f.run("monsters")
	require.True(t, resp.Success)
	assert.Contains(t, resp.Message, "*goblin* - Goblin")
	assert.Contains(t, resp.Message, "*dragon* - Dragon")
}

func TestHandle_RecoversPanics(t *testing.T) {
	a := &memAuditor{}
	d := NewDispatcher(Deps{Audit: a}) // no services wired

	resp := d.Handle(context.Background(), Request{PlayerKey: "u1", Args: []string{"monsters"}})
	assert.False(t, resp.Success)
	assert.Equal(t, internalMessage, resp.Message)
	assert.Equal(t, "INTERNAL", resp.Code)
	require.Len(t, a.entries, 1)
	assert.Contains(t, a.entries[0].Error, "panic")
}

func TestHandle_Audited(t *testing.T) {
	f := newFixture(t)
	f.run("register")
	f.run("buy", "elixir")

	require.Len(t, f.audit.entries, 2)
	assert.Equal(t, "register", f.audit.entries[0].Action)
	assert.Equal(t, "t-1", f.audit.entries[0].TraceID)
	assert.Empty(t, f.audit.entries[0].Error)
	assert.Equal(t, "buy", f.audit.entries[1].Action)
	assert.Equal(t, "item not found", f.audit.entries[1].Error)
}

func TestCommands_IncludesAliases(t *testing.T) {
	d := NewDispatcher(Deps{})
	assert.ElementsMatch(t, []string{
		"register", "stats", "profile", "battle", "fight", "attack", "flee", "run",
		"monsters", "heal", "shop", "buy", "inventory", "boosts", "leaderboard", "lb",
		"history", "status", "help",
	}, d.Commands())
}

func TestParse(t *testing.T) {
	f := newFixture(t)

	args, ok := f.d.Parse("  .RPG   buy  Potion ")
	require.True(t, ok)
	assert.Equal(t, []string{"buy", "Potion"}, args)

	args, ok = f.d.Parse(".rpg")
	require.True(t, ok)
	assert.Empty(t, args)

	_, ok = f.d.Parse("hello there")
	assert.False(t, ok)
	_, ok = f.d.Parse(".rpgx help")
	assert.False(t, ok)
	_, ok = f.d.Parse("")
	assert.False(t, ok)
}
