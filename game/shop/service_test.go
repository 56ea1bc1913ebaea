package shop

import (
	"context"
	"testing"
	"time"

	"github.com/kasuganosora/textrpg/config"
	"github.com/kasuganosora/textrpg/game/boost"
	"github.com/kasuganosora/textrpg/game/gameerr"
	"github.com/kasuganosora/textrpg/game/progression"
	"github.com/kasuganosora/textrpg/model"
	"github.com/kasuganosora/textrpg/store"
	"github.com/kasuganosora/textrpg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	shop   *Service
	prog   *progression.Service
	ledger *boost.Ledger
	st     *store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	game := config.DefaultGame()
	game.Timezone = "UTC"
	st := store.New(testutil.SetupTestDB(t))
	prog := progression.NewService(st.Players, nil, game, zap.NewNop())
	prog.SetClock(func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) })
	ledger := boost.NewLedger(st.Boosts, st.Players, zap.NewNop())
	return &fixture{
		shop:   NewService(prog, ledger, zap.NewNop()),
		prog:   prog,
		ledger: ledger,
		st:     st,
	}
}

func (f *fixture) player(t *testing.T, fields map[string]interface{}) {
	t.Helper()
	_, _, err := f.prog.Register(context.Background(), "u1", "Hero")
	require.NoError(t, err)
	if len(fields) > 0 {
		_, err = f.st.Players.Update(context.Background(), "u1", fields)
		require.NoError(t, err)
	}
}

func (f *fixture) get(t *testing.T) *model.Player {
	t.Helper()
	p, err := f.prog.Get(context.Background(), "u1")
	require.NoError(t, err)
	return p
}

func TestCatalog(t *testing.T) {
	items := Catalog()
	require.Len(t, items, 11)

	// Grouped by kind in display order.
	idx := 0
	for _, it := range items {
		for Kinds[idx] != it.Kind {
			idx++
			require.Less(t, idx, len(Kinds), "item %s out of kind order", it.Key)
		}
	}

	potion, ok := Lookup("potion")
	require.True(t, ok)
	assert.Equal(t, int64(30), potion.Price)
	assert.Equal(t, 50, potion.Effect.Heal)

	_, ok = Lookup("elixir")
	assert.False(t, ok)

	assert.Len(t, ByKind(KindBoost), 4)
	for _, it := range ByKind(KindBoost) {
		assert.True(t, boost.ValidKind(it.Effect.Boost), it.Key)
	}

	// Callers get a copy.
	items[0].Price = 1
	again, _ := Lookup(items[0].Key)
	assert.Equal(t, int64(30), again.Price)
}

func TestPurchase_PotionShortOfGold(t *testing.T) {
	f := newFixture(t)
	f.player(t, map[string]interface{}{"gold": int64(25), "hp": 40})

	_, err := f.shop.Purchase(context.Background(), "u1", "potion")
	assert.ErrorIs(t, err, ErrInsufficientGold)
	assert.Equal(t, gameerr.PreconditionFailed, gameerr.KindOf(err))

	p := f.get(t)
	assert.Equal(t, int64(25), p.Gold)
	assert.Equal(t, 40, p.HP)
}

func TestPurchase_Unknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.shop.Purchase(ctx, "u1", "elixir")
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = f.shop.Purchase(ctx, "ghost", "potion")
	assert.ErrorIs(t, err, progression.ErrPlayerNotFound)
}

func TestPurchase_Consumables(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.player(t, map[string]interface{}{"gold": int64(500), "hp": 70})

	rc, err := f.shop.Purchase(ctx, "u1", "potion")
	require.NoError(t, err)
	assert.Equal(t, 30, rc.Healed, "capped at max HP")
	assert.Equal(t, 100, rc.Player.HP)
	assert.Equal(t, int64(470), rc.Player.Gold)

	// Full HP: the effect fails and no gold is taken.
	_, err = f.shop.Purchase(ctx, "u1", "full_heal")
	assert.ErrorIs(t, err, progression.ErrHPFull)
	assert.Equal(t, int64(470), f.get(t).Gold)

	_, err = f.st.Players.Update(ctx, "u1", map[string]interface{}{"hp": 5})
	require.NoError(t, err)
	rc, err = f.shop.Purchase(ctx, "u1", "full_heal")
	require.NoError(t, err)
	assert.Equal(t, 95, rc.Healed)
	assert.Equal(t, int64(370), rc.Player.Gold)
}

func TestPurchase_Boost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.player(t, map[string]interface{}{"gold": int64(1000)})

	_, err := f.shop.Purchase(ctx, "u1", "attack_boost")
	require.NoError(t, err)
	_, err = f.shop.Purchase(ctx, "u1", "lucky_charm")
	require.NoError(t, err)

	e, err := f.ledger.EffectiveStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 30, e.Attack)
	assert.Equal(t, 1.5, e.GoldMultiplier)
	assert.Equal(t, 1.0, e.ExpMultiplier)
	assert.Equal(t, int64(620), f.get(t).Gold)
}

func TestPurchase_Upgrade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.player(t, map[string]interface{}{"gold": int64(1000), "hp": 50})

	rc, err := f.shop.Purchase(ctx, "u1", "hp_upgrade")
	require.NoError(t, err)
	assert.Equal(t, 120, rc.Player.MaxHP)
	assert.Equal(t, 70, rc.Player.HP)

	rc, err = f.shop.Purchase(ctx, "u1", "defense_upgrade")
	require.NoError(t, err)
	assert.Equal(t, 15, rc.Player.Defense)
	assert.Equal(t, int64(550), rc.Player.Gold)
}

func TestPurchase_BattleReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.player(t, map[string]interface{}{"gold": int64(600), "daily_battles": 10})

	rc, err := f.shop.Purchase(ctx, "u1", "battle_reset")
	require.NoError(t, err)
	assert.Equal(t, 0, rc.Player.DailyBattles)
	assert.Equal(t, int64(100), rc.Player.Gold)
}
