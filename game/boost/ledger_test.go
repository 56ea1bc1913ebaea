package boost

import (
	"context"
	"testing"

	"github.com/kasuganosora/textrpg/model"
	"github.com/kasuganosora/textrpg/store"
	"github.com/kasuganosora/textrpg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"
)

func newLedger(t *testing.T) (*Ledger, *store.Store) {
	t.Helper()
	st := store.New(testutil.SetupTestDB(t))
	require.NoError(t, st.Players.Create(context.Background(), &model.Player{
		Key: "u1", Name: "Hero", Level: 1, HP: 100, MaxHP: 100, Attack: 20, Defense: 10,
	}))
	return NewLedger(st.Boosts, st.Players, zap.NewNop()), st
}

func TestInstall_Validation(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	assert.ErrorIs(t, l.Install(ctx, "u1", "speed", 1, 1), ErrUnknownKind)
	assert.ErrorIs(t, l.Install(ctx, "u1", KindAttack, 10, 0), ErrInvalidUses)
	assert.ErrorIs(t, l.Install(ctx, "u1", KindAttack, 0, 3), ErrInvalidValue)

	active, err := l.Active(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestInstall_OverwritesSameKind(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Install(ctx, "u1", KindAttack, 10, 3))
	require.NoError(t, l.Tick(ctx, "u1"))
	require.NoError(t, l.Install(ctx, "u1", KindAttack, 10, 3))

	active, err := l.Active(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, 3, active[0].Uses, "reinstalling refreshes rather than stacks")
}

func TestTick(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Install(ctx, "u1", KindAttack, 10, 1))
	require.NoError(t, l.Install(ctx, "u1", KindExpMultiplier, 2, 3))
	require.NoError(t, l.Tick(ctx, "u1"))

	active, err := l.Active(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, KindExpMultiplier, active[0].Kind)
	assert.Equal(t, 2, active[0].Uses)

	// Ticking an empty ledger is harmless.
	require.NoError(t, l.Tick(ctx, "nobody"))
}

func TestTick_UsesCountDown(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	rapid.Check(t, func(t *rapid.T) {
		uses := rapid.IntRange(1, 6).Draw(t, "uses")
		require.NoError(t, l.Install(ctx, "u1", KindDefense, 5, uses))
		for i := 1; i <= uses; i++ {
			require.NoError(t, l.Tick(ctx, "u1"))
			active, err := l.Active(ctx, "u1")
			require.NoError(t, err)
			if i == uses {
				assert.Empty(t, active)
			} else {
				require.Len(t, active, 1)
				assert.Equal(t, uses-i, active[0].Uses)
			}
		}
	})
}

func TestEffectiveStats(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	e, err := l.EffectiveStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Effective{Attack: 20, Defense: 10, ExpMultiplier: 1, GoldMultiplier: 1}, e)

	require.NoError(t, l.Install(ctx, "u1", KindAttack, 10, 3))
	require.NoError(t, l.Install(ctx, "u1", KindDefense, 10, 3))
	require.NoError(t, l.Install(ctx, "u1", KindExpMultiplier, 2, 5))
	require.NoError(t, l.Install(ctx, "u1", KindGoldMultiplier, 1.5, 5))

	e, err = l.EffectiveStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Effective{Attack: 30, Defense: 20, ExpMultiplier: 2, GoldMultiplier: 1.5}, e)

	_, err = l.EffectiveStats(ctx, "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
