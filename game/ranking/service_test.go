package ranking

import (
	"context"
	"testing"

	"github.com/kasuganosora/textrpg/model"
	"github.com/kasuganosora/textrpg/store"
	"github.com/kasuganosora/textrpg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st := store.New(testutil.SetupTestDB(t))
	return NewService(st.Players, testutil.SetupTestCache(t), zap.NewNop()), st
}

func seedPlayers(t *testing.T, st *store.Store) {
	t.Helper()
	ctx := context.Background()
	for _, p := range []model.Player{
		{Key: "ayu", Name: "Ayu", Level: 2, Exp: 150, HP: 1, MaxHP: 1},
		{Key: "budi", Name: "Budi", Level: 3, Exp: 240, HP: 1, MaxHP: 1},
		{Key: "citra", Name: "Citra", Level: 1, Exp: 10, HP: 1, MaxHP: 1},
	} {
		p := p
		require.NoError(t, st.Players.Create(ctx, &p))
	}
}

func TestTop_FallsBackToTableAndWarmsCache(t *testing.T) {
	svc, st := setup(t)
	seedPlayers(t, st)
	ctx := context.Background()

	top, err := svc.Top(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "budi", top[0].PlayerKey)
	assert.Equal(t, 1, top[0].Rank)
	assert.Equal(t, "ayu", top[1].PlayerKey)
	assert.Equal(t, 2, top[1].Rank)

	rank, ok, err := svc.Rank(ctx, "ayu")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, rank)
}

func TestTop_UsesFreshRecords(t *testing.T) {
	svc, st := setup(t)
	seedPlayers(t, st)
	ctx := context.Background()

	n, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Citra overtakes everyone without the cache being told.
	_, err = st.Players.Update(ctx, "citra", map[string]interface{}{"level": 5, "exp": int64(420)})
	require.NoError(t, err)

	top, err := svc.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "citra", top[0].PlayerKey)
	assert.Equal(t, 5, top[0].Level)
	assert.Equal(t, 1, top[0].Rank)
	assert.Equal(t, 3, top[2].Rank)
}

func TestTop_StaleScoreBelowLimitStillMakesTheBoard(t *testing.T) {
	svc, st := setup(t)
	seedPlayers(t, st)
	ctx := context.Background()
	_, err := svc.Refresh(ctx)
	require.NoError(t, err)

	// Citra is last by cached score but first by the table.
	_, err = st.Players.Update(ctx, "citra", map[string]interface{}{"level": 5, "exp": int64(420)})
	require.NoError(t, err)

	top, err := svc.Top(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "citra", top[0].PlayerKey)
	assert.Equal(t, 1, top[0].Rank)
}

func TestRecord_UpdatesRank(t *testing.T) {
	svc, st := setup(t)
	seedPlayers(t, st)
	ctx := context.Background()
	_, err := svc.Refresh(ctx)
	require.NoError(t, err)

	svc.Record(ctx, &model.Player{Key: "citra", Exp: 999})
	rank, ok, err := svc.Rank(ctx, "citra")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, rank)
}

func TestRank_UnknownPlayer(t *testing.T) {
	svc, st := setup(t)
	seedPlayers(t, st)

	_, ok, err := svc.Rank(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTop_EmptyBoard(t *testing.T) {
	svc, _ := setup(t)
	top, err := svc.Top(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, top)
}
