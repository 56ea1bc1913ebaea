package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/kasuganosora/textrpg/config"
	"github.com/kasuganosora/textrpg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fight attacks until the battle ends and returns the final status.
func fight(t *testing.T, ts *TestServer, token string) (string, map[string]interface{}) {
	t.Helper()
	for i := 0; i < 50; i++ {
		body := Expect(t, ts.PostJSON(t, "/api/battle/attack", nil, token), http.StatusOK)
		if status := body["status"].(string); status != model.BattleActive {
			return status, body["result"].(map[string]interface{})
		}
	}
	t.Fatal("battle did not end")
	return "", nil
}

func TestGoblinVictoryPaysOut(t *testing.T) {
	ts := NewTestServer(t)
	key := UniqueID("hero")
	token := ts.Login(t, key, "Ayu")

	Expect(t, ts.PostJSON(t, "/api/battle", map[string]string{"monster": "goblin"}, token), http.StatusCreated)

	// Starting stats always beat a goblin: 13-17 damage against 50 HP while
	// taking at most 7 per counter.
	status, result := fight(t, ts, token)
	require.Equal(t, model.BattleVictory, status)
	reward := result["reward"].(map[string]interface{})
	assert.EqualValues(t, 20, reward["gold"])
	assert.EqualValues(t, 10, reward["exp"])

	p := ts.Player(t, key)
	assert.Equal(t, int64(120), p.Gold)
	assert.Equal(t, int64(10), p.Exp)
	assert.Equal(t, 1, p.BattlesWon)
	assert.Equal(t, 1, p.DailyBattles)
	assert.Greater(t, p.HP, 70)
	assert.Less(t, p.HP, 100)

	// The finished battle is history, not status.
	Expect(t, ts.Get(t, "/api/battle", token), http.StatusNotFound)
	body := Expect(t, ts.Get(t, "/api/battle/history", token), http.StatusOK)
	assert.Len(t, body["battles"], 1)
	Expect(t, ts.PostJSON(t, "/api/battle/attack", nil, token), http.StatusConflict)
}

func TestShopBoostCarriesIntoBattle(t *testing.T) {
	ts := NewTestServer(t)
	key := UniqueID("buyer")
	token := ts.Login(t, key, "Ayu")

	Expect(t, ts.PostJSON(t, "/api/shop/buy", map[string]string{"item": "attack_boost"}, token), http.StatusOK)
	assert.Equal(t, int64(20), ts.Player(t, key).Gold)

	body := Expect(t, ts.Get(t, "/api/player", token), http.StatusOK)
	assert.EqualValues(t, 30, body["effective"].(map[string]interface{})["attack"])

	body = Expect(t, ts.PostJSON(t, "/api/battle", map[string]string{"monster": "goblin"}, token), http.StatusCreated)
	b := body["battle"].(map[string]interface{})
	assert.EqualValues(t, 30, b["player"].(map[string]interface{})["attack"])

	Expect(t, ts.PostJSON(t, "/api/battle/attack", nil, token), http.StatusOK)
	body = Expect(t, ts.Get(t, "/api/boosts", token), http.StatusOK)
	boosts := body["boosts"].([]interface{})
	require.Len(t, boosts, 1)
	assert.EqualValues(t, 2, boosts[0].(map[string]interface{})["uses"])
}

func TestDailyLimitAndAdminReset(t *testing.T) {
	ts := NewTestServer(t, func(c *config.Config) { c.Game.DailyBattleCap = 2 })
	key := UniqueID("grinder")
	token := ts.Login(t, key, "Ayu")

	for i := 0; i < 2; i++ {
		Expect(t, ts.PostJSON(t, "/api/battle", map[string]string{"monster": "goblin"}, token), http.StatusCreated)
		Expect(t, ts.PostJSON(t, "/api/battle/flee", nil, token), http.StatusOK)
	}
	body := Expect(t, ts.PostJSON(t, "/api/battle", map[string]string{"monster": "goblin"}, token), http.StatusConflict)
	assert.Equal(t, "DAILY_LIMIT_EXCEEDED", body["code"])

	Expect(t, ts.Admin(t, http.MethodPost, "/api/admin/players/"+key+"/reset"), http.StatusOK)
	Expect(t, ts.PostJSON(t, "/api/battle", map[string]string{"monster": "goblin"}, token), http.StatusCreated)
}

func TestChatCommandsDriveTheSameGame(t *testing.T) {
	ts := NewTestServer(t)
	key := UniqueID("chat")
	token := ts.Login(t, key, "Ayu")

	out := ts.Command(t, token, ".rpg battle goblin")
	require.True(t, out.Success, out.Message)

	// The REST view sees the battle the chat command opened.
	body := Expect(t, ts.Get(t, "/api/battle", token), http.StatusOK)
	assert.Equal(t, "goblin", body["battle"].(map[string]interface{})["monster_key"])

	out = ts.Command(t, token, ".rpg battle orc")
	assert.False(t, out.Success)
	assert.Equal(t, "BATTLE_IN_PROGRESS", out.Code)

	out = ts.Command(t, token, "flee")
	require.True(t, out.Success, out.Message)

	out = ts.Command(t, token, ".rpg dance")
	assert.False(t, out.Success)
	assert.Equal(t, "UNKNOWN_COMMAND", out.Code)

	// Commands are audited asynchronously.
	ts.Audit.Stop(context.Background())
	var audit struct {
		Entries []map[string]interface{} `json:"entries"`
	}
	ReadJSON(t, ts.Admin(t, http.MethodGet, "/api/admin/audit/"+key), &audit)
	assert.Len(t, audit.Entries, 4)
}

func TestLeaderboardAfterBattles(t *testing.T) {
	ts := NewTestServer(t)
	a, b := UniqueID("a"), UniqueID("b")
	tokenA := ts.Login(t, a, "Alpha")
	ts.Login(t, b, "Beta")

	Expect(t, ts.PostJSON(t, "/api/battle", map[string]string{"monster": "goblin"}, tokenA), http.StatusCreated)
	status, _ := fight(t, ts, tokenA)
	require.Equal(t, model.BattleVictory, status)

	body := Expect(t, ts.Get(t, "/api/ranking", ""), http.StatusOK)
	entries := body["ranking"].([]interface{})
	require.Len(t, entries, 2)
	assert.Equal(t, a, entries[0].(map[string]interface{})["player_key"])

	body = Expect(t, ts.Get(t, "/api/player", tokenA), http.StatusOK)
	assert.EqualValues(t, 1, body["rank"])
}
