package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestHandler_ExposesGameMetrics(t *testing.T) {
	done := HTTPStarted()
	RecordHTTPRequest(http.MethodGet, "/api/player", http.StatusOK, 3*time.Millisecond)
	done()
	RecordHTTPRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)
	BattleStarted("goblin")
	BattleFinished("fled")
	Damage("player", 15)
	Purchase("potion", 30)
	Command("", false)
	DailyReset(3)

	body := scrape(t)
	assert.Contains(t, body, `textrpg_http_requests_total{method="GET",route="/api/player",status="200"}`)
	assert.Contains(t, body, `route="unmatched"`)
	assert.Contains(t, body, `textrpg_battle_started_total{monster="goblin"}`)
	assert.Contains(t, body, `textrpg_battle_finished_total{status="fled"}`)
	assert.Contains(t, body, "textrpg_battle_damage_bucket")
	assert.Contains(t, body, `textrpg_shop_purchases_total{item="potion"}`)
	assert.Contains(t, body, `textrpg_command_handled_total{command="unknown",success="false"}`)
	assert.Contains(t, body, "textrpg_scheduler_daily_resets_total")
	assert.Contains(t, body, "go_goroutines")
}
