// Package integration runs the HTTP API end to end against a real server
// listening on a random port, with an in-memory database and local cache.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/textrpg/api/rest"
	"github.com/kasuganosora/textrpg/audit"
	"github.com/kasuganosora/textrpg/cache"
	"github.com/kasuganosora/textrpg/config"
	"github.com/kasuganosora/textrpg/game/battle"
	"github.com/kasuganosora/textrpg/game/boost"
	"github.com/kasuganosora/textrpg/game/command"
	"github.com/kasuganosora/textrpg/game/progression"
	"github.com/kasuganosora/textrpg/game/ranking"
	"github.com/kasuganosora/textrpg/game/shop"
	mw "github.com/kasuganosora/textrpg/middleware"
	"github.com/kasuganosora/textrpg/model"
	"github.com/kasuganosora/textrpg/plugin/hook"
	"github.com/kasuganosora/textrpg/scheduler"
	"github.com/kasuganosora/textrpg/store"
	"github.com/kasuganosora/textrpg/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminKey is the operator key the test server accepts.
const AdminKey = "integration-admin"

// TestServer wraps a real HTTP server with every game service wired together.
type TestServer struct {
	DB     *gorm.DB
	Store  *store.Store
	Cache  cache.Cache
	Audit  *audit.Service
	Sched  *scheduler.Scheduler
	Server *httptest.Server
	URL    string // http://127.0.0.1:<port>
	Config *config.Config
}

// NewTestServer creates a fully wired server for integration testing.
// It mirrors the dependency wiring in main.go. mutate may adjust the game
// configuration before services are built.
func NewTestServer(t *testing.T, mutate ...func(*config.Config)) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// ---- Infrastructure ----
	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	logger := zap.NewNop()

	cfg := &config.Config{
		Server: config.ServerConfig{AdminKey: AdminKey},
		Game:   config.DefaultGame(),
		Security: config.SecurityConfig{
			JWTSecret:      "integration-test-secret",
			JWTTTLH:        72 * time.Hour,
			RateLimitRPS:   1000,
			RateLimitBurst: 2000,
		},
	}
	cfg.Game.Timezone = "UTC"
	for _, m := range mutate {
		m(cfg)
	}

	st := store.New(db)
	require.NoError(t, st.Monsters.Seed(context.Background(), model.DefaultMonsters()))
	auditSvc := audit.New(db, logger)

	// ---- Game Services ----
	rank := ranking.NewService(st.Players, c, logger)
	prog := progression.NewService(st.Players, rank, cfg.Game, logger)
	ledger := boost.NewLedger(st.Boosts, st.Players, logger)
	engine := battle.NewEngine(prog, ledger, st.Monsters, st.Battles, c, battle.Config{
		Game:   cfg.Game,
		Logger: logger,
	})
	shopSvc := shop.NewService(prog, ledger, logger)
	dispatcher := command.NewDispatcher(command.Deps{
		Progression: prog,
		Battles:     engine,
		Shop:        shopSvc,
		Boosts:      ledger,
		Ranking:     rank,
		Audit:       auditSvc,
		Game:        cfg.Game,
		Logger:      logger,
	})

	sched := scheduler.New(logger)
	jobs := &scheduler.Jobs{Progression: prog, Ranking: rank, Logger: logger}
	jobs.Register(sched, cfg.Game.Location(), cfg.Game.RankingRefresh)

	// ---- Gin HTTP Server ----
	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger), mw.Metrics())
	apirest.Register(r, apirest.Deps{
		Config:      cfg,
		Cache:       c,
		Progression: prog,
		Ledger:      ledger,
		Ranking:     rank,
		Battles:     engine,
		Shop:        shopSvc,
		Dispatcher:  dispatcher,
		Audit:       auditSvc,
		Jobs:        jobs,
		Scheduler:   sched,
		Hooks:       hook.NewCenter(logger),
		Logger:      logger,
	})

	server := httptest.NewServer(r)
	ts := &TestServer{
		DB:     db,
		Store:  st,
		Cache:  c,
		Audit:  auditSvc,
		Sched:  sched,
		Server: server,
		URL:    server.URL,
		Config: cfg,
	}
	t.Cleanup(ts.Close)
	return ts
}

// Close shuts down the server and background workers. It is safe to call
// more than once.
func (ts *TestServer) Close() {
	ts.Server.Close()
	ts.Sched.Stop()
	ts.Audit.Stop(context.Background())
}

// --- HTTP helpers ---

func (ts *TestServer) do(t *testing.T, method, path string, body interface{}, token string, headers ...string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// PostJSON sends a POST request with a JSON body and optional Bearer token.
func (ts *TestServer) PostJSON(t *testing.T, path string, body interface{}, token string) *http.Response {
	t.Helper()
	return ts.do(t, http.MethodPost, path, body, token)
}

// Get sends a GET request with an optional Bearer token.
func (ts *TestServer) Get(t *testing.T, path string, token string) *http.Response {
	t.Helper()
	return ts.do(t, http.MethodGet, path, nil, token)
}

// Delete sends a DELETE request with an optional Bearer token.
func (ts *TestServer) Delete(t *testing.T, path string, token string) *http.Response {
	t.Helper()
	return ts.do(t, http.MethodDelete, path, nil, token)
}

// Admin sends an operator request carrying the admin key.
func (ts *TestServer) Admin(t *testing.T, method, path string) *http.Response {
	t.Helper()
	return ts.do(t, method, path, nil, "", "X-Admin-Key", AdminKey)
}

// ReadJSON decodes and closes the response body.
func ReadJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target), "body: %s", string(data))
}

// Expect asserts the status code, decodes the body and returns it.
func Expect(t *testing.T, resp *http.Response, status int) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	ReadJSON(t, resp, &body)
	require.Equal(t, status, resp.StatusCode, "body: %v", body)
	return body
}

// --- Session helpers ---

// Login opens a session for playerKey, registering the player on first use.
func (ts *TestServer) Login(t *testing.T, playerKey, name string) string {
	t.Helper()
	resp := ts.PostJSON(t, "/api/session", map[string]string{"player_key": playerKey, "name": name}, "")
	var body struct {
		Token string `json:"token"`
	}
	ReadJSON(t, resp, &body)
	require.Contains(t, []int{http.StatusOK, http.StatusCreated}, resp.StatusCode)
	require.NotEmpty(t, body.Token)
	return body.Token
}

// Command runs a chat command line and returns the rendered reply.
func (ts *TestServer) Command(t *testing.T, token, line string) command.Response {
	t.Helper()
	resp := ts.PostJSON(t, "/api/command", map[string]string{"text": line}, token)
	var out command.Response
	ReadJSON(t, resp, &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return out
}

// Player reads the player record straight from the store.
func (ts *TestServer) Player(t *testing.T, key string) *model.Player {
	t.Helper()
	p, err := ts.Store.Players.Get(context.Background(), key)
	require.NoError(t, err)
	return p
}

var testCounter uint64

// UniqueID generates a unique player key for tests.
func UniqueID(prefix string) string {
	n := atomic.AddUint64(&testCounter, 1)
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano()%100000, n)
}
