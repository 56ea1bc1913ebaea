package audit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/kasuganosora/textrpg/model"
	"github.com/kasuganosora/textrpg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLog_FlushedOnStop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, zap.NewNop())

	svc.Log(Entry{
		TraceID:    "trace-123",
		PlayerKey:  "u1",
		Action:     "attack",
		Request:    []string{"attack"},
		Response:   map[string]bool{"success": true},
		DurationMs: 4,
	})
	svc.Stop(context.Background())

	var logs []model.AuditLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "trace-123", logs[0].TraceID)
	assert.Equal(t, "u1", logs[0].PlayerKey)
	assert.Equal(t, "attack", logs[0].Action)
	assert.Equal(t, 4, logs[0].DurationMs)

	var resp map[string]bool
	require.NoError(t, json.Unmarshal(logs[0].Response, &resp))
	assert.True(t, resp["success"])
}

func TestLog_BatchFlush(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, zap.NewNop())

	for i := 0; i < batchSize+5; i++ {
		svc.Log(Entry{PlayerKey: "u1", Action: "stats"})
	}
	svc.Stop(context.Background())

	var count int64
	require.NoError(t, db.Model(&model.AuditLog{}).Count(&count).Error)
	assert.Equal(t, int64(batchSize+5), count)
}

func TestRecent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, zap.NewNop())
	for _, a := range []string{"register", "battle", "attack"} {
		svc.Log(Entry{PlayerKey: "u1", Action: a})
	}
	svc.Log(Entry{PlayerKey: "u2", Action: "help", Error: "boom"})
	svc.Stop(context.Background())

	logs, err := svc.Recent(context.Background(), "u1", 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "attack", logs[0].Action)
	assert.Equal(t, "battle", logs[1].Action)
}

func TestStop_Idempotent(t *testing.T) {
	svc := New(testutil.SetupTestDB(t), zap.NewNop())
	svc.Stop(context.Background())
	svc.Stop(context.Background())
}

func TestLog_DropsWhenFull(t *testing.T) {
	svc := New(testutil.SetupTestDB(t), zap.NewNop())
	for i := 0; i < queueSize+10; i++ {
		svc.Log(Entry{Action: "flood"})
	}
	svc.Stop(context.Background())
}
