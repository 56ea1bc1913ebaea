package scheduler

import (
	"context"
	"time"

	"github.com/kasuganosora/textrpg/metrics"
	"go.uber.org/zap"
)

// Task names.
const (
	TaskDailyReset     = "daily_reset"
	TaskRankingRefresh = "ranking_refresh"
	TaskRankingWarmup  = "ranking_warmup"
)

const jobTimeout = time.Minute

// DailyResetter clears every player's daily battle counter.
type DailyResetter interface {
	ResetAllDailyAttempts(ctx context.Context) (int, error)
}

// RankingRefresher rebuilds the cached leaderboard.
type RankingRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

// Jobs holds the game's background jobs.
type Jobs struct {
	Progression DailyResetter
	Ranking     RankingRefresher
	Logger      *zap.Logger
}

// ResetDaily clears all daily counters and refreshes the leaderboard.
// Counters also reset lazily on a player's first attempt of a new day, so
// a missed run only delays the bookkeeping.
func (j *Jobs) ResetDaily(ctx context.Context) error {
	n, err := j.Progression.ResetAllDailyAttempts(ctx)
	if err != nil {
		j.Logger.Error("daily reset failed", zap.Error(err))
		return err
	}
	metrics.DailyReset(n)
	j.Logger.Info("daily battle counters reset", zap.Int("players", n))
	return j.RefreshRanking(ctx)
}

// RefreshRanking rebuilds the cached leaderboard from the player table.
func (j *Jobs) RefreshRanking(ctx context.Context) error {
	n, err := j.Ranking.Refresh(ctx)
	if err != nil {
		j.Logger.Warn("ranking refresh failed", zap.Error(err))
		return err
	}
	j.Logger.Debug("ranking refreshed", zap.Int("players", n))
	return nil
}

// Warmup rebuilds the leaderboard once in the background, so startup does
// not wait on a full player scan.
func (j *Jobs) Warmup(s *Scheduler) {
	s.AddDelay(TaskRankingWarmup, 0, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		_ = j.RefreshRanking(ctx)
	})
}

// Register schedules the daily reset at midnight of loc and, when interval
// is positive, a periodic leaderboard refresh.
func (j *Jobs) Register(s *Scheduler, loc *time.Location, interval time.Duration) {
	s.AddDaily(TaskDailyReset, loc, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		_ = j.ResetDaily(ctx)
	})
	if interval > 0 {
		s.AddTicker(TaskRankingRefresh, interval, func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			_ = j.RefreshRanking(ctx)
		})
	}
}
