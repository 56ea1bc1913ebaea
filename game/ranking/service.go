package ranking

import (
	"context"
	"sort"

	"github.com/kasuganosora/textrpg/cache"
	"github.com/kasuganosora/textrpg/model"
	"github.com/kasuganosora/textrpg/store"
	"go.uber.org/zap"
)

const zKey = "ranking:exp"

// MaxEntries caps how many players the cached leaderboard tracks.
const MaxEntries = 100

// Entry is one row of the leaderboard.
type Entry struct {
	Rank        int    `json:"rank"`
	PlayerKey   string `json:"player_key"`
	Name        string `json:"name"`
	Level       int    `json:"level"`
	Exp         int64  `json:"exp"`
	Gold        int64  `json:"gold"`
	BattlesWon  int    `json:"battles_won"`
	BattlesLost int    `json:"battles_lost"`
}

// Service serves the leaderboard from a cache sorted set scored by
// experience, falling back to the player table. Level is derived from
// experience, so ordering by experience equals ordering by level then
// experience.
type Service struct {
	players store.Players
	cache   cache.Cache
	logger  *zap.Logger
}

// NewService creates a ranking Service.
func NewService(players store.Players, c cache.Cache, logger *zap.Logger) *Service {
	return &Service{players: players, cache: c, logger: logger}
}

// Record updates one player's score.
func (s *Service) Record(ctx context.Context, p *model.Player) {
	if err := s.cache.ZAdd(ctx, zKey, float64(p.Exp), p.Key); err != nil {
		s.logger.Warn("ranking update failed", zap.String("player", p.Key), zap.Error(err))
	}
}

// Refresh rebuilds the sorted set from the player table.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	ps, err := s.players.Top(ctx, MaxEntries)
	if err != nil {
		return 0, err
	}
	for i := range ps {
		s.Record(ctx, &ps[i])
	}
	return len(ps), nil
}

// Top returns the best limit players.
func (s *Service) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > MaxEntries {
		limit = MaxEntries
	}

	// Cached scores may lag the table, so every tracked member is re-read
	// and ordered by the fresh record before the board is cut to limit.
	members, err := s.cache.ZRevRange(ctx, zKey, 0, MaxEntries-1)
	if err == nil && len(members) > 0 {
		entries := make([]Entry, 0, len(members))
		for _, key := range members {
			p, err := s.players.Get(ctx, key)
			if err != nil {
				continue
			}
			entries = append(entries, entryOf(p))
		}
		sortEntries(entries)
		if len(entries) > limit {
			entries = entries[:limit]
		}
		return entries, nil
	}

	ps, err := s.players.Top(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(ps))
	for i := range ps {
		entries[i] = entryOf(&ps[i])
		entries[i].Rank = i + 1
		s.Record(ctx, &ps[i])
	}
	return entries, nil
}

// Rank returns the 1-based position of the player; ok is false when the
// player is not on the board.
func (s *Service) Rank(ctx context.Context, playerKey string) (rank int, ok bool, err error) {
	r, err := s.cache.ZRevRank(ctx, zKey, playerKey)
	if err == nil {
		return int(r) + 1, true, nil
	}
	if !cache.IsNotFound(err) {
		return 0, false, err
	}

	ps, err := s.players.Top(ctx, MaxEntries)
	if err != nil {
		return 0, false, err
	}
	for i := range ps {
		if ps[i].Key == playerKey {
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

func entryOf(p *model.Player) Entry {
	return Entry{
		PlayerKey:   p.Key,
		Name:        p.Name,
		Level:       p.Level,
		Exp:         p.Exp,
		Gold:        p.Gold,
		BattlesWon:  p.BattlesWon,
		BattlesLost: p.BattlesLost,
	}
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Level != entries[j].Level {
			return entries[i].Level > entries[j].Level
		}
		return entries[i].Exp > entries[j].Exp
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
