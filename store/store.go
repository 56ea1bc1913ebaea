// Package store is the record store: keyed collections of players, monster
// templates, battles and boosts on top of gorm. Operations are plain
// read-modify-write; callers get no isolation across calls.
package store

import (
	"context"
	"errors"

	"github.com/kasuganosora/textrpg/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a keyed record does not exist.
var ErrNotFound = errors.New("store: record not found")

// Players is the player collection.
type Players interface {
	Get(ctx context.Context, key string) (*model.Player, error)
	Create(ctx context.Context, p *model.Player) error
	Update(ctx context.Context, key string, fields map[string]interface{}) (*model.Player, error)
	List(ctx context.Context) ([]model.Player, error)
	Top(ctx context.Context, limit int) ([]model.Player, error)
}

// Monsters is the read-only monster template catalog.
type Monsters interface {
	Get(ctx context.Context, key string) (*model.Monster, error)
	List(ctx context.Context) ([]model.Monster, error)
	Seed(ctx context.Context, defaults []model.Monster) error
}

// Battles is the battle record collection.
type Battles interface {
	Save(ctx context.Context, b *model.Battle) error
	Get(ctx context.Context, id string) (*model.Battle, error)
	Latest(ctx context.Context, playerKey string) (*model.Battle, error)
	ListByPlayer(ctx context.Context, playerKey string, limit int) ([]model.Battle, error)
}

// Boosts is the per-player boost set, at most one entry per kind.
type Boosts interface {
	List(ctx context.Context, playerKey string) ([]model.PlayerBoost, error)
	Put(ctx context.Context, b *model.PlayerBoost) error
	Delete(ctx context.Context, playerKey, kind string) error
}

// Store bundles the gorm-backed collections.
type Store struct {
	Players  Players
	Monsters Monsters
	Battles  Battles
	Boosts   Boosts
}

// New creates a Store on db. The schema must already be migrated.
func New(db *gorm.DB) *Store {
	return &Store{
		Players:  &playerStore{db: db},
		Monsters: &monsterStore{db: db},
		Battles:  &battleStore{db: db},
		Boosts:   &boostStore{db: db},
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ---- players ----

type playerStore struct{ db *gorm.DB }

func (s *playerStore) Get(ctx context.Context, key string) (*model.Player, error) {
	var p model.Player
	if err := s.db.WithContext(ctx).Where("player_key = ?", key).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *playerStore) Create(ctx context.Context, p *model.Player) error {
	return s.db.WithContext(ctx).Create(p).Error
}

// Update applies a partial update by column name and returns the fresh record.
func (s *playerStore) Update(ctx context.Context, key string, fields map[string]interface{}) (*model.Player, error) {
	res := s.db.WithContext(ctx).Model(&model.Player{}).Where("player_key = ?", key).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	return s.Get(ctx, key)
}

func (s *playerStore) List(ctx context.Context) ([]model.Player, error) {
	var ps []model.Player
	err := s.db.WithContext(ctx).Order("player_key").Find(&ps).Error
	return ps, err
}

// Top orders by level then experience, both descending.
func (s *playerStore) Top(ctx context.Context, limit int) ([]model.Player, error) {
	var ps []model.Player
	q := s.db.WithContext(ctx).Order("level DESC").Order("exp DESC").Order("player_key")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&ps).Error
	return ps, err
}

// ---- monsters ----

type monsterStore struct{ db *gorm.DB }

func (s *monsterStore) Get(ctx context.Context, key string) (*model.Monster, error) {
	var m model.Monster
	if err := s.db.WithContext(ctx).Where("monster_key = ?", key).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// List orders by difficulty then reward so the weakest monsters come first.
func (s *monsterStore) List(ctx context.Context) ([]model.Monster, error) {
	var ms []model.Monster
	err := s.db.WithContext(ctx).Order("difficulty").Order("reward").Order("monster_key").Find(&ms).Error
	return ms, err
}

// Seed inserts the defaults whose keys are missing and leaves existing rows
// untouched, so operators can rebalance monsters in the database.
func (s *monsterStore) Seed(ctx context.Context, defaults []model.Monster) error {
	if len(defaults) == 0 {
		return nil
	}
	rows := make([]model.Monster, len(defaults))
	copy(rows, defaults)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// ---- battles ----

type battleStore struct{ db *gorm.DB }

// Save inserts or fully overwrites the battle record.
func (s *battleStore) Save(ctx context.Context, b *model.Battle) error {
	return s.db.WithContext(ctx).Save(b).Error
}

func (s *battleStore) Get(ctx context.Context, id string) (*model.Battle, error) {
	var b model.Battle
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// Latest returns the most recently started battle of the player, in any status.
func (s *battleStore) Latest(ctx context.Context, playerKey string) (*model.Battle, error) {
	var b model.Battle
	err := s.db.WithContext(ctx).
		Where("player_key = ?", playerKey).
		Order("started_at DESC").
		First(&b).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// ListByPlayer returns terminal battles, newest first.
func (s *battleStore) ListByPlayer(ctx context.Context, playerKey string, limit int) ([]model.Battle, error) {
	var bs []model.Battle
	q := s.db.WithContext(ctx).
		Where("player_key = ? AND status <> ?", playerKey, model.BattleActive).
		Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&bs).Error
	return bs, err
}

// ---- boosts ----

type boostStore struct{ db *gorm.DB }

func (s *boostStore) List(ctx context.Context, playerKey string) ([]model.PlayerBoost, error) {
	var bs []model.PlayerBoost
	err := s.db.WithContext(ctx).Where("player_key = ?", playerKey).Order("kind").Find(&bs).Error
	return bs, err
}

// Put replaces the player's boost of the same kind.
func (s *boostStore) Put(ctx context.Context, b *model.PlayerBoost) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_key"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "uses"}),
	}).Create(b).Error
}

func (s *boostStore) Delete(ctx context.Context, playerKey, kind string) error {
	return s.db.WithContext(ctx).
		Where("player_key = ? AND kind = ?", playerKey, kind).
		Delete(&model.PlayerBoost{}).Error
}
