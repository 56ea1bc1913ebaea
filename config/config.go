package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Game     GameConfig     `mapstructure:"game"`
	Security SecurityConfig `mapstructure:"security"`
}

type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	Debug    bool   `mapstructure:"debug"`
	AdminKey string `mapstructure:"admin_key"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | memory | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
}

// GameConfig holds the balance constants and the behavior policies of the
// battle engine.
type GameConfig struct {
	DailyBattleCap int    `mapstructure:"daily_battle_cap"`
	ExpPerLevel    int64  `mapstructure:"exp_per_level"`
	HealCost       int64  `mapstructure:"heal_cost"`
	LevelUpHP      int    `mapstructure:"level_up_hp"`
	LevelUpAtk     int    `mapstructure:"level_up_atk"`
	LevelUpDef     int    `mapstructure:"level_up_def"`
	StartHP        int    `mapstructure:"start_hp"`
	StartAtk       int    `mapstructure:"start_atk"`
	StartDef       int    `mapstructure:"start_def"`
	StartGold      int64  `mapstructure:"start_gold"`
	Timezone       string `mapstructure:"timezone"` // IANA name or "Local"

	HistoryLimit     int `mapstructure:"history_limit"`
	LeaderboardLimit int `mapstructure:"leaderboard_limit"`

	// RankingRefresh is how often the cached leaderboard is rebuilt; zero
	// disables the periodic job.
	RankingRefresh time.Duration `mapstructure:"ranking_refresh"`

	// ReplaceActiveBattle lets StartBattle silently overwrite an active battle
	// instead of rejecting it.
	ReplaceActiveBattle bool `mapstructure:"replace_active_battle"`
	// BoostTickOnFinalAttack ticks boosts on the attack that ends a battle too.
	BoostTickOnFinalAttack bool `mapstructure:"boost_tick_on_final_attack"`
	// StatBonusPerLevel grants the level-up bonus once per level crossed
	// instead of once per experience grant.
	StatBonusPerLevel bool `mapstructure:"stat_bonus_per_level"`
	// LevelUpHealWins keeps the level-up full heal when a victory levels the
	// player, instead of writing back the HP the battle ended with.
	LevelUpHealWins bool `mapstructure:"level_up_heal_wins"`
}

// Location resolves Timezone, falling back to time.Local.
func (g GameConfig) Location() *time.Location {
	if g.Timezone == "" || g.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(g.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

type SecurityConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTTTLH        time.Duration `mapstructure:"jwt_ttl_h"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
}

// DefaultGame returns the balance values the game ships with.
func DefaultGame() GameConfig {
	return GameConfig{
		DailyBattleCap:         10,
		ExpPerLevel:            100,
		HealCost:               20,
		LevelUpHP:              20,
		LevelUpAtk:             5,
		LevelUpDef:             3,
		StartHP:                100,
		StartAtk:               20,
		StartDef:               10,
		StartGold:              100,
		Timezone:               "Local",
		HistoryLimit:           5,
		LeaderboardLimit:       10,
		RankingRefresh:         5 * time.Minute,
		BoostTickOnFinalAttack: true,
	}
}

// Load reads config from the given YAML file path. Environment variables
// prefixed with TEXTRPG_ override file values (TEXTRPG_GAME_DAILY_BATTLE_CAP).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TEXTRPG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/rpg.db")
	v.SetDefault("database.mysql_max_open", 50)
	v.SetDefault("database.mysql_max_idle", 10)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("security.jwt_ttl_h", "72h")
	v.SetDefault("security.rate_limit_rps", 20)
	v.SetDefault("security.rate_limit_burst", 40)

	g := DefaultGame()
	v.SetDefault("game.daily_battle_cap", g.DailyBattleCap)
	v.SetDefault("game.exp_per_level", g.ExpPerLevel)
	v.SetDefault("game.heal_cost", g.HealCost)
	v.SetDefault("game.level_up_hp", g.LevelUpHP)
	v.SetDefault("game.level_up_atk", g.LevelUpAtk)
	v.SetDefault("game.level_up_def", g.LevelUpDef)
	v.SetDefault("game.start_hp", g.StartHP)
	v.SetDefault("game.start_atk", g.StartAtk)
	v.SetDefault("game.start_def", g.StartDef)
	v.SetDefault("game.start_gold", g.StartGold)
	v.SetDefault("game.timezone", g.Timezone)
	v.SetDefault("game.history_limit", g.HistoryLimit)
	v.SetDefault("game.leaderboard_limit", g.LeaderboardLimit)
	v.SetDefault("game.ranking_refresh", g.RankingRefresh.String())
	v.SetDefault("game.replace_active_battle", g.ReplaceActiveBattle)
	v.SetDefault("game.boost_tick_on_final_attack", g.BoostTickOnFinalAttack)
	v.SetDefault("game.stat_bonus_per_level", g.StatBonusPerLevel)
	v.SetDefault("game.level_up_heal_wins", g.LevelUpHealWins)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
