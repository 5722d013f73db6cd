package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Game      GameConfig      `mapstructure:"game"`
	World     WorldConfig     `mapstructure:"world"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Database  DatabaseConfig  `mapstructure:"database"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

// GameConfig holds the timing and allowance knobs. The client renderer reads
// the same values, so both sides agree without re-negotiation.
type GameConfig struct {
	CoinFlipDelay      time.Duration `mapstructure:"coin_flip_delay"`
	BuildPhaseDuration time.Duration `mapstructure:"build_phase_duration"`
	TurnDuration       time.Duration `mapstructure:"turn_duration"`
	ShotDelay          time.Duration `mapstructure:"shot_delay"`
	ShotValidityWindow time.Duration `mapstructure:"shot_validity_window"`
	SyncInterval       time.Duration `mapstructure:"sync_interval"`
	ReconnectGrace     time.Duration `mapstructure:"reconnect_grace"`
	BlocksPerType      int           `mapstructure:"blocks_per_type"`
}

type WorldConfig struct {
	Width        float64    `mapstructure:"width"`
	Height       float64    `mapstructure:"height"`
	GroundHeight float64    `mapstructure:"ground_height"`
	Player1Area  AreaConfig `mapstructure:"player1_area"`
	Player2Area  AreaConfig `mapstructure:"player2_area"`
}

// AreaConfig is a player's exclusive horizontal placement band.
type AreaConfig struct {
	X     float64 `mapstructure:"x"`
	Width float64 `mapstructure:"width"`
}

type RateLimitConfig struct {
	Placement CategoryLimit `mapstructure:"placement"`
	Shot      CategoryLimit `mapstructure:"shot"`
	Other     CategoryLimit `mapstructure:"other"`
}

type CategoryLimit struct {
	MaxCount int           `mapstructure:"max_count"`
	Window   time.Duration `mapstructure:"window"`
}

type DatabaseConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", ":8081")
	v.SetDefault("server.metrics_address", ":9090")

	v.SetDefault("game.coin_flip_delay", 5*time.Second)
	v.SetDefault("game.build_phase_duration", 30*time.Second)
	v.SetDefault("game.turn_duration", 30*time.Second)
	v.SetDefault("game.shot_delay", 3*time.Second)
	v.SetDefault("game.shot_validity_window", 10*time.Second)
	v.SetDefault("game.sync_interval", 2*time.Second)
	v.SetDefault("game.reconnect_grace", 30*time.Second)
	v.SetDefault("game.blocks_per_type", 3)

	v.SetDefault("world.width", 1200.0)
	v.SetDefault("world.height", 600.0)
	v.SetDefault("world.ground_height", 50.0)
	v.SetDefault("world.player1_area.x", 0.0)
	v.SetDefault("world.player1_area.width", 400.0)
	v.SetDefault("world.player2_area.x", 800.0)
	v.SetDefault("world.player2_area.width", 400.0)

	v.SetDefault("rate_limit.placement.max_count", 20)
	v.SetDefault("rate_limit.placement.window", 10*time.Second)
	v.SetDefault("rate_limit.shot.max_count", 5)
	v.SetDefault("rate_limit.shot.window", 10*time.Second)
	v.SetDefault("rate_limit.other.max_count", 30)
	v.SetDefault("rate_limit.other.window", 10*time.Second)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", "doodle_duals")
}

// LoadConfig reads config.yaml from path if present. Every option has a
// default, so a missing file is not an error.
func LoadConfig(path string) (config *Config, err error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, err
		}
	}

	err = v.Unmarshal(&config)
	return
}

// Default returns the built-in configuration without touching the filesystem.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic("config: failed to unmarshal defaults: " + err.Error())
	}
	return &cfg
}
