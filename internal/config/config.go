// Package config loads the game bot's YAML configuration, selecting the
// file path from the ENV environment variable: "dev" reads from
// local/etc/config.yaml, anything else reads from etc/config.yaml.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// AdminConfig holds credentials for the out-of-scope HTTP admin surface;
// carried here so cmd/seed and internal/admin have somewhere to read them
// from once that surface exists.
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// BotConfig holds the Telegram bot token.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// DSN renders the standard libpq connection string pgx expects.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", d.User, d.Password, d.Host, d.Port, d.Database)
}

// SessionConfig holds the cookie-signing key reserved for the (out-of-scope)
// admin web surface.
type SessionConfig struct {
	Key string `mapstructure:"key"`
}

// BrokerConfig holds AMQP connection parameters and the shard fan-out.
type BrokerConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	NumberQueues  int    `mapstructure:"number_queues"`
	PrefetchCount int    `mapstructure:"prefetch_count"`
}

// URL renders the AMQP connection URL amqp091-go's Dial expects.
func (b BrokerConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", b.User, b.Password, b.Host, b.Port)
}

// GameConfig holds the gameplay tuning knobs: roster minimum, bonus wheel
// shape, and the four timeout clocks the FSM runs on.
type GameConfig struct {
	MinNumberOfParticipants  int   `mapstructure:"min_number_of_participants"`
	WheelSectors             []int `mapstructure:"wheel_sectors"`
	SectorWeights            []int `mapstructure:"sector_weights"`
	LetterTurnTimeoutSeconds int   `mapstructure:"letter_turn_timeout_seconds"`
	WordTurnTimeoutSeconds   int   `mapstructure:"word_turn_timeout_seconds"`
	WaitingTimeoutSeconds    int   `mapstructure:"waiting_timeout_seconds"`
	TurnTimeoutSeconds       int   `mapstructure:"turn_timeout_seconds"`
}

// MetricsConfig holds the Prometheus exposition port.
type MetricsConfig struct {
	Port int `mapstructure:"port"`
}

// Config is the full set of configuration sections the bot reads at
// startup, shared by cmd/poller, cmd/worker and cmd/seed.
type Config struct {
	Admin    AdminConfig    `mapstructure:"admin"`
	Bot      BotConfig      `mapstructure:"bot"`
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	Broker   BrokerConfig   `mapstructure:"broker"`
	Game     GameConfig     `mapstructure:"game"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// Path resolves the config file path from the ENV environment variable:
// "dev" reads local/etc/config.yaml relative to the working directory,
// anything else reads etc/config.yaml.
func Path(env string) string {
	if env == "dev" {
		return "local/etc/config.yaml"
	}
	return "etc/config.yaml"
}

// Load reads and validates the YAML config file at path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("config %s: bot.token is required", path)
	}
	if cfg.Broker.NumberQueues <= 0 {
		return nil, fmt.Errorf("config %s: broker.number_queues must be positive", path)
	}
	if cfg.Game.MinNumberOfParticipants <= 0 {
		return nil, fmt.Errorf("config %s: game.min_number_of_participants must be positive", path)
	}

	return &cfg, nil
}
