package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type GRPC struct {
	Addr string `yaml:"addr"` // пусто — gRPC health не поднимаем
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // mr-dcc-bot
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Channels struct {
	Welcome string `yaml:"welcome"` // канал, где разрешён !join_lwd
	Admin   string `yaml:"admin"`   // админские команды
	Log     string `yaml:"log"`     // журнал действий бота
}

type Roles struct {
	GroupTemplate    string `yaml:"groupTemplate"`    // "LWD - GR %s"
	CategoryTemplate string `yaml:"categoryTemplate"` // "Group %s"
	Mentee           string `yaml:"mentee"`
	Color            int    `yaml:"color"`
}

type Discord struct {
	Token              string   `yaml:"token"`
	GuildID            string   `yaml:"guildID"`
	MemberListCategory string   `yaml:"memberListCategory"`
	Channels           Channels `yaml:"channels"`
	Roles              Roles    `yaml:"roles"`
}

type Dialog struct {
	Timeout time.Duration `yaml:"timeout"`
}

type Assign struct {
	Interval time.Duration `yaml:"interval"` // пауза между пользователями при массовом назначении
}

type Storage struct {
	Driver string   `yaml:"driver"` // sqlite|postgres
	Path   string   `yaml:"path"`
	Pool   Postgres `yaml:"postgres"`
}

type Postgres struct {
	DSN               string        `yaml:"dsn"`
	MaxConns          int32         `yaml:"maxConns"`
	MinConns          int32         `yaml:"minConns"`
	MaxConnLifetime   time.Duration `yaml:"maxConnLifetime"`
	MaxConnIdleTime   time.Duration `yaml:"maxConnIdleTime"`
	HealthCheckPeriod time.Duration `yaml:"healthCheckPeriod"`
	ApplicationName   string        `yaml:"applicationName"`
}

type Roster struct {
	Path    string `yaml:"path"`
	Preload bool   `yaml:"preload"`
}

type Config struct {
	HTTP            HTTP          `yaml:"http"`
	GRPC            GRPC          `yaml:"grpc"`
	Logging         Logging       `yaml:"logging"`
	Discord         Discord       `yaml:"discord"`
	Dialog          Dialog        `yaml:"dialog"`
	Assign          Assign        `yaml:"assign"`
	Storage         Storage       `yaml:"storage"`
	Roster          Roster        `yaml:"roster"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// envOverrides — секреты и параметры деплоя, которые не кладём в yaml.
type envOverrides struct {
	DiscordToken       string `env:"DISCORD_TOKEN"`
	GuildID            string `env:"GUILD_ID"`
	MemberListCategory string `env:"LWD_CATEGORY_ID"`
	Port               string `env:"PORT"`
	DatabaseDSN        string `env:"DATABASE_DSN"`
	RosterPath         string `env:"ROSTER_PATH"`
	AppEnv             string `env:"APP_ENV"`
}

const DefaultPath = "./config/config.yaml"

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultPath
	}
	return Load(path)
}

// Load reads path, overlays the environment and validates. A missing file is
// not an error: the bot can run from environment variables alone.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if o.DiscordToken != "" {
		c.Discord.Token = o.DiscordToken
	}
	if o.GuildID != "" {
		c.Discord.GuildID = o.GuildID
	}
	if o.MemberListCategory != "" {
		c.Discord.MemberListCategory = o.MemberListCategory
	}
	if o.Port != "" {
		c.HTTP.Addr = ":" + strings.TrimPrefix(o.Port, ":")
	}
	if o.DatabaseDSN != "" {
		c.Storage.Pool.DSN = o.DatabaseDSN
	}
	if o.RosterPath != "" {
		c.Roster.Path = o.RosterPath
	}
	if o.AppEnv != "" && c.Logging.Env == "" {
		c.Logging.Env = o.AppEnv
	}
	return nil
}

// установка дефолтов, если значения не указаны
func (c *Config) setDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":3008"
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "mr-dcc-bot"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}

	ch := &c.Discord.Channels
	if ch.Welcome == "" {
		ch.Welcome = "welcome-to-lwd"
	}
	if ch.Admin == "" {
		ch.Admin = "admin-mentorship"
	}
	if ch.Log == "" {
		ch.Log = "mr-dcc-logs"
	}

	r := &c.Discord.Roles
	if r.GroupTemplate == "" {
		r.GroupTemplate = "LWD - GR %s"
	}
	if r.CategoryTemplate == "" {
		r.CategoryTemplate = "Group %s"
	}
	if r.Mentee == "" {
		r.Mentee = "Mentee"
	}
	if r.Color == 0 {
		r.Color = 0xFF5733
	}

	if c.Dialog.Timeout <= 0 {
		c.Dialog.Timeout = 60 * time.Second
	}
	if c.Assign.Interval <= 0 {
		c.Assign.Interval = time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "./database.db"
	}
	if c.Roster.Path == "" {
		c.Roster.Path = "./mentorship_data.csv"
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite":
		if strings.TrimSpace(c.Storage.Path) == "" {
			return errors.New("storage.path is required for sqlite")
		}
	case "postgres":
		if c.Storage.Pool.DSN == "" {
			return errors.New("storage.postgres.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("storage.driver %q is not supported (sqlite|postgres)", c.Storage.Driver)
	}
	if strings.Count(c.Discord.Roles.GroupTemplate, "%s") != 1 {
		return errors.New("discord.roles.groupTemplate must contain exactly one %s")
	}
	if strings.Count(c.Discord.Roles.CategoryTemplate, "%s") != 1 {
		return errors.New("discord.roles.categoryTemplate must contain exactly one %s")
	}
	return nil
}

// ValidateDiscord is checked only by commands that connect to Discord.
func (c *Config) ValidateDiscord() error {
	if c.Discord.Token == "" {
		return errors.New("discord.token is required (set in config.yaml or DISCORD_TOKEN)")
	}
	if c.Discord.GuildID == "" {
		return errors.New("discord.guildID is required (set in config.yaml or GUILD_ID)")
	}
	return nil
}
