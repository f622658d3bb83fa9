// Package config loads the hosewatch runtime configuration: credentials and
// process options from the environment, and the watched networks from a
// settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/gabapcia/hosewatch/internal/infra/notify/discord"
	"github.com/gabapcia/hosewatch/internal/pkg/validator"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by hosewatch. Fields with an
// explicit envconfig name also accept the unprefixed variable.
const EnvPrefix = "HOSEWATCH"

// Env holds the process options and credentials read from the environment.
type Env struct {
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error dpanic panic fatal"`
	SettingsPath     string `envconfig:"SETTINGS_PATH" default:"settings.json" validate:"required"`
	TelemetryEnabled bool   `envconfig:"TELEMETRY_ENABLED" default:"false"`

	// Only needed to watch networks. See RequireCredentials.
	DiscordWebhookURL string `envconfig:"DISCORD_WEBHOOK_URL" validate:"omitempty,url"`
	CoinMarketCapKey  string `envconfig:"COINMARKETCAP_KEY"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisUsername string `envconfig:"REDIS_USERNAME"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`
}

// LoadEnv reads the environment, preloading the given dotenv files when they
// exist. Variables already set in the process take precedence over the files.
func LoadEnv(dotenvFiles ...string) (Env, error) {
	for _, file := range dotenvFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Env{}, fmt.Errorf("error loading %s: %w", file, err)
		}
	}

	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return Env{}, err
	}

	if err := validator.Validate(env); err != nil {
		return Env{}, err
	}

	return env, nil
}

type credentials struct {
	DiscordWebhookURL string `validate:"required,url"`
	CoinMarketCapKey  string `validate:"required"`
}

// RequireCredentials returns a validation error unless the webhook URL and the
// price conversion API key are set.
func (e Env) RequireCredentials() error {
	return validator.Validate(credentials{
		DiscordWebhookURL: e.DiscordWebhookURL,
		CoinMarketCapKey:  e.CoinMarketCapKey,
	})
}

// Milliseconds is a duration written as an integer number of milliseconds.
type Milliseconds int64

func (m Milliseconds) Duration() time.Duration {
	return time.Duration(m) * time.Millisecond
}

// Duration is a time.Duration written in Go syntax ("24h", "90m").
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}

	*d = Duration(parsed)
	return nil
}

// Network describes one watched network/address pair.
type Network struct {
	Name             string       `yaml:"name" validate:"required"`
	APIURL           string       `yaml:"apiUrl" validate:"required,wsurl"`
	Address          string       `yaml:"address" validate:"required"`
	Symbol           string       `yaml:"symbol" validate:"required"`
	BlockExplorerURL string       `yaml:"blockExplorerUrl" validate:"required,url"`
	NetworkIcon      string       `yaml:"networkIcon" validate:"omitempty,url"`
	PingInterval     Milliseconds `yaml:"pingInterval" validate:"gt=0"`
	RetryInterval    Milliseconds `yaml:"retryInterval" validate:"gt=0"`
}

type PriceConversionAPI struct {
	URL string `yaml:"url" validate:"required,url"`
}

// Tracker tunes the transaction lifecycle tracking shared by all watchers.
// Zero values select the defaults.
type Tracker struct {
	TTL               Duration `yaml:"ttl" validate:"gte=0"`
	Capacity          *int     `yaml:"capacity" validate:"omitempty,gte=0"`
	SightingsToSettle int      `yaml:"sightingsToSettle" validate:"omitempty,gte=2"`
}

// Settings is the content of the settings file.
type Settings struct {
	Networks           []Network          `yaml:"networks" validate:"required,min=1,unique=Name,dive"`
	PriceConversionAPI PriceConversionAPI `yaml:"priceConversionApi"`
	WebhookTemplate    discord.Message    `yaml:"webhookTemplate"`
	Tracker            Tracker            `yaml:"tracker"`
}

// LoadSettings reads and validates the settings file at path. JSON files are
// accepted as they are valid YAML.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("error reading settings: %w", err)
	}

	return ParseSettings(data)
}

// ParseSettings decodes and validates settings.
func ParseSettings(data []byte) (Settings, error) {
	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("error parsing settings: %w", err)
	}

	if err := validator.Validate(settings); err != nil {
		return Settings{}, err
	}

	return settings, nil
}
