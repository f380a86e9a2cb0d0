package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "yaml"
	envPrefix  = "FOCUSLOCK"
	appDir     = "focuslock"
)

const (
	keyReminderInterval = "reminder_interval"
	keyStorageBackend   = "storage.backend"
	keyRedisAddr        = "redis.addr"
	keyRedisPassword    = "redis.password"
	keyRedisDB          = "redis.db"
	keyHTTPAddr         = "http.addr"
	keyRuleDestination  = "rules.destination"
	keyRulePlugin       = "rules.plugin"
	keyNotifyBackend    = "notify.backend"
	keySoundEnabled     = "sound.enabled"
	keySoundVolume      = "sound.volume"
	keyLogLevel         = "log_level"
	keyLogFormat        = "log_format"
)

const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"

	NotifyDBus = "dbus"
	NotifyLog  = "log"
)

type Config struct {
	StateDir   string
	DBPath     string
	SocketPath string
	PIDPath    string
	LogPath    string

	ReminderInterval time.Duration
	StorageBackend   string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	HTTPAddr         string
	RuleDestination  string
	RulePlugin       string
	NotifyBackend    string
	SoundEnabled     bool
	SoundVolume      float64
	LogLevel         string
	LogFormat        string
}

// DefaultStateDir resolves $XDG_CONFIG_HOME/focuslock or its platform equivalent.
func DefaultStateDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	return filepath.Join(base, appDir), nil
}

func New(stateDir string) (Config, error) {
	return Load(viper.New(), stateDir)
}

// Load reads config.yaml from stateDir when present, then applies
// FOCUSLOCK_* environment overrides on top of the defaults.
func Load(v *viper.Viper, stateDir string) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	if stateDir == "" {
		return Config{}, fmt.Errorf("state dir is required")
	}

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(stateDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyReminderInterval, "10m")
	v.SetDefault(keyStorageBackend, StorageSQLite)
	v.SetDefault(keyRedisAddr, "127.0.0.1:6379")
	v.SetDefault(keyRedisPassword, "")
	v.SetDefault(keyRedisDB, 0)
	v.SetDefault(keyHTTPAddr, "127.0.0.1:7878")
	v.SetDefault(keyRuleDestination, "/blocked")
	v.SetDefault(keyRulePlugin, "")
	v.SetDefault(keyNotifyBackend, NotifyDBus)
	v.SetDefault(keySoundEnabled, true)
	v.SetDefault(keySoundVolume, 0.0)
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, "json")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		StateDir:         stateDir,
		DBPath:           filepath.Join(stateDir, "focuslock.db"),
		SocketPath:       filepath.Join(stateDir, "daemon.sock"),
		PIDPath:          filepath.Join(stateDir, "daemon.pid"),
		LogPath:          filepath.Join(stateDir, "daemon.log"),
		ReminderInterval: v.GetDuration(keyReminderInterval),
		StorageBackend:   strings.ToLower(strings.TrimSpace(v.GetString(keyStorageBackend))),
		RedisAddr:        v.GetString(keyRedisAddr),
		RedisPassword:    v.GetString(keyRedisPassword),
		RedisDB:          v.GetInt(keyRedisDB),
		HTTPAddr:         v.GetString(keyHTTPAddr),
		RuleDestination:  v.GetString(keyRuleDestination),
		RulePlugin:       v.GetString(keyRulePlugin),
		NotifyBackend:    strings.ToLower(strings.TrimSpace(v.GetString(keyNotifyBackend))),
		SoundEnabled:     v.GetBool(keySoundEnabled),
		SoundVolume:      v.GetFloat64(keySoundVolume),
		LogLevel:         v.GetString(keyLogLevel),
		LogFormat:        v.GetString(keyLogFormat),
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.ReminderInterval <= 0 {
		return fmt.Errorf("reminder_interval must be positive, got %s", c.ReminderInterval)
	}
	switch c.StorageBackend {
	case StorageSQLite, StorageRedis:
	default:
		return fmt.Errorf("unsupported storage.backend %q", c.StorageBackend)
	}
	switch c.NotifyBackend {
	case NotifyDBus, NotifyLog:
	default:
		return fmt.Errorf("unsupported notify.backend %q", c.NotifyBackend)
	}
	if c.RuleDestination == "" {
		return fmt.Errorf("rules.destination is required")
	}
	return nil
}
