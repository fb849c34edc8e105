package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the runtime configuration. Defaults come from the constants in
// this package, then an optional TOML file, then EXTRACTVIEW_* env vars.
type Config struct {
	ListenAddr    string `toml:"listen_addr"`
	UploadsDir    string `toml:"uploads_dir"`
	TagsFile      string `toml:"tags_file"`
	MaxUploadSize int64  `toml:"max_upload_size"`
	AuthToken     string `toml:"auth_token"`
	LogLevel      string `toml:"log_level"`
	LogJSON       bool   `toml:"log_json"`

	Tool      ToolConfig      `toml:"tool"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Render    RenderConfig    `toml:"render"`
	Redis     RedisConfig     `toml:"redis"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	OneDrive  OneDriveConfig  `toml:"onedrive"`
}

type ToolConfig struct {
	// Command is the argv prefix; the document path is appended.
	Command []string `toml:"command"`
}

type SchedulerConfig struct {
	Enabled           bool     `toml:"enabled"`
	Spec              string   `toml:"spec"`
	HeartbeatInterval Duration `toml:"heartbeat_interval"`
	StaleLockTimeout  Duration `toml:"stale_lock_timeout"`
}

type RenderConfig struct {
	Locale string `toml:"locale"`
}

type RedisConfig struct {
	Enabled  bool     `toml:"enabled"`
	Addr     string   `toml:"addr"`
	Password string   `toml:"password"`
	DB       int      `toml:"db"`
	TTL      Duration `toml:"ttl"`
}

type RateLimitConfig struct {
	PerSecond float64 `toml:"per_second"`
	Burst     int     `toml:"burst"`
}

type OneDriveConfig struct {
	TenantID     string `toml:"tenant_id"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	UserID       string `toml:"user_id"`
	RemoteFolder string `toml:"remote_folder"`
	RootPath     string `toml:"root_path"`
}

func (o OneDriveConfig) Enabled() bool {
	return o.ClientID != "" && o.ClientSecret != ""
}

// Duration lets TOML carry "10s"-style strings.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func Default() Config {
	return Config{
		ListenAddr:    ServerListenAddr,
		UploadsDir:    UploadsDir,
		TagsFile:      TagsFile,
		MaxUploadSize: MaxUploadSize,
		LogLevel:      "debug",
		LogJSON:       IS_PROD,
		Tool: ToolConfig{
			Command: []string{"python", "extract_pdf.py"},
		},
		Scheduler: SchedulerConfig{
			Enabled:           true,
			Spec:              SchedulerSpec,
			HeartbeatInterval: Duration{HeartbeatInterval},
			StaleLockTimeout:  Duration{StaleLockTimeout},
		},
		Render: RenderConfig{Locale: RenderLocale},
		Redis: RedisConfig{
			Enabled: true,
			Addr:    RedisAddr,
			DB:      RedisRenderCacheDB,
			TTL:     Duration{RedisRenderCacheTTL},
		},
		RateLimit: RateLimitConfig{
			PerSecond: RATE_LIMIT_PER_SECOND,
			Burst:     BURST_RATE_LIMIT_PER_SECOND,
		},
		OneDrive: OneDriveConfig{
			TenantID:     "common",
			RemoteFolder: OneDriveRemoteFolder,
		},
	}
}

// Load reads path (if it exists) over the defaults and applies env overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.UploadsDir == "" {
		return errors.New("uploads_dir must be set")
	}
	if len(c.Tool.Command) == 0 {
		return errors.New("tool.command must have at least one element")
	}
	if c.MaxUploadSize <= 0 {
		return errors.New("max_upload_size must be positive")
	}
	return nil
}

func (c Config) HistoryPath() string {
	return filepath.Join(c.UploadsDir, HistoryFileName)
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	str("EXTRACTVIEW_LISTEN_ADDR", &cfg.ListenAddr)
	str("EXTRACTVIEW_UPLOADS_DIR", &cfg.UploadsDir)
	str("EXTRACTVIEW_TAGS_FILE", &cfg.TagsFile)
	str("EXTRACTVIEW_AUTH_TOKEN", &cfg.AuthToken)
	str("EXTRACTVIEW_LOG_LEVEL", &cfg.LogLevel)
	str("EXTRACTVIEW_SCHEDULER_SPEC", &cfg.Scheduler.Spec)
	str("EXTRACTVIEW_LOCALE", &cfg.Render.Locale)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	str("ONEDRIVE_TENANT_ID", &cfg.OneDrive.TenantID)
	str("ONEDRIVE_CLIENT_ID", &cfg.OneDrive.ClientID)
	str("ONEDRIVE_CLIENT_SECRET", &cfg.OneDrive.ClientSecret)
	str("ONEDRIVE_USER_ID", &cfg.OneDrive.UserID)
	str("ONEDRIVE_ROOT_PATH", &cfg.OneDrive.RootPath)

	if v, ok := os.LookupEnv("EXTRACTVIEW_TOOL_COMMAND"); ok {
		cfg.Tool.Command = strings.Fields(v)
	}
	if v, ok := os.LookupEnv("EXTRACTVIEW_LOG_JSON"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("EXTRACTVIEW_LOG_JSON: %w", err)
		}
		cfg.LogJSON = b
	}
	if v, ok := os.LookupEnv("EXTRACTVIEW_REDIS_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("EXTRACTVIEW_REDIS_ENABLED: %w", err)
		}
		cfg.Redis.Enabled = b
	}
	if v, ok := os.LookupEnv("EXTRACTVIEW_STALE_LOCK_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("EXTRACTVIEW_STALE_LOCK_TIMEOUT: %w", err)
		}
		cfg.Scheduler.StaleLockTimeout = Duration{d}
	}
	return nil
}
