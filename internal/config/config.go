package config

import (
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/fakeyudi/tsync/internal/timecode"
)

// MinioConfig addresses the bucket the minio sink uploads to.
type MinioConfig struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	UseSSL    bool   `json:"use_ssl"`
}

// Config holds all configurable tsync settings.
type Config struct {
	TimeFormat     string      `json:"time_format"` // "mm:ss.mmm" | "hh:mm:ss.cc"
	PollIntervalMS int         `json:"poll_interval_ms"`
	OutputDir      string      `json:"output_dir"`
	Sink           string      `json:"sink"`  // "file" | "minio"
	Store          string      `json:"store"` // "disk" | "redis" | "mysql"
	RedisAddr      string      `json:"redis_addr"`
	RedisPassword  string      `json:"redis_password"`
	RedisDB        int         `json:"redis_db"`
	MySQLDSN       string      `json:"mysql_dsn"`
	Minio          MinioConfig `json:"minio"`
	BridgeAddr     string      `json:"bridge_addr"`
	LogLevel       string      `json:"log_level"`
	LogFile        string      `json:"log_file"` // empty disables file logging
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		TimeFormat:     timecode.MinutesMillis.String(),
		PollIntervalMS: 100,
		OutputDir:      ".",
		Sink:           "file",
		Store:          "disk",
		RedisAddr:      "127.0.0.1:6379",
		BridgeAddr:     "127.0.0.1:8765",
		LogLevel:       "info",
	}
}

// Codec builds the time codec named by TimeFormat.
func (c Config) Codec() (timecode.Codec, error) {
	l, err := timecode.ParseLayout(c.TimeFormat)
	if err != nil {
		return timecode.Codec{}, err
	}
	return timecode.New(l), nil
}

// PollInterval is PollIntervalMS as a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// Load reads the global and project files, merges them and applies the
// environment overlay.
func Load() (Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Config{}, err
	}
	project, err := LoadProject()
	if err != nil {
		return Config{}, err
	}
	cfg := Merge(global, project)
	ApplyEnv(&cfg)
	return cfg, nil
}

// LoadGlobal reads ~/.config/tsync/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// LoadProject reads .tsyncconfig in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".tsyncconfig", false)
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, layer := range []*Config{global, project} {
		if layer != nil {
			overlay(&result, layer)
		}
	}
	return result
}

// overlay copies every set field of src into dst.
func overlay(dst, src *Config) {
	setString(&dst.TimeFormat, src.TimeFormat)
	setString(&dst.OutputDir, src.OutputDir)
	setString(&dst.Sink, src.Sink)
	setString(&dst.Store, src.Store)
	setString(&dst.RedisAddr, src.RedisAddr)
	setString(&dst.RedisPassword, src.RedisPassword)
	setString(&dst.MySQLDSN, src.MySQLDSN)
	setString(&dst.BridgeAddr, src.BridgeAddr)
	setString(&dst.LogLevel, src.LogLevel)
	setString(&dst.LogFile, src.LogFile)
	if src.PollIntervalMS > 0 {
		dst.PollIntervalMS = src.PollIntervalMS
	}
	if src.RedisDB > 0 {
		dst.RedisDB = src.RedisDB
	}

	setString(&dst.Minio.Endpoint, src.Minio.Endpoint)
	setString(&dst.Minio.AccessKey, src.Minio.AccessKey)
	setString(&dst.Minio.SecretKey, src.Minio.SecretKey)
	setString(&dst.Minio.Bucket, src.Minio.Bucket)
	if src.Minio.UseSSL {
		dst.Minio.UseSSL = true
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ApplyEnv overlays TSYNC_* environment variables onto cfg. A .env file in
// the working directory is loaded first; it never overrides variables that
// are already set.
func ApplyEnv(cfg *Config) {
	_ = godotenv.Load() // absent .env is fine

	cfg.TimeFormat = getEnv("TSYNC_TIME_FORMAT", cfg.TimeFormat)
	cfg.PollIntervalMS = getEnvInt("TSYNC_POLL_INTERVAL_MS", cfg.PollIntervalMS)
	cfg.OutputDir = getEnv("TSYNC_OUTPUT_DIR", cfg.OutputDir)
	cfg.Sink = getEnv("TSYNC_SINK", cfg.Sink)
	cfg.Store = getEnv("TSYNC_STORE", cfg.Store)
	cfg.RedisAddr = getEnv("TSYNC_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("TSYNC_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvInt("TSYNC_REDIS_DB", cfg.RedisDB)
	cfg.MySQLDSN = getEnv("TSYNC_MYSQL_DSN", cfg.MySQLDSN)
	cfg.BridgeAddr = getEnv("TSYNC_BRIDGE_ADDR", cfg.BridgeAddr)
	cfg.LogLevel = getEnv("TSYNC_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("TSYNC_LOG_FILE", cfg.LogFile)
	cfg.Minio.Endpoint = getEnv("TSYNC_MINIO_ENDPOINT", cfg.Minio.Endpoint)
	cfg.Minio.AccessKey = getEnv("TSYNC_MINIO_ACCESS_KEY", cfg.Minio.AccessKey)
	cfg.Minio.SecretKey = getEnv("TSYNC_MINIO_SECRET_KEY", cfg.Minio.SecretKey)
	cfg.Minio.Bucket = getEnv("TSYNC_MINIO_BUCKET", cfg.Minio.Bucket)
	cfg.Minio.UseSSL = getEnvBool("TSYNC_MINIO_USE_SSL", cfg.Minio.UseSSL)
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
