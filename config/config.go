package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	once sync.Once
	cfg  *Config
)

// Config holds the service configuration. Values come from an optional YAML
// file (CONVERTD_CONFIG), overridden by environment variables; a .env file is
// loaded first when present.
type Config struct {
	Addr          string `yaml:"addr"`
	UploadDir     string `yaml:"uploadDir"`
	ConvertedDir  string `yaml:"convertedDir"`
	MaxUploadSize int64  `yaml:"maxUploadSize"` // bytes

	MaxWorkers     int           `yaml:"maxWorkers"`
	ConvertTimeout time.Duration `yaml:"convertTimeout"`

	FFmpegPath  string `yaml:"ffmpegPath"`
	FFprobePath string `yaml:"ffprobePath"`
	PandocPath  string `yaml:"pandocPath"`

	LogLevel    string `yaml:"logLevel"`
	LogEncoding string `yaml:"logEncoding"`
	LogFile     string `yaml:"logFile"`
}

// Get returns the singleton configuration.
func Get() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found, falling back to environment variables")
		}

		cfg = &Config{
			Addr:           ":8080",
			UploadDir:      "uploads",
			ConvertedDir:   "converted",
			MaxUploadSize:  500 * 1024 * 1024, // 500MB
			MaxWorkers:     4,
			ConvertTimeout: 10 * time.Minute,
			FFmpegPath:     "ffmpeg",
			FFprobePath:    "ffprobe",
			PandocPath:     "pandoc",
			LogLevel:       "info",
			LogEncoding:    "json",
			LogFile:        "logs/convertd.log",
		}

		if path := os.Getenv("CONVERTD_CONFIG"); path != "" {
			if data, err := os.ReadFile(path); err != nil {
				log.Printf("Warning: can't read config file %s: %v", path, err)
			} else if err := yaml.Unmarshal(data, cfg); err != nil {
				log.Printf("Warning: can't parse config file %s: %v", path, err)
			}
		}

		applyEnv(cfg)
	})
	return cfg
}

func applyEnv(c *Config) {
	c.Addr = getEnv("CONVERTD_ADDR", c.Addr)
	c.UploadDir = getEnv("CONVERTD_UPLOAD_DIR", c.UploadDir)
	c.ConvertedDir = getEnv("CONVERTD_CONVERTED_DIR", c.ConvertedDir)
	c.MaxUploadSize = getEnvInt64("CONVERTD_MAX_UPLOAD_SIZE", c.MaxUploadSize)
	c.MaxWorkers = getEnvInt("CONVERTD_MAX_WORKERS", c.MaxWorkers)
	c.ConvertTimeout = getEnvDuration("CONVERTD_CONVERT_TIMEOUT", c.ConvertTimeout)
	c.FFmpegPath = getEnv("CONVERTD_FFMPEG", c.FFmpegPath)
	c.FFprobePath = getEnv("CONVERTD_FFPROBE", c.FFprobePath)
	c.PandocPath = getEnv("CONVERTD_PANDOC", c.PandocPath)
	c.LogLevel = getEnv("CONVERTD_LOG_LEVEL", c.LogLevel)
	c.LogEncoding = getEnv("CONVERTD_LOG_ENCODING", c.LogEncoding)
	c.LogFile = getEnv("CONVERTD_LOG_FILE", c.LogFile)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
