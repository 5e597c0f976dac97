package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config struct for environment variables.
type Config struct {
	MamID   string `envconfig:"MAM_ID" required:"true"`
	BaseURL string `envconfig:"BASE_URL" default:"https://www.myanonamouse.net"`

	DataDir        string   `envconfig:"DATA_DIR" default:"storage"`
	TorrentDir     string   `envconfig:"TORRENT_DIR" default:"storage/torrents"`
	DownloadDir    string   `envconfig:"DOWNLOAD_DIR" default:"storage/downloads"`
	ExtractDir     string   `envconfig:"EXTRACT_DIR"`
	DeleteArchives bool     `envconfig:"DELETE_ARCHIVES" default:"true"`
	SkipLists      []string `envconfig:"SKIP_LISTS" default:"sSat,unsat"`

	MaxFetch   int           `envconfig:"MAX_FETCH" default:"500"`
	TopResults int           `envconfig:"TOP_RESULTS" default:"10"`
	BatchDelay time.Duration `envconfig:"BATCH_DELAY" default:"5s"`

	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"1s"`
	SeedRatio    float64       `envconfig:"SEED_RATIO" default:"1.0"`
	SeedTime     time.Duration `envconfig:"SEED_TIME" default:"1h"`

	ListenPort      int `envconfig:"LISTEN_PORT" default:"6881"`
	MaxUploadRate   int `envconfig:"MAX_UPLOAD_RATE"`   // KB/s, 0 = unlimited
	MaxDownloadRate int `envconfig:"MAX_DOWNLOAD_RATE"` // KB/s, 0 = unlimited

	LogLevel           string        `envconfig:"LOG_LEVEL" default:"INFO"`
	DBPath             string        `envconfig:"DB_PATH" default:"storage/grabs.db"`
	DiscordWebhookURL  string        `envconfig:"DISCORD_WEBHOOK_URL"`
	StatsInterval      time.Duration `envconfig:"STATS_INTERVAL"`
	AutoSpendPoints    bool          `envconfig:"AUTO_SPEND_POINTS"`
	MetricsBindAddress string        `envconfig:"METRICS_BIND_ADDRESS"`
}

// LoadConfig reads environment variables and populates the Config struct.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env: %w", err)
	}

	return &cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
