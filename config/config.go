package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	appDirName = ".render-ranker"
	dbFileName = "scores.db"
)

type Config struct {
	TelegramToken  string
	TelegramChatID int64
	DBPath         string
	Workers        int
	LogLevel       string
	MetricsAddr    string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		DBPath:        envOr("RANKER_DB", defaultDBPath()),
		Workers:       runtime.NumCPU(),
		LogLevel:      envOr("RANKER_LOG_LEVEL", "info"),
		MetricsAddr:   os.Getenv("RANKER_METRICS_ADDR"),
	}

	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", v, err)
		}
		cfg.TelegramChatID = id
	}

	if v := os.Getenv("RANKER_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid RANKER_WORKERS %q", v)
		}
		cfg.Workers = n
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// defaultDBPath $HOME/.render-ranker/scores.db, либо файл в текущем каталоге
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return dbFileName
	}
	return filepath.Join(home, appDirName, dbFileName)
}
