package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/ksred/flex-sync/internal/flex"
)

// Config carries all runtime settings. Values come from the
// environment, with a .env file loaded first when present.
type Config struct {
	Port        string
	DBPath      string
	BackupDir   string
	JWTSecret   string
	APIKey      string
	APISecret   string
	FlexToken   string
	FlexQueryID int
	FlexBaseURL string
	Strategy    flex.Strategy
}

// Load reads configuration from the environment
func Load() *Config {
	// A missing .env file is fine; real deployments set env vars directly
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DBPath:      getEnv("DB_PATH", "trades.db"),
		BackupDir:   getEnv("BACKUP_DIR", "backups"),
		JWTSecret:   getEnv("JWT_SECRET", "flex-sync-secret-key"),
		APIKey:      getEnv("API_KEY", "test-api-key"),
		APISecret:   getEnv("API_SECRET", "test-api-secret"),
		FlexToken:   os.Getenv("FLEX_TOKEN"),
		FlexBaseURL: getEnv("FLEX_BASE_URL", flex.DefaultBaseURL),
		Strategy:    flex.StrategyDirect,
	}

	if raw := os.Getenv("FLEX_QUERY_ID"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			log.Warn().Str("value", raw).Msg("FLEX_QUERY_ID is not an integer, ignoring")
		} else {
			cfg.FlexQueryID = id
		}
	}

	// Which handshake variant a server expects is a deployment choice;
	// both are supported and neither can be auto-detected
	if raw := os.Getenv("FLEX_STRATEGY"); raw != "" {
		switch flex.Strategy(raw) {
		case flex.StrategyTwoPhase, flex.StrategyDirect:
			cfg.Strategy = flex.Strategy(raw)
		default:
			log.Warn().Str("value", raw).Msg("unknown FLEX_STRATEGY, using direct")
		}
	}

	if cfg.FlexToken == "" {
		log.Warn().Msg("FLEX_TOKEN not set; remote sync will fail until configured")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
