package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	RPCURL       string
	PriceAPIURL  string
	PairAPIURL   string
	TokenListURL string
	DatabaseURL  string

	CacheDir         string
	PriceCacheTTL    time.Duration
	MetadataCacheTTL time.Duration

	PriceBatchSize      int
	PriceBatchDelay     time.Duration
	LiquidityCheckDelay time.Duration

	LowValueThreshold  decimal.Decimal
	HighValueThreshold decimal.Decimal
	MinLiquidityUSD    decimal.Decimal
	AllowlistExtra     []string

	ProxyURLs       []string
	IdentityCeiling int
	OutboundTimeout time.Duration

	WarmInterval time.Duration

	HTTPPort    string
	AdminAPIKey string

	SpreadsheetID         string
	GoogleCredentialsJSON string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		RPCURL:       envOrDefault("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		PriceAPIURL:  envOrDefault("PRICE_API_URL", "https://fe-api.jup.ag/api/v1"),
		PairAPIURL:   envOrDefault("PAIR_API_URL", "https://api.dexscreener.com/latest/dex"),
		TokenListURL: envOrDefault("TOKEN_LIST_URL", "https://tokens.jup.ag/tokens?tags=verified"),
		DatabaseURL:  envOrDefault("DATABASE_URL", ""),

		CacheDir:         envOrDefault("CACHE_DIR", "cache"),
		PriceCacheTTL:    envOrDefaultDuration("PRICE_CACHE_TTL", 5*time.Minute),
		MetadataCacheTTL: envOrDefaultDuration("METADATA_CACHE_TTL", 24*time.Hour),

		PriceBatchSize:      envOrDefaultInt("PRICE_BATCH_SIZE", 100),
		PriceBatchDelay:     envOrDefaultDuration("PRICE_BATCH_DELAY", 500*time.Millisecond),
		LiquidityCheckDelay: envOrDefaultDuration("LIQUIDITY_CHECK_DELAY", 200*time.Millisecond),

		LowValueThreshold:  envOrDefaultDecimal("LOW_VALUE_THRESHOLD", decimal.NewFromInt(10)),
		HighValueThreshold: envOrDefaultDecimal("HIGH_VALUE_THRESHOLD", decimal.NewFromInt(10_000)),
		MinLiquidityUSD:    envOrDefaultDecimal("MIN_LIQUIDITY_USD", decimal.NewFromInt(1_000)),
		AllowlistExtra:     envOrDefaultList("ALLOWLIST_MINTS", nil),

		ProxyURLs:       envOrDefaultList("PROXY_URLS", nil),
		IdentityCeiling: envOrDefaultInt("IDENTITY_REQUEST_CEILING", 50),
		OutboundTimeout: envOrDefaultDuration("OUTBOUND_TIMEOUT", 10*time.Second),

		WarmInterval: envOrDefaultDuration("PRICE_WARM_INTERVAL", 5*time.Minute),

		HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey: envOrDefault("ADMIN_API_KEY", ""),

		SpreadsheetID:         envOrDefault("REPORT_SPREADSHEET_ID", ""),
		GoogleCredentialsJSON: envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

func envOrDefaultDecimal(key string, defaultVal decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			slog.Warn("invalid decimal env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

// envOrDefaultList parses a comma-separated env var, trimming whitespace and
// dropping empty entries.
func envOrDefaultList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
