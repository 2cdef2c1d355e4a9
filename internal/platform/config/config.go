package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string
	// Refresh Token Config
	RefreshTokenExpiryDuration time.Duration

	// BootstrapAPIKey seeds the very first API token so a fresh deployment
	// can authenticate and mint real tokens. Empty disables bootstrapping.
	BootstrapAPIKey string

	// Commission and gateway fee tables. Rates are fractions in [0,1].
	DefaultCommissionRate decimal.Decimal
	CommissionRates       map[string]decimal.Decimal
	DefaultGatewayFeeRate decimal.Decimal
	GatewayFeeRates       map[string]decimal.Decimal
	// CategoryAliases maps caller-supplied labels to canonical category strings.
	CategoryAliases map[string]string

	AllowedOrigins []string

	// ManualPaymentInstructions is shown to payers on manual/offline intents,
	// e.g. bank transfer details. Empty falls back to a generated reference line.
	ManualPaymentInstructions string

	// Notification dispatch
	RedisAddr               string
	RedisPassword           string
	NotifyHookURL           string
	NotifyOAuthClientID     string `mapstructure:"NOTIFY_OAUTH_CLIENT_ID"`
	NotifyOAuthClientSecret string `mapstructure:"NOTIFY_OAUTH_CLIENT_SECRET"`
	NotifyOAuthTokenURL     string `mapstructure:"NOTIFY_OAUTH_TOKEN_URL"`

	WebhookRateLimit string
	PosthogAPIKey    string `mapstructure:"POSTHOG_API_KEY"`
}

// CommissionRateFor returns the commission rate for a category, falling back
// to the default rate when the category has no explicit entry.
func (c *Config) CommissionRateFor(category string) decimal.Decimal {
	if rate, ok := c.CommissionRates[category]; ok {
		return rate
	}
	return c.DefaultCommissionRate
}

// GatewayFeeRateFor returns the gateway fee rate for a provider name, falling
// back to the default rate when the provider has no explicit entry.
func (c *Config) GatewayFeeRateFor(gateway string) decimal.Decimal {
	if rate, ok := c.GatewayFeeRates[gateway]; ok {
		return rate
	}
	return c.DefaultGatewayFeeRate
}

// ResolveCategory maps a caller-supplied label to its canonical category.
// Unknown labels pass through unchanged.
func (c *Config) ResolveCategory(label string) string {
	if canonical, ok := c.CategoryAliases[label]; ok {
		return canonical
	}
	return label
}

// parseRateTable parses "key:rate,key:rate" into a map of decimal rates.
// Malformed entries are logged and skipped so a typo never takes the app down.
func parseRateTable(raw string, name string) map[string]decimal.Decimal {
	table := make(map[string]decimal.Decimal)
	if raw == "" {
		return table
	}
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 || parts[0] == "" {
			log.Printf("Warning: Skipping malformed entry %q in %s.\n", pair, name)
			continue
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
		if err != nil {
			log.Printf("Warning: Skipping entry %q in %s: invalid rate (%v).\n", pair, name, err)
			continue
		}
		table[strings.TrimSpace(parts[0])] = rate
	}
	return table
}

// parseAliasTable parses "label:canonical,label:canonical" into a string map.
func parseAliasTable(raw string, name string) map[string]string {
	table := make(map[string]string)
	if raw == "" {
		return table
	}
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			log.Printf("Warning: Skipping malformed entry %q in %s.\n", pair, name)
			continue
		}
		table[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return table
}

// parseRate parses a single decimal rate with a fallback default.
func parseRate(raw string, name string, fallback decimal.Decimal) decimal.Decimal {
	if raw == "" {
		return fallback
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		log.Printf("Warning: Invalid value for %s (%q). Defaulting to %s.\n", name, raw, fallback.String())
		return fallback
	}
	return rate
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "payment-ledger-app")
	viper.SetDefault("REFRESH_TOKEN_EXPIRY_DURATION", "168h")
	viper.SetDefault("BOOTSTRAP_API_KEY", "")
	viper.SetDefault("COMMISSION_DEFAULT_RATE", "0")
	viper.SetDefault("COMMISSION_RATES", "")
	viper.SetDefault("GATEWAY_FEE_DEFAULT_RATE", "0")
	viper.SetDefault("GATEWAY_FEE_RATES", "")
	viper.SetDefault("CATEGORY_ALIASES", "")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("NOTIFY_HOOK_URL", "")
	viper.SetDefault("NOTIFY_OAUTH_CLIENT_ID", "")
	viper.SetDefault("NOTIFY_OAUTH_CLIENT_SECRET", "")
	viper.SetDefault("NOTIFY_OAUTH_TOKEN_URL", "")
	viper.SetDefault("WEBHOOK_RATE_LIMIT", "120-M")
	viper.SetDefault("POSTHOG_API_KEY", "")

	// Read .env file if it exists
	// This allows overriding defaults with .env file values, which can then be overridden by actual environment variables.
	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
		// Consider returning an error depending on requirements
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080" // Default port
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	// Load JWT Secret
	jwtSecret := viper.GetString("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	// Load JWT Expiry Duration (e.g., "60m", "1h")
	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiryDuration, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiryDuration = time.Hour * 1 // Default to 1 hour
		if jwtExpiryStr != "" {
			log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiryDuration.String())
		}
	}

	// Load JWT Issuer
	jwtIssuer := viper.GetString("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "payment-ledger-app" // Default JWT issuer
		log.Printf("Warning: JWT_ISSUER not set. Defaulting to %s.\n", jwtIssuer)
	}

	// Load Refresh Token Expiry Duration (e.g., "168h" for 7 days)
	refreshTokenExpiryStr := viper.GetString("REFRESH_TOKEN_EXPIRY_DURATION")
	refreshTokenExpiryDuration, err := time.ParseDuration(refreshTokenExpiryStr)
	if err != nil {
		refreshTokenExpiryDuration = time.Hour * 24 * 7 // Default to 7 days
		if refreshTokenExpiryStr != "" {
			log.Printf("Warning: Invalid value for REFRESH_TOKEN_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", refreshTokenExpiryStr, refreshTokenExpiryDuration.String())
		} else {
			log.Printf("Warning: REFRESH_TOKEN_EXPIRY_DURATION not set. Defaulting to %s.\n", refreshTokenExpiryDuration.String())
		}
	}

	cfg.BootstrapAPIKey = viper.GetString("BOOTSTRAP_API_KEY")
	if cfg.BootstrapAPIKey == "" {
		log.Println("Warning: BOOTSTRAP_API_KEY not set. No bootstrap token will be provisioned.")
	}

	cfg.DefaultCommissionRate = parseRate(viper.GetString("COMMISSION_DEFAULT_RATE"), "COMMISSION_DEFAULT_RATE", decimal.Zero)
	cfg.CommissionRates = parseRateTable(viper.GetString("COMMISSION_RATES"), "COMMISSION_RATES")
	cfg.DefaultGatewayFeeRate = parseRate(viper.GetString("GATEWAY_FEE_DEFAULT_RATE"), "GATEWAY_FEE_DEFAULT_RATE", decimal.Zero)
	cfg.GatewayFeeRates = parseRateTable(viper.GetString("GATEWAY_FEE_RATES"), "GATEWAY_FEE_RATES")
	cfg.CategoryAliases = parseAliasTable(viper.GetString("CATEGORY_ALIASES"), "CATEGORY_ALIASES")

	originsStr := viper.GetString("CORS_ALLOWED_ORIGINS")
	for _, origin := range strings.Split(originsStr, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	cfg.ManualPaymentInstructions = viper.GetString("MANUAL_PAYMENT_INSTRUCTIONS")

	cfg.RedisAddr = viper.GetString("REDIS_ADDR")
	cfg.RedisPassword = viper.GetString("REDIS_PASSWORD")
	cfg.NotifyHookURL = viper.GetString("NOTIFY_HOOK_URL")
	cfg.NotifyOAuthClientID = viper.GetString("NOTIFY_OAUTH_CLIENT_ID")
	cfg.NotifyOAuthClientSecret = viper.GetString("NOTIFY_OAUTH_CLIENT_SECRET")
	cfg.NotifyOAuthTokenURL = viper.GetString("NOTIFY_OAUTH_TOKEN_URL")
	if cfg.RedisAddr == "" {
		log.Println("Warning: REDIS_ADDR not set. Notifications will log locally instead of queueing.")
	}

	cfg.WebhookRateLimit = viper.GetString("WEBHOOK_RATE_LIMIT")
	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.JWTSecret = jwtSecret
	cfg.JWTExpiryDuration = jwtExpiryDuration
	cfg.JWTIssuer = jwtIssuer
	cfg.RefreshTokenExpiryDuration = refreshTokenExpiryDuration

	return cfg, nil
}
