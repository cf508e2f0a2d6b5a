package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Server
	Env            string
	Port           string
	AllowedOrigins []string

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Redis backs the distributed wallet lock when RedisAddr is set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Price feed
	PriceFeedLive    bool
	PriceFeedTimeout time.Duration

	// Wallet
	Currency    string
	SignupBonus decimal.Decimal
}

var appConfig *Config

// defaults mirrors every recognised key so viper's AutomaticEnv can see it.
var defaults = map[string]any{
	"env":                "development",
	"port":               "8080",
	"allowed_origins":    "*",
	"db_driver":          "postgres",
	"db_host":            "localhost",
	"db_port":            "5432",
	"db_user":            "pesaprime",
	"db_password":        "pesaprime",
	"db_name":            "pesaprime",
	"db_sslmode":         "disable",
	"sqlite_path":        "pesaprime.db",
	"jwt_secret":         "fallback-secret-key-for-dev-only",
	"jwt_expires_in":     "70m",
	"redis_addr":         "",
	"redis_password":     "",
	"redis_db":           0,
	"price_feed_live":    false,
	"price_feed_timeout": "3s",
	"currency":           "KES",
	"signup_bonus":       "0",
}

// Load loads configuration from the environment, an optional .env file and
// an optional YAML file named by CONFIG_FILE.
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
			log.Printf("Warning: config file %s not found", file)
		}
	}

	config := &Config{
		Env:            v.GetString("env"),
		Port:           v.GetString("port"),
		AllowedOrigins: splitList(v.GetString("allowed_origins")),

		DBDriver:   strings.ToLower(v.GetString("db_driver")),
		DBHost:     v.GetString("db_host"),
		DBPort:     v.GetString("db_port"),
		DBUser:     v.GetString("db_user"),
		DBPassword: v.GetString("db_password"),
		DBName:     v.GetString("db_name"),
		DBSSLMode:  v.GetString("db_sslmode"),
		SQLitePath: v.GetString("sqlite_path"),

		JWTSecret: v.GetString("jwt_secret"),

		RedisAddr:     v.GetString("redis_addr"),
		RedisPassword: v.GetString("redis_password"),
		RedisDB:       v.GetInt("redis_db"),

		PriceFeedLive: v.GetBool("price_feed_live"),
		Currency:      strings.ToUpper(v.GetString("currency")),
	}

	config.JWTExpirationDur = parseDuration(v.GetString("jwt_expires_in"), 70*time.Minute, "JWT_EXPIRES_IN")
	config.PriceFeedTimeout = parseDuration(v.GetString("price_feed_timeout"), 3*time.Second, "PRICE_FEED_TIMEOUT")

	bonus, err := decimal.NewFromString(v.GetString("signup_bonus"))
	if err != nil || bonus.IsNegative() {
		log.Printf("Warning: invalid SIGNUP_BONUS value '%s', falling back to 0\n", v.GetString("signup_bonus"))
		bonus = decimal.Zero
	}
	config.SignupBonus = bonus

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// Set replaces the process-wide configuration. Tests use it to pin a secret.
func Set(c *Config) {
	appConfig = c
}

func parseDuration(raw string, fallback time.Duration, key string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, fallback)
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
