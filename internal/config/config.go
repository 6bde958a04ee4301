package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	POS       POSConfig
	Seller    SellerConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
}

// RedisConfig selects the cache backend. An empty Addr keeps the cache in memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// POSConfig holds the point-of-sale profile defaults used when the profile
// row has not been customised.
type POSConfig struct {
	ProfileName          string
	BusinessType         string
	Currency             string
	ReturnLookbackDays   int
	StockRefreshInterval time.Duration
	SessionTTL           time.Duration
	ConfigCacheTTL       time.Duration
	LookupConcurrency    int
}

type SellerConfig struct {
	Name      string
	VATNumber string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	// Set defaults
	viper.SetDefault("APP_NAME", "klikpos-core")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "klikpos")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "Asia/Riyadh")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("POS_PROFILE_NAME", "Main Counter")
	viper.SetDefault("POS_BUSINESS_TYPE", "B2C")
	viper.SetDefault("POS_CURRENCY", "SAR")
	viper.SetDefault("POS_RETURN_LOOKBACK_DAYS", 30)
	viper.SetDefault("POS_STOCK_REFRESH_SECONDS", 30)
	viper.SetDefault("POS_SESSION_TTL_MINUTES", 240)
	viper.SetDefault("POS_CONFIG_CACHE_TTL_SECONDS", 300)
	viper.SetDefault("POS_LOOKUP_CONCURRENCY", 8)
	viper.SetDefault("SELLER_NAME", "")
	viper.SetDefault("SELLER_VAT_NUMBER", "")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)

	return &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		POS: POSConfig{
			ProfileName:          viper.GetString("POS_PROFILE_NAME"),
			BusinessType:         viper.GetString("POS_BUSINESS_TYPE"),
			Currency:             viper.GetString("POS_CURRENCY"),
			ReturnLookbackDays:   viper.GetInt("POS_RETURN_LOOKBACK_DAYS"),
			StockRefreshInterval: time.Duration(viper.GetInt("POS_STOCK_REFRESH_SECONDS")) * time.Second,
			SessionTTL:           time.Duration(viper.GetInt("POS_SESSION_TTL_MINUTES")) * time.Minute,
			ConfigCacheTTL:       time.Duration(viper.GetInt("POS_CONFIG_CACHE_TTL_SECONDS")) * time.Second,
			LookupConcurrency:    viper.GetInt("POS_LOOKUP_CONCURRENCY"),
		},
		Seller: SellerConfig{
			Name:      viper.GetString("SELLER_NAME"),
			VATNumber: viper.GetString("SELLER_VAT_NUMBER"),
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}
