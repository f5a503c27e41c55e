package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisGeoDB    int    `mapstructure:"REDIS_GEO_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Geocoding provider endpoint. Any JSON API returning {"lat":..,"lng":..}
	// for a ?q=<address> query works; the key is sent as a query parameter.
	GeocoderURL    string `mapstructure:"GEOCODER_URL"`
	GeocoderAPIKey string `mapstructure:"GEOCODER_API_KEY"`

	// Scheduling engine knobs.
	AutomaticSchedulingEnabled bool    `mapstructure:"AUTOMATIC_SCHEDULING_ENABLED"`
	SchedulingPriority         string  `mapstructure:"SCHEDULING_PRIORITY"` // cost | distance | availability | balanced
	MinDaysAhead               int     `mapstructure:"MIN_DAYS_AHEAD"`
	DefaultRadiusKm            float64 `mapstructure:"DEFAULT_RADIUS_KM"`
	DefaultDurationMinutes     int     `mapstructure:"DEFAULT_DURATION_MINUTES"`
	BalancedPriceWeight        float64 `mapstructure:"BALANCED_PRICE_WEIGHT"`
	BalancedDistanceWeight     float64 `mapstructure:"BALANCED_DISTANCE_WEIGHT"`
	BalancedLoadWeight         float64 `mapstructure:"BALANCED_LOAD_WEIGHT"`
	PriceCeiling               float64 `mapstructure:"PRICE_CEILING"`
	LoadCeiling                int     `mapstructure:"LOAD_CEILING"`
	WatchdogMinutes            int     `mapstructure:"WATCHDOG_MINUTES"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_GEO_DB", 1)
	viper.SetDefault("REDIS_QUEUE_DB", 2)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "caresched")
	viper.SetDefault("GEOCODER_URL", "")
	viper.SetDefault("GEOCODER_API_KEY", "")

	viper.SetDefault("AUTOMATIC_SCHEDULING_ENABLED", true)
	viper.SetDefault("SCHEDULING_PRIORITY", "balanced")
	viper.SetDefault("MIN_DAYS_AHEAD", 0)
	viper.SetDefault("DEFAULT_RADIUS_KM", 50.0)
	viper.SetDefault("DEFAULT_DURATION_MINUTES", 60)
	viper.SetDefault("BALANCED_PRICE_WEIGHT", 0.4)
	viper.SetDefault("BALANCED_DISTANCE_WEIGHT", 0.4)
	viper.SetDefault("BALANCED_LOAD_WEIGHT", 0.2)
	viper.SetDefault("PRICE_CEILING", 10000.0)
	viper.SetDefault("LOAD_CEILING", 50)
	viper.SetDefault("WATCHDOG_MINUTES", 30)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// SchedulingConfig is a point-in-time snapshot of the scheduling knobs,
// handed to the orchestrator at construction instead of being read ad hoc
// from the global config.
type SchedulingConfig struct {
	Enabled         bool
	Priority        string
	MinDaysAhead    int
	DefaultRadiusKm float64
	DefaultDuration time.Duration
	PriceWeight     float64
	DistanceWeight  float64
	LoadWeight      float64
	PriceCeiling    float64
	LoadCeiling     int
	WatchdogAfter   time.Duration
}

// SchedulingSnapshot builds a SchedulingConfig from the loaded AppConfig.
func SchedulingSnapshot() SchedulingConfig {
	return SchedulingConfig{
		Enabled:         AppConfig.AutomaticSchedulingEnabled,
		Priority:        AppConfig.SchedulingPriority,
		MinDaysAhead:    AppConfig.MinDaysAhead,
		DefaultRadiusKm: AppConfig.DefaultRadiusKm,
		DefaultDuration: time.Duration(AppConfig.DefaultDurationMinutes) * time.Minute,
		PriceWeight:     AppConfig.BalancedPriceWeight,
		DistanceWeight:  AppConfig.BalancedDistanceWeight,
		LoadWeight:      AppConfig.BalancedLoadWeight,
		PriceCeiling:    AppConfig.PriceCeiling,
		LoadCeiling:     AppConfig.LoadCeiling,
		WatchdogAfter:   time.Duration(AppConfig.WatchdogMinutes) * time.Minute,
	}
}
