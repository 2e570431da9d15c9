package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	App      AppConfig      `json:"app"`
	Redis    RedisConfig    `json:"redis"`
	NATS     NATSConfig     `json:"nats"`
	Auth     AuthConfig     `json:"auth"`
	Tier     TierConfig     `json:"tier"`
}

type ServerConfig struct {
	Port string `json:"port"`
	Host string `json:"host"`
	Mode string `json:"mode"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type AppConfig struct {
	Environment string `json:"environment"`
	Debug       bool   `json:"debug"`
	Version     string `json:"version"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       string `json:"db"`
	URL      string `json:"url"` // Built from components or can be overridden
}

type NATSConfig struct {
	URL string `json:"url"`
}

type AuthConfig struct {
	JWTSecret string `json:"-"`
}

// TierConfig defines the quota bundle for this deployment. Zero or negative
// values mean unlimited. QuotaScope selects whether the tour quota applies
// per owner or site-wide.
type TierConfig struct {
	Name                string   `json:"name"`
	MaxTours            int      `json:"maxTours"`
	MaxScenesPerTour    int      `json:"maxScenesPerTour"`
	MaxHotspotsPerScene int      `json:"maxHotspotsPerScene"`
	AllowedHotspotTypes []string `json:"allowedHotspotTypes"`
	QuotaScope          string   `json:"quotaScope"` // owner, global
}

// NewConfig creates a new configuration instance with environment variables
func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8092"),
			Host: getEnv("HOST", "0.0.0.0"),
			Mode: getEnv("GIN_MODE", "debug"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "tours_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		App: AppConfig{
			Environment: getEnv("ENVIRONMENT", "development"),
			Debug:       getBoolEnv("DEBUG", true),
			Version:     getEnv("VERSION", "1.0.0"),
		},
		Redis: buildRedisConfig(),
		NATS: NATSConfig{
			URL: os.Getenv("NATS_URL"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-do-not-use-in-production"),
		},
		Tier: buildTierConfig(),
	}
}

// buildTierConfig resolves the active tier. TIER=lite|pro picks a preset;
// individual TIER_* variables override preset values.
func buildTierConfig() TierConfig {
	tier := TierConfig{
		Name:                getEnv("TIER", "lite"),
		MaxTours:            1,
		MaxScenesPerTour:    5,
		MaxHotspotsPerScene: 5,
		AllowedHotspotTypes: []string{"info", "link", "scene"},
		QuotaScope:          getEnv("TIER_SCOPE", "owner"),
	}

	if tier.Name == "pro" {
		tier.MaxTours = 0 // unlimited
		tier.MaxScenesPerTour = 0
		tier.MaxHotspotsPerScene = 0
		tier.AllowedHotspotTypes = []string{"info", "link", "scene", "image", "video"}
	}

	tier.MaxTours = getIntEnv("TIER_MAX_TOURS", tier.MaxTours)
	tier.MaxScenesPerTour = getIntEnv("TIER_MAX_SCENES", tier.MaxScenesPerTour)
	tier.MaxHotspotsPerScene = getIntEnv("TIER_MAX_HOTSPOTS", tier.MaxHotspotsPerScene)
	if v := os.Getenv("TIER_HOTSPOT_TYPES"); v != "" {
		tier.AllowedHotspotTypes = splitAndTrim(v)
	}

	return tier
}

// buildRedisConfig builds the Redis configuration from environment variables
func buildRedisConfig() RedisConfig {
	// First check for explicit REDIS_URL override
	if url := os.Getenv("REDIS_URL"); url != "" {
		return RedisConfig{URL: url}
	}

	host := os.Getenv("REDIS_HOST")
	if host == "" {
		// No Redis configured; caching degrades to in-memory only.
		return RedisConfig{}
	}
	port := getEnv("REDIS_PORT", "6379")
	password := os.Getenv("REDIS_PASSWORD")
	db := getEnv("REDIS_DB", "0")

	var url string
	if password != "" {
		url = "redis://:" + password + "@" + host + ":" + port + "/" + db
	} else {
		url = "redis://" + host + ":" + port + "/" + db
	}

	return RedisConfig{
		Host:     host,
		Port:     port,
		Password: password,
		DB:       db,
		URL:      url,
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}

// IsDevelopment checks if the app is running in development mode
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if the app is running in production mode
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets environment variable with fallback
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getBoolEnv gets boolean environment variable with fallback
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getIntEnv gets integer environment variable with fallback
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
