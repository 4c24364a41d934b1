package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server  ServerConfig
	App     AppConfig
	Cache   CacheConfig
	UnitDB  UnitDBConfig
	BuyerDB BuyerDBConfig
	VisitDB VisitDBConfig
	Access  AccessConfig
	Insight InsightConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"risewith9-sales-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	LoginKey    string `envconfig:"LOGIN_KEY" default:""` // Admin stats login key

	// Bootstrap builder account, created at startup when both are set.
	BuilderEmail    string `envconfig:"BUILDER_EMAIL" default:""`
	BuilderPassword string `envconfig:"BUILDER_PASSWORD" default:""`
}

// CacheConfig holds cache settings. Access codes, builder sessions and tour
// sessions live here with their TTLs.
type CacheConfig struct {
	Type string `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// UnitDBConfig holds unit inventory database settings.
type UnitDBConfig struct {
	Type string `envconfig:"UNIT_DB_TYPE" default:"sqlite"` // sqlite, postgres, mongodb, or memory
	Path string `envconfig:"UNIT_DB_PATH" default:"./data/sales.db"`
	// PostgreSQL settings
	Host     string `envconfig:"UNIT_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"UNIT_DB_PORT" default:"5432"`
	Name     string `envconfig:"UNIT_DB_NAME" default:"risewith9"`
	User     string `envconfig:"UNIT_DB_USER" default:"postgres"`
	Password string `envconfig:"UNIT_DB_PASS" default:""`
	SSLMode  string `envconfig:"UNIT_DB_SSLMODE" default:"disable"`
	// MongoDB settings
	MongoURI        string `envconfig:"MONGODB_URI" default:""`
	MongoDatabase   string `envconfig:"MONGODB_DATABASE" default:"risewith9"`
	MongoCollection string `envconfig:"MONGODB_COLLECTION" default:"units"`
	// Inventory seeding
	SeedTowers string `envconfig:"SEED_TOWERS" default:"9 South,9 North"`
	SeedFloors int    `envconfig:"SEED_FLOORS" default:"55"`
	SeedHomes  int    `envconfig:"SEED_HOMES" default:"4"`
}

// BuyerDBConfig holds buyer registry database settings.
type BuyerDBConfig struct {
	Type string `envconfig:"BUYER_DB_TYPE" default:"sqlite"` // sqlite, mysql, or memory
	Path string `envconfig:"BUYER_DB_PATH" default:"./data/sales.db"`
	// MySQL settings
	Host     string `envconfig:"BUYER_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"BUYER_DB_PORT" default:"3306"`
	Name     string `envconfig:"BUYER_DB_NAME" default:"risewith9"`
	User     string `envconfig:"BUYER_DB_USER" default:"root"`
	Password string `envconfig:"BUYER_DB_PASS" default:""`
}

// VisitDBConfig holds tour visit analytics database settings. The MongoDB
// backend reuses the unit store's MONGODB_URI and MONGODB_DATABASE.
type VisitDBConfig struct {
	Type            string `envconfig:"VISIT_DB_TYPE" default:"sqlite"` // sqlite, mongodb, or memory
	Path            string `envconfig:"VISIT_DB_PATH" default:"./data/sales.db"`
	MongoCollection string `envconfig:"VISIT_MONGODB_COLLECTION" default:"tour_visits"`
}

// AccessConfig holds access-code issuance settings.
type AccessConfig struct {
	CodePrefix      string        `envconfig:"ACCESS_CODE_PREFIX" default:"RISE-"`
	DefaultDuration time.Duration `envconfig:"ACCESS_CODE_DURATION" default:"60m"`
	SweepInterval   time.Duration `envconfig:"ACCESS_SWEEP_INTERVAL" default:"5m"`
}

// InsightConfig holds text-generation settings. An empty API key disables
// the feature; callers get the static fallback text instead.
type InsightConfig struct {
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY" default:""`
	Model        string `envconfig:"INSIGHT_MODEL" default:"gpt-4o-mini"`
}

// PostgresDSN returns the PostgreSQL connection string.
func (u *UnitDBConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		u.User, u.Password, u.Host, u.Port, u.Name, u.SSLMode)
}

// Towers returns the configured tower names.
func (u *UnitDBConfig) Towers() []string {
	var towers []string
	for _, t := range strings.Split(u.SeedTowers, ",") {
		if t = strings.TrimSpace(t); t != "" {
			towers = append(towers, t)
		}
	}
	return towers
}

// MySQLDSN returns the MySQL data source name.
func (b *BuyerDBConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		b.User, b.Password, b.Host, b.Port, b.Name)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
