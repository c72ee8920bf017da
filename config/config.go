package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Env       string
	LogLevel  string
	Server    Server
	Database  Database
	LLM       LLM
	Auth      Auth
	Redis     Redis
	Scheduler Scheduler
	Answers   Answers
	Tracing   Tracing
}

type Server struct {
	Port           string
	Mode           string
	AllowedOrigins []string
}

// Database points at the Supabase Postgres instance. URL wins over the discrete fields.
type Database struct {
	URL         string
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	AutoMigrate bool
}

type LLM struct {
	Provider      string // "openai" or "gemini"
	OpenAIApiKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	GeminiApiKey  string
	GeminiModel   string
	Timeout       time.Duration
}

type Auth struct {
	JWTSecret  string
	SessionTTL time.Duration
	CookieName string
	// AdminRequiresToken refuses the X-User-CPF header on admin routes.
	AdminRequiresToken bool
}

type Redis struct {
	Addr     string
	Password string
	DB       int
	LeaseTTL time.Duration
}

type Scheduler struct {
	Enabled  bool
	Interval time.Duration
	Timezone string
}

type Answers struct {
	MaxAttempts int
}

type Tracing struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
	SampleRatio  float64
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Env = viper.GetString("ENV")
	config.LogLevel = viper.GetString("LOG_LEVEL")

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Server.Mode = viper.GetString("GIN_MODE")
	config.Server.AllowedOrigins = splitList(viper.GetString("ALLOWED_ORIGINS"))

	config.Database.URL = viper.GetString("DATABASE_URL")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")
	config.Database.SSLMode = viper.GetString("DATABASE_SSLMODE")
	config.Database.AutoMigrate = viper.GetBool("DATABASE_AUTO_MIGRATE")

	config.LLM.Provider = strings.ToLower(strings.TrimSpace(viper.GetString("LLM_PROVIDER")))
	config.LLM.OpenAIApiKey = viper.GetString("OPENAI_API_KEY")
	config.LLM.OpenAIBaseURL = viper.GetString("OPENAI_BASE_URL")
	config.LLM.OpenAIModel = viper.GetString("OPENAI_MODEL")
	config.LLM.GeminiApiKey = viper.GetString("GEMINI_API_KEY")
	config.LLM.GeminiModel = viper.GetString("GEMINI_MODEL")
	config.LLM.Timeout = viper.GetDuration("LLM_TIMEOUT")

	config.Auth.JWTSecret = viper.GetString("APP_JWT_SECRET")
	config.Auth.SessionTTL = viper.GetDuration("SESSION_TTL")
	config.Auth.CookieName = viper.GetString("SESSION_COOKIE")
	config.Auth.AdminRequiresToken = viper.GetBool("ADMIN_REQUIRE_TOKEN")

	config.Redis.Addr = viper.GetString("REDIS_ADDR")
	config.Redis.Password = viper.GetString("REDIS_PASSWORD")
	config.Redis.DB = viper.GetInt("REDIS_DB")
	config.Redis.LeaseTTL = viper.GetDuration("GENERATION_LEASE_TTL")

	config.Scheduler.Enabled = viper.GetBool("RELEASE_SWEEP_ENABLED")
	config.Scheduler.Interval = viper.GetDuration("RELEASE_SWEEP_INTERVAL")
	config.Scheduler.Timezone = viper.GetString("RELEASE_TIMEZONE")

	config.Answers.MaxAttempts = viper.GetInt("MAX_ATTEMPTS")

	config.Tracing.Enabled = viper.GetBool("OTEL_ENABLED")
	config.Tracing.ServiceName = viper.GetString("OTEL_SERVICE_NAME")
	config.Tracing.OTLPEndpoint = viper.GetString("OTEL_EXPORTER_OTLP_ENDPOINT")
	config.Tracing.SampleRatio = viper.GetFloat64("OTEL_SAMPLER_RATIO")

	if err := config.validate(); err != nil {
		return nil, err
	}

	log.Info().
		Str("env", config.Env).
		Str("port", config.Server.Port).
		Str("llmProvider", config.LLM.Provider).
		Bool("redisGuard", config.Redis.Addr != "").
		Bool("adminRequiresToken", config.Auth.AdminRequiresToken).
		Dur("sweepInterval", config.Scheduler.Interval).
		Msg("Config loaded")
	return &config, nil
}

func setDefaults() {
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	viper.SetDefault("DATABASE_PORT", "5432")
	viper.SetDefault("DATABASE_SSLMODE", "require")
	viper.SetDefault("DATABASE_AUTO_MIGRATE", true)
	viper.SetDefault("LLM_PROVIDER", "openai")
	viper.SetDefault("OPENAI_BASE_URL", "https://api.openai.com")
	viper.SetDefault("OPENAI_MODEL", "gpt-4o")
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault("LLM_TIMEOUT", "120s")
	viper.SetDefault("APP_JWT_SECRET", "change-me")
	viper.SetDefault("SESSION_TTL", "8h")
	viper.SetDefault("SESSION_COOKIE", "pbl_session")
	viper.SetDefault("ADMIN_REQUIRE_TOKEN", false)
	viper.SetDefault("GENERATION_LEASE_TTL", "30m")
	viper.SetDefault("RELEASE_SWEEP_ENABLED", true)
	viper.SetDefault("RELEASE_SWEEP_INTERVAL", "1m")
	viper.SetDefault("RELEASE_TIMEZONE", "America/Sao_Paulo")
	viper.SetDefault("MAX_ATTEMPTS", 3)
	viper.SetDefault("OTEL_SERVICE_NAME", "pbl-agro-api")
	viper.SetDefault("OTEL_SAMPLER_RATIO", 0.1)
}

func (c *Config) validate() error {
	if c.Database.URL == "" && c.Database.Host == "" {
		return fmt.Errorf("database is not configured: set DATABASE_URL or DATABASE_HOST")
	}
	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLM.Provider)
	}
	if c.Answers.MaxAttempts < 1 {
		return fmt.Errorf("MAX_ATTEMPTS must be at least 1, got %d", c.Answers.MaxAttempts)
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("RELEASE_SWEEP_INTERVAL must be positive")
	}
	if c.Env == "production" && c.Auth.JWTSecret == "change-me" {
		return fmt.Errorf("APP_JWT_SECRET must be set in production")
	}
	return nil
}

// Location returns the time zone release dates and times are written in.
func (s Scheduler) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", s.Timezone).Msg("Unknown release timezone, falling back to UTC")
		return time.UTC
	}
	return loc
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
