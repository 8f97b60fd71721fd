package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Generator   GeneratorConfig  `mapstructure:"generator"`
	OpenRouter  OpenRouterConfig `mapstructure:"openrouter"`
	Gemini      GeminiConfig     `mapstructure:"gemini"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Lock        LockConfig       `mapstructure:"lock"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	Auth        AuthConfig       `mapstructure:"auth"`
	Menu        MenuConfig       `mapstructure:"menu"`
	DedupWindow time.Duration    `mapstructure:"dedup_window"`
	LogLevel    string           `mapstructure:"log_level"`
	LogDir      string           `mapstructure:"log_dir"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// DatabaseConfig SQLite 設定
type DatabaseConfig struct {
	Path        string `mapstructure:"path"`
	SeedRecipes bool   `mapstructure:"seed_recipes"`
}

// RedisConfig Redis 連線設定，關閉時鎖與快取使用記憶體實作
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GeneratorConfig 食譜生成服務設定
type GeneratorConfig struct {
	Provider      string        `mapstructure:"provider"` // openrouter | gemini | none
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
	Temperature   float64       `mapstructure:"temperature"`
	MaxTokens     int           `mapstructure:"max_tokens"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// GeminiConfig Gemini 配置
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// CacheConfig 生成結果快取配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"` // memory | redis
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// LockConfig 每位使用者生成鎖設定
type LockConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// AuthConfig JWT 驗證設定；關閉時改讀 X-User-ID
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Secret  string `mapstructure:"secret"`
	Issuer  string `mapstructure:"issuer"`
}

// MenuConfig 週菜單生成設定
type MenuConfig struct {
	WeekStartDay   string  `mapstructure:"week_start_day"`
	Timezone       string  `mapstructure:"timezone"`
	MatchThreshold float64 `mapstructure:"match_threshold"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// FirstWeekday 解析一週的第一天
func (m MenuConfig) FirstWeekday() (time.Weekday, error) {
	d, ok := weekdays[strings.ToLower(strings.TrimSpace(m.WeekStartDay))]
	if !ok {
		return time.Sunday, fmt.Errorf("unknown week start day %q", m.WeekStartDay)
	}
	return d, nil
}

// Location 解析時區，空字串使用系統時區
func (m MenuConfig) Location() (*time.Location, error) {
	if m.Timezone == "" || strings.EqualFold(m.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(m.Timezone)
}

// LoadConfig 載入設定（.env 由 main 先行載入）
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定常用環境變量
	bindings := map[string]string{
		"openrouter.api_key":  "OPENROUTER_API_KEY",
		"openrouter.model":    "OPENROUTER_MODEL",
		"gemini.api_key":      "GEMINI_API_KEY",
		"gemini.model":        "GEMINI_MODEL",
		"generator.provider":  "GENERATOR_PROVIDER",
		"generator.timeout":   "GENERATOR_TIMEOUT",
		"database.path":       "DATABASE_PATH",
		"redis.enabled":       "REDIS_ENABLED",
		"redis.addr":          "REDIS_ADDR",
		"redis.password":      "REDIS_PASSWORD",
		"cache.enabled":       "CACHE_ENABLED",
		"cache.backend":       "CACHE_BACKEND",
		"auth.enabled":        "AUTH_ENABLED",
		"auth.secret":         "JWT_SECRET",
		"rate_limit.enabled":  "RATE_LIMIT_ENABLED",
		"rate_limit.requests": "RATE_LIMIT_REQUESTS",
		"rate_limit.window":   "RATE_LIMIT_WINDOW",
		"menu.week_start_day": "MENU_WEEK_START_DAY",
		"menu.timezone":       "MENU_TIMEZONE",
		"server.port":         "PORT",
		"dedup_window":        "DEDUP_WINDOW",
		"log_level":           "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	// 設定設定檔名稱和路徑
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// 每週最多需要生成的餐數（7 天 × 4 餐）
const slotsPerWeek = 28

// GenerationBudget 一次週菜單生成最長可能耗時。
// 有請求逾時時以其為上限，生成服務依剩餘時間改用備用餐點；否則為每餐都呼叫生成服務的最壞情況。
func (c *Config) GenerationBudget() time.Duration {
	if c.Server.RequestTimeout > 0 {
		return c.Server.RequestTimeout
	}
	return slotsPerWeek * c.Generator.Timeout
}

// MaskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "menu-planner")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "150s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// 資料庫設定
	v.SetDefault("database.path", "data/menu.db")
	v.SetDefault("database.seed_recipes", true)

	// Redis 設定
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	// 生成服務設定
	v.SetDefault("generator.provider", "openrouter")
	v.SetDefault("generator.timeout", "20s")
	v.SetDefault("generator.max_concurrent", 4)
	v.SetDefault("generator.temperature", 0.7)
	v.SetDefault("generator.max_tokens", 500)

	v.SetDefault("openrouter.model", "openai/gpt-4o-mini")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("gemini.model", "gemini-1.5-flash")

	// 快取設定；同一 prompt 在一週內重複出現，預設關閉以保留變化
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// 生成鎖設定
	v.SetDefault("lock.ttl", "3m")
	v.SetDefault("lock.retry_interval", "200ms")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	// 驗證設定
	v.SetDefault("auth.enabled", false)

	// 菜單設定
	v.SetDefault("menu.week_start_day", "sunday")
	v.SetDefault("menu.timezone", "Local")
	v.SetDefault("menu.match_threshold", 50.0)

	v.SetDefault("dedup_window", "2s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "logs")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	if config.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	switch config.Generator.Provider {
	case "openrouter", "gemini", "none":
	default:
		return fmt.Errorf("unknown generator provider %q", config.Generator.Provider)
	}
	if config.Generator.Timeout <= 0 {
		return fmt.Errorf("generator timeout must be positive")
	}
	if config.Generator.MaxConcurrent <= 0 {
		return fmt.Errorf("invalid generator max concurrent")
	}

	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
		if config.Cache.Backend == "redis" && !config.Redis.Enabled {
			return fmt.Errorf("redis cache backend requires redis.enabled")
		}
	}

	if config.Lock.TTL <= 0 || config.Lock.RetryInterval <= 0 {
		return fmt.Errorf("invalid lock settings")
	}
	if budget := config.GenerationBudget(); config.Lock.TTL <= budget {
		return fmt.Errorf("lock ttl %s must exceed the generation budget %s", config.Lock.TTL, budget)
	}

	if config.Auth.Enabled && config.Auth.Secret == "" {
		return fmt.Errorf("auth secret is required when auth is enabled")
	}

	if _, err := config.Menu.FirstWeekday(); err != nil {
		return err
	}
	if _, err := config.Menu.Location(); err != nil {
		return fmt.Errorf("invalid menu timezone: %w", err)
	}
	if config.Menu.MatchThreshold < 0 || config.Menu.MatchThreshold > 100 {
		return fmt.Errorf("menu match threshold must be within 0..100")
	}

	return nil
}
