package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Storage    StorageConfig
	Tracing    TracingConfig `mapstructure:"tracing"`
	Redis      RedisConfig
	Evaluator  EvaluatorConfig  `mapstructure:"evaluator"`
	Proctoring ProctoringConfig `mapstructure:"proctoring"`
	CORS       CORSConfig       `mapstructure:"cors"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`

	// 演示用准入码，独立于一般凭证流程（见 verify_service）
	DemoCodes []DemoCode `mapstructure:"demo_codes"`

	// 保护支持热更新的段（Proctoring、DemoCodes），其余段只在启动时写入
	mu sync.RWMutex
}

// ProctoringPolicy 监考策略快照。策略支持热更新，
// 请求处理路径必须走快照读取而不是直接访问字段。
func (c *Config) ProctoringPolicy() ProctoringConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Proctoring
}

// DemoCodeTable 演示码表快照。热更新整体替换切片，不原地修改元素。
func (c *Config) DemoCodeTable() []DemoCode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.DemoCodes
}

// ApplyHotReload 只覆盖支持在线生效的段，其余配置改动需要重启
func (c *Config) ApplyHotReload(nc *Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Proctoring = nc.Proctoring
	c.DemoCodes = nc.DemoCodes
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// EvaluatorConfig 外部代码评测能力（OpenAI 兼容接口）
type EvaluatorConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	// 请求超时（秒）
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// ProctoringConfig 监考策略。观测到的默认值是配置项而不是固定不变量。
type ProctoringConfig struct {
	// strike 预算：违规达到该次数立即自动交卷
	StrikeBudget int `mapstructure:"strike_budget"`
	// 每个 strike 对最终合成分的百分比罚则
	StrikePenaltyPct float64 `mapstructure:"strike_penalty_pct"`
	// 诚信分低于该阈值进入 flagged 软告警态
	FlagThreshold int `mapstructure:"flag_threshold"`
	// 同一 IP 在窗口内允许的核销失败次数
	VerifyAttemptLimit int `mapstructure:"verify_attempt_limit"`
	// 失败计数窗口（分钟）
	VerifyWindowMinutes int `mapstructure:"verify_window_minutes"`
}

// DemoCode 演示账号准入码，绕过一般凭证校验的路径必须显式列在配置里
type DemoCode struct {
	Code         string `mapstructure:"code"`
	Email        string `mapstructure:"email"`
	AssessmentID uint   `mapstructure:"assessment_id"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("TALENTGATE")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Evaluator
	viper.BindEnv("evaluator.base_url", "EVALUATOR_BASE_URL")
	viper.BindEnv("evaluator.api_key", "EVALUATOR_API_KEY")
	viper.BindEnv("evaluator.model", "EVALUATOR_MODEL")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	// 监考策略默认值即线上观察值
	viper.SetDefault("proctoring.strike_budget", 3)
	viper.SetDefault("proctoring.strike_penalty_pct", 5.0)
	viper.SetDefault("proctoring.flag_threshold", 30)
	viper.SetDefault("proctoring.verify_attempt_limit", 10)
	viper.SetDefault("proctoring.verify_window_minutes", 15)
	viper.SetDefault("evaluator.timeout_seconds", 30)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}
