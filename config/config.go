package config

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Port     string
	ProxyURL string
	UseProxy bool
	GinMode  string
	// 日志
	LogLevel  string
	LogFormat string
	// 检索流水线
	PluginTimeout       time.Duration // 单个数据源超时
	SearchDeadline      time.Duration // 整个扇出阶段的截止时间
	DefaultLimit        int
	MaxLimit            int
	DefaultConcurrency  int
	EnabledProviders    []string // 为空表示全部启用
	ProviderRPS         float64  // 每个数据源的出站限流
	concurrencyExplicit bool
	// 数据源凭据
	BraveAPIKey     string
	BraveSearchURL  string
	SerperAPIKey    string
	SerpstackAPIKey string
	SearxngURL      string
	GoogleAPIKey    string
	ContactEmail    string
	// LLM
	LLMBaseURL        string
	LLMAPIKey         string
	LLMModel          string
	LLMTimeout        time.Duration
	RankBatchSize     int
	RankShuffle       bool
	RelevanceMinScore float64 // 0表示只排序不过滤
	// 缓存相关配置
	CacheEnabled   bool
	CacheTTL       time.Duration
	CacheMaxItems  int
	CacheMaxSizeMB int
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	// 压缩相关配置
	EnableCompression bool
	MinSizeToCompress int // 最小压缩大小（字节）
	// GC相关配置
	GCPercent      int  // GC触发阈值百分比
	OptimizeMemory bool // 是否启用内存优化
	// HTTP服务器配置
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	// 鉴权
	AuthJWTSecret string
}

// 全局配置实例
var AppConfig *Config

// 默认值
const (
	DefaultPort          = "8888"
	DefaultLLMBaseURL    = "https://api.groq.com/openai/v1"
	DefaultLLMModel      = "llama-3.1-70b-versatile"
	DefaultSearchLimit   = 15
	DefaultMaxLimit      = 50
	DefaultRankBatchSize = 25
)

// SetDefaults 设置所有配置项的默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", DefaultPort)
	v.SetDefault("gin_mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	v.SetDefault("plugin_timeout", 10)
	v.SetDefault("search_deadline", 25)
	v.SetDefault("default_limit", DefaultSearchLimit)
	v.SetDefault("max_limit", DefaultMaxLimit)
	v.SetDefault("concurrency", 0)
	v.SetDefault("enabled_providers", "")
	v.SetDefault("provider_rps", 0)

	v.SetDefault("llm_base_url", DefaultLLMBaseURL)
	v.SetDefault("llm_model", DefaultLLMModel)
	v.SetDefault("llm_timeout", 20)
	v.SetDefault("rank_batch_size", DefaultRankBatchSize)
	v.SetDefault("rank_shuffle", false)
	v.SetDefault("relevance_min_score", 0)

	v.SetDefault("cache_enabled", false)
	v.SetDefault("cache_ttl", 30)
	v.SetDefault("cache_max_items", 1000)
	v.SetDefault("cache_max_size_mb", 64)
	v.SetDefault("redis_db", 0)

	v.SetDefault("enable_compression", false)
	v.SetDefault("min_size_to_compress", 1024)

	v.SetDefault("gc_percent", 100)
	v.SetDefault("optimize_memory", false)

	v.SetDefault("http_read_timeout", 30)
	v.SetDefault("http_write_timeout", 0)
	v.SetDefault("http_idle_timeout", 120)
}

// NewViper 创建读取环境变量（和可选配置文件）的viper实例
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.AutomaticEnv()
	// GROQ_API_KEY作为LLM_API_KEY的别名
	if err := v.BindEnv("llm_api_key", "LLM_API_KEY", "GROQ_API_KEY"); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("elibrary")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Init 初始化全局配置
func Init(configFile string) error {
	v, err := NewViper(configFile)
	if err != nil {
		return err
	}
	AppConfig = Load(v)

	// 应用GC配置
	applyGCSettings()
	return nil
}

// Load 从viper实例构建配置
func Load(v *viper.Viper) *Config {
	proxyURL := strings.TrimSpace(v.GetString("proxy"))
	pluginTimeout := secondsOr(v.GetInt("plugin_timeout"), 10)

	cfg := &Config{
		Port:     v.GetString("port"),
		ProxyURL: proxyURL,
		UseProxy: proxyURL != "",
		GinMode:  v.GetString("gin_mode"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),

		PluginTimeout:    pluginTimeout,
		SearchDeadline:   secondsOr(v.GetInt("search_deadline"), 25),
		DefaultLimit:     positiveOr(v.GetInt("default_limit"), DefaultSearchLimit),
		MaxLimit:         positiveOr(v.GetInt("max_limit"), DefaultMaxLimit),
		EnabledProviders: splitList(v.GetString("enabled_providers")),
		ProviderRPS:      v.GetFloat64("provider_rps"),

		BraveAPIKey:     v.GetString("brave_api_key"),
		BraveSearchURL:  v.GetString("brave_search_url"),
		SerperAPIKey:    v.GetString("serper_api_key"),
		SerpstackAPIKey: v.GetString("serpstack_api_key"),
		SearxngURL:      v.GetString("searxng_url"),
		GoogleAPIKey:    v.GetString("google_api_key"),
		ContactEmail:    v.GetString("contact_email"),

		LLMBaseURL:        v.GetString("llm_base_url"),
		LLMAPIKey:         v.GetString("llm_api_key"),
		LLMModel:          v.GetString("llm_model"),
		LLMTimeout:        secondsOr(v.GetInt("llm_timeout"), 20),
		RankBatchSize:     positiveOr(v.GetInt("rank_batch_size"), DefaultRankBatchSize),
		RankShuffle:       v.GetBool("rank_shuffle"),
		RelevanceMinScore: clampScore(v.GetFloat64("relevance_min_score")),

		CacheEnabled:   v.GetBool("cache_enabled"),
		CacheTTL:       time.Duration(positiveOr(v.GetInt("cache_ttl"), 30)) * time.Minute,
		CacheMaxItems:  positiveOr(v.GetInt("cache_max_items"), 1000),
		CacheMaxSizeMB: positiveOr(v.GetInt("cache_max_size_mb"), 64),
		RedisAddr:      strings.TrimSpace(v.GetString("redis_addr")),
		RedisPassword:  v.GetString("redis_password"),
		RedisDB:        v.GetInt("redis_db"),

		EnableCompression: v.GetBool("enable_compression"),
		MinSizeToCompress: positiveOr(v.GetInt("min_size_to_compress"), 1024),

		GCPercent:      positiveOr(v.GetInt("gc_percent"), 100),
		OptimizeMemory: v.GetBool("optimize_memory"),

		HTTPReadTimeout: secondsOr(v.GetInt("http_read_timeout"), 30),
		HTTPIdleTimeout: secondsOr(v.GetInt("http_idle_timeout"), 120),

		AuthJWTSecret: v.GetString("auth_jwt_secret"),
	}

	if cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = cfg.MaxLimit
	}

	// 写入超时至少覆盖整个检索截止时间加上AI阶段
	cfg.HTTPWriteTimeout = secondsOr(v.GetInt("http_write_timeout"), 0)
	if cfg.HTTPWriteTimeout <= 0 {
		cfg.HTTPWriteTimeout = 60 * time.Second
		if minimum := cfg.SearchDeadline + 2*cfg.LLMTimeout; minimum > cfg.HTTPWriteTimeout {
			cfg.HTTPWriteTimeout = minimum
		}
	}

	if c := v.GetInt("concurrency"); c > 0 {
		cfg.DefaultConcurrency = c
		cfg.concurrencyExplicit = true
	} else {
		cfg.DefaultConcurrency = runtime.NumCPU() * 4
	}

	return cfg
}

// UpdateDefaultConcurrency 在真实插件数已知时调整工作池常驻worker数
// 未显式配置CONCURRENCY时为插件数 + 2；并发请求超出的任务由工作池直接起协程执行
func (c *Config) UpdateDefaultConcurrency(pluginCount int) {
	if c == nil || c.concurrencyExplicit {
		return
	}
	concurrency := pluginCount + 2
	if concurrency < 1 {
		concurrency = 1
	}
	c.DefaultConcurrency = concurrency
}

// LLMEnabled 是否配置了LLM凭据
func (c *Config) LLMEnabled() bool {
	return c.LLMAPIKey != ""
}

// 应用GC设置
func applyGCSettings() {
	debug.SetGCPercent(AppConfig.GCPercent)

	// 启用内存优化时设置软内存上限
	if AppConfig.OptimizeMemory {
		debug.SetMemoryLimit(512 * 1024 * 1024)
		debug.FreeOSMemory()
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func positiveOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func secondsOr(v, fallback int) time.Duration {
	if v <= 0 {
		return time.Duration(fallback) * time.Second
	}
	return time.Duration(v) * time.Second
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
