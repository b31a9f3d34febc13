// 包 config 负责加载与校验应用配置（settings.yaml + 环境变量覆盖），
// 对外提供结构体 Config 及默认值/合法性校验。
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// DefaultSourceURL 为博客数据的默认接口。
const DefaultSourceURL = "https://frontend-blog-lyart.vercel.app/blogsData.json"

type Config struct {
	Source    Source `yaml:"SOURCE"`
	Fetch     Fetch  `yaml:"FETCH"`
	Proxy     Proxy  `yaml:"PROXY"`
	Cache     Cache  `yaml:"CACHE"`
	List      List   `yaml:"LIST"`
	Server    Server `yaml:"SERVER"`
	LogLevel  string `yaml:"LOG_LEVEL" env:"LOG_LEVEL"`
	LogFormat string `yaml:"LOG_FORMAT" env:"LOG_FORMAT"` // pretty|json|text
	LogLocale string `yaml:"LOG_LOCALE" env:"LOG_LOCALE"` // en|zh-CN
	LogColor  string `yaml:"LOG_COLOR" env:"LOG_COLOR"`   // auto|always|never
}

type Source struct {
	URL      string `yaml:"url" env:"BLOG_SOURCE_URL"`
	Format   string `yaml:"format" env:"BLOG_SOURCE_FORMAT"`     // json|feed
	Discover bool   `yaml:"discover" env:"BLOG_SOURCE_DISCOVER"` // url 为站点首页时启动阶段解析订阅地址
}

type Fetch struct {
	Timeout    time.Duration `yaml:"timeout" env:"BLOG_FETCH_TIMEOUT"`
	Attempts   int           `yaml:"attempts" env:"BLOG_FETCH_ATTEMPTS"`
	Backoff    time.Duration `yaml:"backoff" env:"BLOG_FETCH_BACKOFF"`
	MaxBackoff time.Duration `yaml:"max_backoff" env:"BLOG_FETCH_MAX_BACKOFF"`
	UserAgent  string        `yaml:"user_agent" env:"BLOG_USER_AGENT"`
}

type Proxy struct {
	HTTP  string `yaml:"http" env:"BLOG_PROXY_HTTP"`
	HTTPS string `yaml:"https" env:"BLOG_PROXY_HTTPS"`
}

type Cache struct {
	TTL      time.Duration `yaml:"ttl" env:"BLOG_CACHE_TTL"`
	Backend  string        `yaml:"backend" env:"BLOG_CACHE_BACKEND"` // memory|sqlite|redis|none
	DSN      string        `yaml:"dsn" env:"BLOG_CACHE_DSN"`
	RedisURL string        `yaml:"redis_url" env:"BLOG_CACHE_REDIS_URL"`
	Prefix   string        `yaml:"prefix" env:"BLOG_CACHE_PREFIX"`
}

type List struct {
	PageSize int           `yaml:"page_size" env:"BLOG_PAGE_SIZE"`
	Debounce time.Duration `yaml:"debounce" env:"BLOG_SEARCH_DEBOUNCE"`
	Excerpt  int           `yaml:"excerpt" env:"BLOG_EXCERPT_LENGTH"`
}

type Server struct {
	Addr         string        `yaml:"addr" env:"BLOG_HTTP_ADDR"`
	RefreshEvery time.Duration `yaml:"refresh_every" env:"BLOG_REFRESH_EVERY"`
	RefreshBurst int           `yaml:"refresh_burst" env:"BLOG_REFRESH_BURST"`
	WarmEvery    time.Duration `yaml:"warm_every" env:"BLOG_WARM_EVERY"` // 0 表示不后台预热
}

// Load 读取 YAML（path 为空时跳过文件）、应用环境变量覆盖，再校验并填充默认值。
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config %s: %w", path, err)
		}
		defer f.Close()
		b, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
		}
	}
	if err := cleanenv.ReadEnv(&c); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Default 返回只含默认值的配置。
func Default() *Config {
	c := &Config{}
	_ = c.Validate()
	return c
}

// Validate 负责合法性检查与默认值设置，避免在业务层分散判空逻辑。
func (c *Config) Validate() error {
	if c.Source.URL == "" {
		c.Source.URL = DefaultSourceURL
	}
	c.Source.Format = strings.ToLower(strings.TrimSpace(c.Source.Format))
	switch c.Source.Format {
	case "":
		c.Source.Format = "json"
	case "json", "feed":
	default:
		return fmt.Errorf("unsupported SOURCE.format: %s", c.Source.Format)
	}
	if c.Source.Discover && c.Source.Format != "feed" {
		return errors.New("SOURCE.discover requires format feed")
	}

	if c.Fetch.Timeout < 0 || c.Fetch.Backoff < 0 || c.Fetch.MaxBackoff < 0 {
		return errors.New("FETCH durations must be >= 0")
	}
	if c.Fetch.Attempts < 0 {
		return errors.New("FETCH.attempts must be >= 0")
	}
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = 10 * time.Second
	}
	if c.Fetch.Attempts == 0 {
		c.Fetch.Attempts = 3
	}
	if c.Fetch.Backoff == 0 {
		c.Fetch.Backoff = 500 * time.Millisecond
	}
	if c.Fetch.MaxBackoff == 0 {
		c.Fetch.MaxBackoff = 5 * time.Second
	}

	if c.Cache.TTL < 0 {
		return errors.New("CACHE.ttl must be >= 0")
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	switch c.Cache.Backend {
	case "":
		c.Cache.Backend = "memory"
	case "memory", "none":
	case "sqlite":
		if c.Cache.DSN == "" {
			c.Cache.DSN = "./cache.db"
		}
	case "redis":
		if c.Cache.RedisURL == "" {
			return errors.New("CACHE.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unsupported CACHE.backend: %s", c.Cache.Backend)
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "bloglist:"
	}

	if c.List.PageSize < 0 || c.List.Excerpt < 0 || c.List.Debounce < 0 {
		return errors.New("LIST values must be >= 0")
	}
	if c.List.PageSize == 0 {
		c.List.PageSize = 10
	}
	if c.List.Debounce == 0 {
		c.List.Debounce = 250 * time.Millisecond
	}
	if c.List.Excerpt == 0 {
		c.List.Excerpt = 160
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RefreshEvery <= 0 {
		c.Server.RefreshEvery = 10 * time.Second
	}
	if c.Server.RefreshBurst <= 0 {
		c.Server.RefreshBurst = 1
	}
	if c.Server.WarmEvery < 0 {
		return errors.New("SERVER.warm_every must be >= 0")
	}

	if c.LogFormat == "" {
		c.LogFormat = "pretty"
	}
	if c.LogLocale == "" {
		c.LogLocale = "en"
	}
	if c.LogColor == "" {
		c.LogColor = "auto"
	}
	return nil
}
