package config

import (
	"os"
	"time"

	pkgconfig "github.com/covergrid/search-service/pkg/config"
)

type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Cache    CacheConfig
	Image    ImageConfig
	Log      LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

// UpstreamConfig describes the third-party suggestion API. ProxyURL is the
// process-wide egress proxy, resolved once at load time and applied to every
// upstream fetch, covers included.
type UpstreamConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	ProxyURL string        `mapstructure:"proxy_url"`
}

type CacheConfig struct {
	TTL      time.Duration `mapstructure:"ttl"`
	Capacity int           `mapstructure:"capacity"`
}

// ImageConfig holds the cover proxy allow-list pattern.
type ImageConfig struct {
	AllowPattern string `mapstructure:"allow_pattern"`
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("upstream.base_url", "https://book.douban.com")
	v.SetDefault("upstream.timeout", "10s")
	v.SetDefault("upstream.proxy_url", "")
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.capacity", 500)
	v.SetDefault("image.allow_pattern", `^https?://img\d\.doubanio\.com/`)
	v.SetDefault("log.level", "info")

	// Bind environment variables
	v.BindEnv("server.port", "PORT")
	v.BindEnv("upstream.base_url", "UPSTREAM_BASE_URL")
	v.BindEnv("upstream.proxy_url", "UPSTREAM_PROXY_URL")
	v.BindEnv("cache.ttl", "CACHE_TTL")
	v.BindEnv("cache.capacity", "CACHE_CAPACITY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Conventional proxy variables win over a blank config value.
	if cfg.Upstream.ProxyURL == "" {
		if p := os.Getenv("HTTPS_PROXY"); p != "" {
			cfg.Upstream.ProxyURL = p
		} else if p := os.Getenv("HTTP_PROXY"); p != "" {
			cfg.Upstream.ProxyURL = p
		}
	}

	return &cfg, nil
}
