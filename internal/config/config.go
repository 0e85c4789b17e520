package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`   // 服务器配置
	Database DatabaseConfig `mapstructure:"database"` // PostgreSQL配置
	Feed     FeedConfig     `mapstructure:"feed"`     // 比赛数据源配置
	Notify   NotifyConfig   `mapstructure:"notify"`   // 通知配置
	Announce AnnounceConfig `mapstructure:"announce"` // 播报任务配置
	Log      LogConfig      `mapstructure:"log"`      // 日志配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// DatabaseConfig PostgreSQL数据库配置
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN（URL形式）
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`     // 单次读写超时
	LogLevel        string        `mapstructure:"log_level"`         // GORM日志级别：silent/error/warn/info
}

// FeedConfig 比赛数据源配置
type FeedConfig struct {
	Provider    string        `mapstructure:"provider"`     // 数据源适配器名称
	BaseURL     string        `mapstructure:"base_url"`     // API基础地址
	MatchesPath string        `mapstructure:"matches_path"` // 比赛列表路径（默认 matches/today）
	Timeout     time.Duration `mapstructure:"timeout"`      // 请求超时
	Proxy       string        `mapstructure:"proxy"`        // 代理地址
}

// NotifyConfig 通知配置
type NotifyConfig struct {
	IconEmoji    string              `mapstructure:"icon_emoji"`   // 消息图标
	Timeout      time.Duration       `mapstructure:"timeout"`      // 单个目标的投递超时
	Proxy        string              `mapstructure:"proxy"`        // 代理地址
	Destinations []DestinationConfig `mapstructure:"destinations"` // 投递目标列表
}

// DestinationConfig 单个投递目标，webhook为空时跳过
type DestinationConfig struct {
	WebhookURL string `mapstructure:"webhook_url"` // Webhook地址
	Channel    string `mapstructure:"channel"`     // 可选：覆盖频道
}

// AnnounceConfig 播报任务配置
type AnnounceConfig struct {
	Enabled          bool          `mapstructure:"enabled"`            // serve 时是否启动定时任务
	Interval         time.Duration `mapstructure:"interval"`           // 轮询间隔
	JobName          string        `mapstructure:"job_name"`           // 分布式锁的任务名
	LockTTL          time.Duration `mapstructure:"lock_ttl"`           // 锁租约时长
	NotifyEveryEvent bool          `mapstructure:"notify_every_event"` // true：每条新增事件都通知；false：只通知最后一条
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug/info/warn/error
	Format string `mapstructure:"format"` // text/json
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("")
}

// LoadConfigFrom 从指定文件加载配置；path 为空时按默认路径查找 ./config/config.yaml
// 找不到配置文件时使用默认值 + 环境变量
func LoadConfigFrom(path string) (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	v := viper.New()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.query_timeout", 5*time.Second)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("feed.provider", "worldcup")
	v.SetDefault("feed.matches_path", "matches/today")
	v.SetDefault("feed.timeout", 10*time.Second)
	v.SetDefault("notify.icon_emoji", ":soccer:")
	v.SetDefault("notify.timeout", 5*time.Second)
	v.SetDefault("announce.enabled", true)
	v.SetDefault("announce.interval", time.Minute)
	v.SetDefault("announce.job_name", "match:announce")
	v.SetDefault("announce.lock_ttl", 5*time.Minute)
	v.SetDefault("announce.notify_every_event", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// overrideFromEnv 用环境变量覆盖敏感配置
// SLACK_WEBHOOK_URL/SLACK_CHANNEL 作为第一个投递目标（没有配置目标时追加一个）
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("WORLDCUP_API"); v != "" {
		cfg.Feed.BaseURL = v
	}
	if v := os.Getenv("FEED_PROXY"); v != "" {
		cfg.Feed.Proxy = v
	}
	webhook, channel := os.Getenv("SLACK_WEBHOOK_URL"), os.Getenv("SLACK_CHANNEL")
	if webhook == "" && channel == "" {
		return
	}
	if len(cfg.Notify.Destinations) == 0 {
		cfg.Notify.Destinations = append(cfg.Notify.Destinations, DestinationConfig{})
	}
	if webhook != "" {
		cfg.Notify.Destinations[0].WebhookURL = webhook
	}
	if channel != "" {
		cfg.Notify.Destinations[0].Channel = channel
	}
}

func (c *Config) validate() error {
	if c.Announce.Interval <= 0 {
		return fmt.Errorf("announce.interval 必须大于0: %s", c.Announce.Interval)
	}
	if c.Announce.LockTTL < c.Announce.Interval {
		return fmt.Errorf("announce.lock_ttl(%s) 不能小于 announce.interval(%s)", c.Announce.LockTTL, c.Announce.Interval)
	}
	if c.Announce.JobName == "" {
		return errors.New("announce.job_name 不能为空")
	}
	return nil
}
