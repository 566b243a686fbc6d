package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var valid = validator.New()

// Config 全局配置结构体（聚合所有核心模块）
type Config struct {
	Server ServerConfig `yaml:"server" mapstructure:"server" comment:"HTTP服务配置"`
	Stats  StatsConfig  `yaml:"stats" mapstructure:"stats" comment:"统计采集配置"`
	Log    ZapLogConfig `yaml:"log" mapstructure:"log" comment:"日志配置"`
}

// ServerConfig HTTP服务配置（暴露 /metrics 与 /health）
type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr" env:"HTTP_ADDR" validate:"required,hostname_port" comment:"HTTP监听地址（格式：ip:port）"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" env:"HTTP_READ_TIMEOUT" validate:"required,gt=0" comment:"读取超时时间（如30s）"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" env:"HTTP_WRITE_TIMEOUT" validate:"required,gt=0" comment:"写入超时时间（如30s）"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" validate:"required,gt=0" comment:"空闲连接超时时间（如60s）"`
}

// StatsConfig 统计采集全局配置
type StatsConfig struct {
	MinInterval time.Duration  `yaml:"min_interval" mapstructure:"min_interval" env:"STATS_MIN_INTERVAL" validate:"required,gt=0" comment:"最小采样间隔（如10s，按tick向上取整）"`
	QueueSize   int            `yaml:"queue_size" mapstructure:"queue_size" env:"STATS_QUEUE_SIZE" validate:"required,gt=0" comment:"发送队列容量"`
	StatsdAddr  string         `yaml:"statsd_addr" mapstructure:"statsd_addr" env:"STATS_STATSD_ADDR" comment:"UDP调试通路目的地址（为空则不启用）"`
	Producers   ProducerConfig `yaml:"producers" mapstructure:"producers" comment:"内置计数器生产者配置"`
}

// ProducerConfig 内置生产者开关配置
type ProducerConfig struct {
	Host HostProducerConfig `yaml:"host" mapstructure:"host" comment:"主机资源生产者（CPU/内存/负载）"`
}

// HostProducerConfig 主机资源生产者配置
type HostProducerConfig struct {
	Enable   bool          `yaml:"enable" mapstructure:"enable" env:"PRODUCER_HOST_ENABLE" comment:"是否启用主机资源生产者" default:"true"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval" env:"PRODUCER_HOST_INTERVAL" comment:"采样间隔覆盖（0表示跟随最小间隔）"`
}

// ZapLogConfig 日志配置
type ZapLogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" env:"LOG_LEVEL" validate:"required,oneof=debug info warn error dpanic panic fatal" comment:"日志级别" default:"info"`
	Format string `yaml:"format" mapstructure:"format" env:"LOG_FORMAT" validate:"required,oneof=json console" comment:"日志格式（json/console）" default:"json"`
	Path   string `yaml:"path" mapstructure:"path" env:"LOG_PATH" validate:"required" comment:"日志存储路径" default:"./logs"`
}

// NewDefaultConfig 创建默认配置（所有字段兜底，避免空指针/非法值）
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         "0.0.0.0:8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Stats: StatsConfig{
			MinInterval: 10 * time.Second,
			QueueSize:   4096,
			StatsdAddr:  "",
			Producers: ProducerConfig{
				Host: HostProducerConfig{
					Enable:   true,
					Interval: 0,
				},
			},
		},
		Log: ZapLogConfig{
			Level:  "info",
			Format: "json",
			Path:   "./logs",
		},
	}
}

// LoadConfigWithCli 加载配置（优先级：Flags > YAML > ENV > 默认值），支持 time.Duration
func LoadConfigWithCli(cmd *cobra.Command) (*Config, error) {
	cfg := NewDefaultConfig()
	v := viper.New()

	// 1. 绑定 Cobra Flags → Viper
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	// 2. 解析配置文件 (--config)
	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	// 3. 绑定环境变量 ENV -> Viper （STATS_MIN_INTERVAL -> stats.min_interval）
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("_", "."))

	// 4. 解码反序列化到结构体（支持 time.Duration）
	decoderConfig := &mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	}

	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return nil, fmt.Errorf("new decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// 5. 校验配置
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate 配置校验
func (c *Config) Validate() error {
	if err := valid.Struct(c); err != nil {
		return err
	}
	if err := c.Stats.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate 统计配置校验（地址可选，但给出的必须可解析）
func (s *StatsConfig) Validate() error {
	if s.StatsdAddr != "" {
		if _, err := net.ResolveUDPAddr("udp", s.StatsdAddr); err != nil {
			return fmt.Errorf("Stats.StatsdAddr invalid (expected host:port), got %s: %w", s.StatsdAddr, err)
		}
	}
	// 采样间隔超过1小时基本是配置笔误
	if s.MinInterval > time.Hour {
		return fmt.Errorf("Stats.MinInterval must be between 1s and 1h, got %v", s.MinInterval)
	}
	return nil
}
