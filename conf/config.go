package conf

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// 配置加载（数据库、交易所费率、报表等）

type WebhookConfig struct {
	Secret string `yaml:"secret"`
}

type Db struct {
	DbName   string `yaml:"dbname"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	FileName   string `yaml:"file-name"`
	TimeFormat string `yaml:"time-format"`
	MaxSize    int    `yaml:"max-size"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAge     int    `yaml:"max-age"`
	Compress   bool   `yaml:"compress"`
	LocalTime  bool   `yaml:"local-time"`
	Console    bool   `yaml:"console"`
}

// RedisConfig is used to configure redis
type RedisConfig struct {
	Addr         string `yaml:"address"`
	Password     string `yaml:"password"`
	Db           int    `yaml:"db"`
	PoolSize     int    `yaml:"pool-size"`
	MinIdleConns int    `yaml:"min-idle-conns"`
	IdleTimeout  int    `yaml:"idle-timeout"`
}

type KafkaConfig struct {
	Broker  string `yaml:"broker"`
	Enabled bool   `yaml:"enabled"`
}

// FeeConfig 单个交易所的费率配置（百分比，0.1 表示 0.1%）
type FeeConfig struct {
	MakerFee float64 `yaml:"maker-fee"`
	TakerFee float64 `yaml:"taker-fee"`
}

// Rate 换算为小数费率
func (f FeeConfig) Rate(feeType string) float64 {
	if feeType == "maker" {
		return f.MakerFee / 100
	}
	return f.TakerFee / 100
}

// TradingConfig 资金与入场规则
type TradingConfig struct {
	DefaultCapital float64              `yaml:"default-capital"` // 每个pyramid默认投入的计价币数量
	MaxPyramids    int                  `yaml:"max-pyramids"`    // 每笔交易最多允许的pyramid数量
	ValidationMode string               `yaml:"validation-mode"` // strict / lenient
	PriceSource    string               `yaml:"price-source"`    // exchange: 实时获取价格；payload: 信任信号里的close价格
	DedupEnabled   bool                 `yaml:"dedup-enabled"`   // 按order_id去重
	DefaultFeeType string               `yaml:"default-fee-type"`
	Exchanges      map[string]FeeConfig `yaml:"exchanges"`
}

// FeeRate 获取某交易所的费率，找不到时使用默认0.1%
func (t TradingConfig) FeeRate(exchange string) float64 {
	if fee, ok := t.Exchanges[exchange]; ok {
		feeType := t.DefaultFeeType
		if feeType == "" {
			feeType = "taker"
		}
		return fee.Rate(feeType)
	}
	return 0.001
}

// ReportConfig 日报配置
type ReportConfig struct {
	DailyTime string `yaml:"daily-time"` // HH:MM
	Timezone  string `yaml:"timezone"`
}

type OkxConfig struct {
	ApiKey    string `yaml:"apiKey"`
	SecretKey string `yaml:"secretKey"`
	Password  string `yaml:"password"`
	Simulated bool   `yaml:"simulated"`
}

type Config struct {
	AppName      string `yaml:"app_name"`
	Listen       string `yaml:"listen"`
	Mode         string `yaml:"mode"`
	MaxPingCount int    `yaml:"max-ping-count"`

	Webhook WebhookConfig `yaml:"webhook"`
	Db      `yaml:"database"`
	Okx     OkxConfig     `yaml:"okx"`
	Log     LogConfig     `yaml:"log"`
	Redis   RedisConfig   `yaml:"redis"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Trading TradingConfig `yaml:"trading"`
	Report  ReportConfig  `yaml:"report"`
}

var AppConfig Config

func LoadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("Read config file error %w", err)
	}
	if err := yaml.Unmarshal(data, &AppConfig); err != nil {
		return fmt.Errorf("Unmarshal config yaml error: %w", err)
	}
	applyEnv(&AppConfig)
	applyDefaults(&AppConfig)
	return nil
}

// 数据库凭据允许用环境变量覆盖，部署时不用改配置文件
func applyEnv(c *Config) {
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Db.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		c.Db.Port = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.Db.Username = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Db.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Db.DbName = v
	}
}

func applyDefaults(c *Config) {
	if c.Trading.DefaultCapital <= 0 {
		c.Trading.DefaultCapital = 1000
	}
	if c.Trading.MaxPyramids <= 0 {
		c.Trading.MaxPyramids = 5
	}
	if c.Trading.ValidationMode == "" {
		c.Trading.ValidationMode = "strict"
	}
	if c.Trading.PriceSource == "" {
		c.Trading.PriceSource = "exchange"
	}
	if c.Report.DailyTime == "" {
		c.Report.DailyTime = "12:00"
	}
	if c.Report.Timezone == "" {
		c.Report.Timezone = "UTC"
	}
	if c.MaxPingCount == 0 {
		c.MaxPingCount = 10
	}
}
