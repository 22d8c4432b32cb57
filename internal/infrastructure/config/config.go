package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config 全局配置结构
// 使用Viper管理配置,支持YAML文件和环境变量覆盖
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Order    OrderConfig    `mapstructure:"order"`
	Pricing  PricingConfig  `mapstructure:"pricing"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"` // debug | release | test
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // mysql | sqlite
	Path            string        `mapstructure:"path"`   // sqlite文件路径,":memory:"为内存库
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	Charset         string        `mapstructure:"charset"`
	ParseTime       bool          `mapstructure:"parse_time"`
	Loc             string        `mapstructure:"loc"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN 生成MySQL连接字符串
// 格式:user:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=UTC
func (d DatabaseConfig) DSN() string {
	loc := url.QueryEscape(d.Loc)
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.Charset, d.ParseTime, loc)
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"` // 关闭时订单视图不缓存
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// 连续失败BreakerFailures次后熔断,BreakerTimeout内不再访问Redis
	BreakerFailures int           `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

// Addr 返回Redis地址
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret            string        `mapstructure:"secret"`
	AccessTokenExpire time.Duration `mapstructure:"access_token_expire"`
}

type LogConfig struct {
	Level        string `mapstructure:"level"`  // debug | info | warn | error
	Format       string `mapstructure:"format"` // console | json
	Output       string `mapstructure:"output"` // stdout | stderr | /path/to/file
	EnableCaller bool   `mapstructure:"enable_caller"`
}

// OrderConfig 订单生命周期
type OrderConfig struct {
	PaymentPeriod   time.Duration `mapstructure:"payment_period"`   // 超过该时长未支付的新订单会被放弃
	AbandonInterval time.Duration `mapstructure:"abandon_interval"` // 扫描间隔
	AbandonEnabled  bool          `mapstructure:"abandon_enabled"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"` // 订单视图缓存时间
}

// PricingConfig 运费与折扣门槛,金额用字符串表示避免浮点误差
type PricingConfig struct {
	CourierFee                string `mapstructure:"courier_fee"`
	SelfPickupFee             string `mapstructure:"self_pickup_fee"`
	FreeDeliveryThreshold     string `mapstructure:"free_delivery_threshold"`
	HalfPriceBookThreshold    string `mapstructure:"half_price_book_threshold"`
	FreeCheapestBookThreshold string `mapstructure:"free_cheapest_book_threshold"`
}

// Amounts 解析全部金额
func (p PricingConfig) Amounts() (PricingAmounts, error) {
	var (
		a   PricingAmounts
		err error
	)
	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"courier_fee", p.CourierFee, &a.CourierFee},
		{"self_pickup_fee", p.SelfPickupFee, &a.SelfPickupFee},
		{"free_delivery_threshold", p.FreeDeliveryThreshold, &a.FreeDeliveryThreshold},
		{"half_price_book_threshold", p.HalfPriceBookThreshold, &a.HalfPriceBookThreshold},
		{"free_cheapest_book_threshold", p.FreeCheapestBookThreshold, &a.FreeCheapestBookThreshold},
	}
	for _, f := range fields {
		*f.dst, err = decimal.NewFromString(strings.TrimSpace(f.raw))
		if err != nil {
			return PricingAmounts{}, fmt.Errorf("无效的金额配置 pricing.%s=%q: %w", f.name, f.raw, err)
		}
		if f.dst.IsNegative() {
			return PricingAmounts{}, fmt.Errorf("金额配置不能为负数 pricing.%s=%s", f.name, f.raw)
		}
	}
	return a, nil
}

// PricingAmounts 解析后的金额
type PricingAmounts struct {
	CourierFee                decimal.Decimal
	SelfPickupFee             decimal.Decimal
	FreeDeliveryThreshold     decimal.Decimal
	HalfPriceBookThreshold    decimal.Decimal
	FreeCheapestBookThreshold decimal.Decimal
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	Endpoint    string `mapstructure:"endpoint"` // OTLP gRPC地址,如localhost:4317
}

// Load 加载配置文件
// 1. 默认加载./config/config.yaml
// 2. 环境变量BOOKSTORE_ENV指定环境(如config.prod.yaml)
// 3. 环境变量覆盖(如BOOKSTORE_DATABASE_PASSWORD)
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	v.SetConfigName("config")
	if env := v.GetString("env"); env != "" {
		v.SetConfigName("config." + env)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return decode(v)
}

// LoadFile 从指定文件加载配置
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	// BOOKSTORE_DATABASE_PASSWORD → database.password
	v.SetEnvPrefix("BOOKSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.path", "bookorder.db")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parse_time", true)
	v.SetDefault("database.loc", "UTC")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.breaker_failures", 5)
	v.SetDefault("redis.breaker_timeout", 30*time.Second)

	v.SetDefault("jwt.access_token_expire", 2*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("order.payment_period", 2*time.Minute)
	v.SetDefault("order.abandon_interval", time.Minute)
	v.SetDefault("order.abandon_enabled", true)
	v.SetDefault("order.cache_ttl", 5*time.Minute)

	v.SetDefault("pricing.courier_fee", "9.90")
	v.SetDefault("pricing.self_pickup_fee", "0")
	v.SetDefault("pricing.free_delivery_threshold", "100")
	v.SetDefault("pricing.half_price_book_threshold", "200")
	v.SetDefault("pricing.free_cheapest_book_threshold", "400")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "bookorder")
	v.SetDefault("tracing.endpoint", "localhost:4317")
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate 配置校验
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("无效的服务端口: %d", cfg.Server.Port)
	}

	switch cfg.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", cfg.Database.Driver)
	}

	if cfg.JWT.Secret == "" {
		return fmt.Errorf("必须配置JWT密钥")
	}
	if cfg.JWT.Secret == "your-secret-key-change-in-production" && cfg.Server.Mode == "release" {
		return fmt.Errorf("生产环境必须修改JWT密钥")
	}

	if cfg.Order.PaymentPeriod <= 0 {
		return fmt.Errorf("支付期限必须大于0: %s", cfg.Order.PaymentPeriod)
	}

	if _, err := cfg.Pricing.Amounts(); err != nil {
		return err
	}

	return nil
}
