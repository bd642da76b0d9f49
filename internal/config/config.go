package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	viper "github.com/spf13/viper"
)

/*
把init跟read分開
init : 設置viper watch 與 onConfigChange
read : 一般讀取 需要使用讀寫鎖
*/
var configSingleton *ConfigSingleton
var muonce sync.Once

type ConfigSingleton struct {
	Config *Config
	mu     sync.RWMutex
}

type Config struct {
	BotToken             string  `mapstructure:"BOT_TOKEN"`
	AdminID              int64   `mapstructure:"ADMIN_ID"`
	DatabaseURL          string  `mapstructure:"DATABASE_URL"`
	RedisHost            string  `mapstructure:"REDIS_HOST"`
	RedisPort            string  `mapstructure:"REDIS_PORT"`
	RedisPassword        string  `mapstructure:"REDIS_PASSWORD"`
	RedisDB              int     `mapstructure:"REDIS_DB"`
	MapsAPIKey           string  `mapstructure:"MAPS_API_KEY"`
	GeocoderURL          string  `mapstructure:"GEOCODER_URL"`
	GeoCountry           string  `mapstructure:"GEO_COUNTRY"`
	GeoCity              string  `mapstructure:"GEO_CITY"`
	PaymentProviderToken string  `mapstructure:"PAYMENT_PROVIDER_TOKEN"`
	Currency             string  `mapstructure:"CURRENCY"`
	ServerPort           string  `mapstructure:"SERVER_PORT"`
	KafkaBrokers         string  `mapstructure:"KAFKA_BROKERS"`
	KafkaOrderTopic      string  `mapstructure:"KAFKA_ORDER_TOPIC"`
	LogLevel             string  `mapstructure:"LOG_LEVEL"`
	CatalogSeedFile      string  `mapstructure:"CATALOG_SEED_FILE"`
	RateLimitCapacity    int64   `mapstructure:"RATE_LIMIT_CAPACITY"`
	RateLimitPerSec      float64 `mapstructure:"RATE_LIMIT_PER_SEC"`
	ContactPhone         string  `mapstructure:"CONTACT_PHONE"`
}

var defaults = map[string]any{
	"BOT_TOKEN":              "",
	"ADMIN_ID":               0,
	"DATABASE_URL":           "sqlite://pizzabot.db",
	"REDIS_HOST":             "localhost",
	"REDIS_PORT":             "6379",
	"REDIS_PASSWORD":         "",
	"REDIS_DB":               0,
	"MAPS_API_KEY":           "",
	"GEOCODER_URL":           "https://geocode-maps.yandex.ru/v1",
	"GEO_COUNTRY":            "Belarus",
	"GEO_CITY":               "Minsk",
	"PAYMENT_PROVIDER_TOKEN": "",
	"CURRENCY":               "BYN",
	"SERVER_PORT":            "8080",
	"KAFKA_BROKERS":          "",
	"KAFKA_ORDER_TOPIC":      "pizzabot.orders",
	"LOG_LEVEL":              "info",
	"CATALOG_SEED_FILE":      "configs/catalog.yaml",
	"RATE_LIMIT_CAPACITY":    5,
	"RATE_LIMIT_PER_SEC":     2.0,
	"CONTACT_PHONE":          "+375 29 000 00 00",
}

var ErrMissingBotToken = errors.New("BOT_TOKEN is required")

func GetConfig() *Config {
	initConfig()
	configSingleton.mu.RLock()
	defer configSingleton.mu.RUnlock()
	return configSingleton.Config
}

func initConfig() {
	muonce.Do(func() {
		configSingleton = &ConfigSingleton{}
		v := viper.GetViper()
		cf, err := Load(v, configFile())
		if err != nil {
			log.Fatal().Err(err).Msg("error read config")
		}
		configSingleton.Config = cf
		if v.ConfigFileUsed() == "" {
			return
		}
		v.OnConfigChange(func(e fsnotify.Event) {
			cf, err := unmarshal(v)
			if err != nil {
				log.Error().Err(err).Str("file", e.Name).Msg("failed to reload config file")
				return
			}
			configSingleton.mu.Lock()
			configSingleton.Config = cf
			configSingleton.mu.Unlock()
			log.Info().Str("file", e.Name).Msg("config reloaded")
		})
		v.WatchConfig()
	})
}

func configFile() string {
	if f := os.Getenv("CONFIG_FILE"); f != "" {
		return f
	}
	return ".env"
}

/*
單純回傳錯誤  由外部決定要不要Fatal
檔案不存在時只讀環境變數
*/
func Load(v *viper.Viper, path string) (*Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cf := &Config{}
	if err := v.Unmarshal(cf); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cf, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.BotToken) == "" {
		return ErrMissingBotToken
	}
	return nil
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func (c *Config) KafkaBrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (c *Config) IsSuperAdmin(userID int64) bool {
	return c.AdminID != 0 && c.AdminID == userID
}
