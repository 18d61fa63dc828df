package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	databaseDSNENV    = "DATABASE_DSN"
	redisAddrENV      = "REDIS_ADDR"
	apiKeyENV         = "EXCHANGE_API_KEY"
	apiSecretENV      = "EXCHANGE_API_SECRET"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	chatTelegramENV   = "TELEGRAM_CHAT_ID"
)

type Config struct {
	Redis struct {
		Addr string `yaml:"addr"`
		DB   int    `yaml:"db"`
	} `yaml:"redis"`

	DB string `yaml:"db_dsn"`

	Exchange struct {
		BaseURL   string `yaml:"base_url"`
		WSURL     string `yaml:"ws_url"`
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
	} `yaml:"exchange"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Service struct {
		Host      string `yaml:"host"`
		Port      int    `yaml:"port"`
		AdminPort int    `yaml:"admin_port"`
	} `yaml:"service"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	Risk struct {
		QuoteAsset string `yaml:"quote_asset"`
		// Fraction of the free quote balance risked per trade, e.g. 0.005.
		RiskPerTrade        float64 `yaml:"risk_per_trade"`
		MaxConcurrentTrades int     `yaml:"max_concurrent_trades"`
		ATRTimeframe        string  `yaml:"atr_timeframe"`
		ATRPeriod           int     `yaml:"atr_period"`
		ATRWarmupCandles    int     `yaml:"atr_warmup_candles"`
		SLATRMultiplier     float64 `yaml:"sl_atr_multiplier"`
		TPATRMultiplier     float64 `yaml:"tp_atr_multiplier"`
	} `yaml:"risk"`
}

func NewConfig() (*Config, error) {
	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		return nil, errors.Wrap(err, "open config file")
	}
	defer func() {
		_ = file.Close()
	}()

	config := Config{}
	config.Risk.QuoteAsset = "USDT"
	config.Risk.RiskPerTrade = 0.005
	config.Risk.MaxConcurrentTrades = 10
	config.Risk.ATRTimeframe = "15m"
	config.Risk.ATRPeriod = 14
	config.Risk.ATRWarmupCandles = 50
	config.Risk.SLATRMultiplier = 1.5
	config.Risk.TPATRMultiplier = 3.0
	config.Service.AdminPort = 9100

	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, errors.Wrap(err, "decode config file")
	}

	// Secrets and DSNs come from the environment when set.
	if v := os.Getenv(databaseDSNENV); v != "" {
		config.DB = v
	}
	if v := os.Getenv(redisAddrENV); v != "" {
		config.Redis.Addr = v
	}
	if v := os.Getenv(apiKeyENV); v != "" {
		config.Exchange.APIKey = v
	}
	if v := os.Getenv(apiSecretENV); v != "" {
		config.Exchange.APISecret = v
	}
	if v := os.Getenv(tokenTelegramENV); v != "" {
		config.Telegram.Token = v
	}
	if v := os.Getenv(chatTelegramENV); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Telegram.ChatID = id
		}
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// validate fails fast on missing required settings: running degraded with a
// half-configured trading core is worse than not starting.
func (c *Config) validate() error {
	if c.Redis.Addr == "" {
		return errors.New("redis.addr is required")
	}
	if c.Exchange.BaseURL == "" || c.Exchange.WSURL == "" {
		return errors.New("exchange.base_url and exchange.ws_url are required")
	}
	if c.Risk.RiskPerTrade <= 0 || c.Risk.RiskPerTrade >= 1 {
		return errors.Errorf("risk.risk_per_trade must be in (0,1), got %v", c.Risk.RiskPerTrade)
	}
	if c.Risk.MaxConcurrentTrades <= 0 {
		return errors.New("risk.max_concurrent_trades must be positive")
	}
	if c.Risk.ATRPeriod <= 0 || c.Risk.ATRWarmupCandles <= c.Risk.ATRPeriod {
		return errors.New("risk.atr_warmup_candles must exceed risk.atr_period")
	}
	if c.Risk.SLATRMultiplier <= 0 || c.Risk.TPATRMultiplier <= 0 {
		return errors.New("risk SL/TP multipliers must be positive")
	}
	return nil
}
