package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"deribit-trading-bot/execution"
	"deribit-trading-bot/marketdata"
	"deribit-trading-bot/strategy"

	"gopkg.in/yaml.v3"
)

// BotConfig is the full runtime configuration. Values resolve in order:
// defaults, then the YAML file named by CONFIG_FILE, then environment
// variables.
type BotConfig struct {
	// Connection
	WebsocketURL string `yaml:"websocket_url"`

	// Instrument
	InstrumentName string `yaml:"instrument_name"`
	Currency       string `yaml:"currency"`

	// Chase parameters
	PriceOffsetTicks     int           `yaml:"price_offset_ticks"`
	PriceTolerance       float64       `yaml:"price_tolerance"`
	PollInterval         time.Duration `yaml:"poll_interval"`
	TimeBudget           time.Duration `yaml:"time_budget"`
	FillPollBudget       time.Duration `yaml:"fill_poll_budget"`
	TickSizeFallback     float64       `yaml:"tick_size_fallback"`
	ContractSizeFallback float64       `yaml:"contract_size_fallback"`

	// Risk brackets
	StopLossPercent   float64 `yaml:"stop_loss_percent"`
	TakeProfitPercent float64 `yaml:"take_profit_percent"`

	// Sizing
	BalanceBufferUSD    float64 `yaml:"balance_buffer_usd"`
	LongSizeMultiplier  float64 `yaml:"long_size_multiplier"`
	ShortSizeMultiplier float64 `yaml:"short_size_multiplier"`

	// Observability
	MetricsAddr string `yaml:"metrics_addr"`
}

// DefaultBotConfig targets the BTC perpetual on the production venue.
func DefaultBotConfig() BotConfig {
	exec := execution.DefaultConfig()
	driver := strategy.DefaultConfig()
	return BotConfig{
		WebsocketURL:         "wss://www.deribit.com/ws/api/v2",
		InstrumentName:       exec.InstrumentName,
		Currency:             "BTC",
		PriceOffsetTicks:     exec.PriceOffsetTicks,
		PriceTolerance:       exec.PriceTolerance,
		PollInterval:         exec.PollInterval,
		TimeBudget:           exec.TimeBudget,
		FillPollBudget:       exec.FillPollBudget,
		TickSizeFallback:     exec.TickSizeFallback,
		ContractSizeFallback: exec.ContractSizeFallback,
		StopLossPercent:      exec.StopLossPercent,
		TakeProfitPercent:    exec.TakeProfitPercent,
		BalanceBufferUSD:     driver.BalanceBufferUSD,
		LongSizeMultiplier:   driver.LongSizeMultiplier,
		ShortSizeMultiplier:  driver.ShortSizeMultiplier,
	}
}

// LoadConfig resolves the runtime configuration. The YAML file is
// optional; a CONFIG_FILE that cannot be read is an error, no
// CONFIG_FILE at all is not.
func LoadConfig() (BotConfig, error) {
	cfg := DefaultBotConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *BotConfig) {
	if v := os.Getenv("DERIBIT_WS_URL"); v != "" {
		cfg.WebsocketURL = v
	}
	if v := os.Getenv("INSTRUMENT_NAME"); v != "" {
		cfg.InstrumentName = v
	}
	if v := os.Getenv("CURRENCY"); v != "" {
		cfg.Currency = v
	}
	if v := os.Getenv("TIME_BUDGET"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.TimeBudget = d
		}
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PollInterval = d
		}
	}
	if v := os.Getenv("STOP_LOSS_PERCENT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.StopLossPercent = f
		}
	}
	if v := os.Getenv("TAKE_PROFIT_PERCENT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.TakeProfitPercent = f
		}
	}
	if v := os.Getenv("LONG_SIZE_MULTIPLIER"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.LongSizeMultiplier = f
		}
	}
	if v := os.Getenv("SHORT_SIZE_MULTIPLIER"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.ShortSizeMultiplier = f
		}
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
}

func (c BotConfig) engineConfig() execution.Config {
	return execution.Config{
		InstrumentName:       c.InstrumentName,
		TickSizeFallback:     c.TickSizeFallback,
		ContractSizeFallback: c.ContractSizeFallback,
		PriceOffsetTicks:     c.PriceOffsetTicks,
		PriceTolerance:       c.PriceTolerance,
		PollInterval:         c.PollInterval,
		TimeBudget:           c.TimeBudget,
		FillPollBudget:       c.FillPollBudget,
		StopLossPercent:      c.StopLossPercent,
		TakeProfitPercent:    c.TakeProfitPercent,
	}
}

func (c BotConfig) driverConfig() strategy.Config {
	return strategy.Config{
		BalanceBufferUSD:     c.BalanceBufferUSD,
		LongSizeMultiplier:   c.LongSizeMultiplier,
		ShortSizeMultiplier:  c.ShortSizeMultiplier,
		ContractSizeFallback: c.ContractSizeFallback,
	}
}

func (c BotConfig) readerConfig() marketdata.Config {
	return marketdata.Config{
		InstrumentName: c.InstrumentName,
		Currency:       c.Currency,
		Kind:           "future",
	}
}
