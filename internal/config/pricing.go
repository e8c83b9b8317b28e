package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// DefaultFeeRule is the pricing applied to a platform when no rule has
// been configured through the API yet.
type DefaultFeeRule struct {
	Platform           string  `mapstructure:"platform" json:"platform"`
	ApplicationFeeFlat float64 `mapstructure:"applicationFeeFlat" json:"application_fee_flat"`
	CommissionPercent  float64 `mapstructure:"commissionPercent" json:"commission_percent"`
}

// PricingConfig holds the file-backed pricing defaults.
type PricingConfig struct {
	DefaultRules []DefaultFeeRule `mapstructure:"defaultRules" json:"default_rules"`
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		DefaultRules: []DefaultFeeRule{
			{Platform: "facebook", ApplicationFeeFlat: 0, CommissionPercent: 5},
			{Platform: "google", ApplicationFeeFlat: 0, CommissionPercent: 5},
		},
	}
}

// PricingConfigHolder serves the current pricing defaults and swaps
// them atomically on file change.
type PricingConfigHolder struct {
	current atomic.Value // holds PricingConfig
}

func NewPricingConfigHolder() (*PricingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/adfin/config") // Volume-mounted config
	v.AddConfigPath("/etc/adfin")            // System config
	v.AddConfigPath(".")                     // Current directory (dev mode)

	v.SetEnvPrefix("ADFIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultPricingConfig()
		v.SetDefault("pricing.defaultRules", defaults.DefaultRules)
	}

	var cfg PricingConfig
	if err := v.UnmarshalKey("pricing", &cfg); err != nil {
		return nil, err
	}
	if err := validatePricingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PricingConfig
		if err := v.UnmarshalKey("pricing", &updated); err != nil {
			log.Printf("[pricing-config] reload failed: %v", err)
			return
		}
		if err := validatePricingConfig(updated); err != nil {
			log.Printf("[pricing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[pricing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewTestPricingConfigHolder wraps a fixed config with no file watching.
func NewTestPricingConfigHolder(cfg PricingConfig) *PricingConfigHolder {
	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *PricingConfigHolder) Get() PricingConfig {
	return h.current.Load().(PricingConfig)
}

func validatePricingConfig(cfg PricingConfig) error {
	if len(cfg.DefaultRules) == 0 {
		return errors.New("pricing.defaultRules cannot be empty")
	}
	for _, rule := range cfg.DefaultRules {
		if strings.TrimSpace(rule.Platform) == "" {
			return errors.New("pricing.defaultRules requires a platform")
		}
		if rule.ApplicationFeeFlat < 0 || rule.CommissionPercent < 0 {
			return errors.New("pricing.defaultRules amounts cannot be negative")
		}
	}
	return nil
}
