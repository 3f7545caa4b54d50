package config

import (
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Inventory InventoryConfig `yaml:"inventory"`
	Store     StoreConfig     `yaml:"store"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Auth      AuthConfig      `yaml:"auth"`
	Recon     ReconConfig     `yaml:"recon"`
	Users     []User          `yaml:"users"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// InventoryConfig points at the external inventory/order system.
type InventoryConfig struct {
	APIURL string `yaml:"api_url"`
	APIKey string `yaml:"api_key"`
}

// StoreConfig configures the sqlite-backed activity log.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ArchiveConfig configures optional report archival to object storage.
// Archival is disabled when Endpoint is empty.
type ArchiveConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

// ReconConfig holds the safety thresholds for the reconciliation engine.
// Amounts are yaml strings so values like "0.03" survive parsing exactly.
type ReconConfig struct {
	PercentThreshold  string `yaml:"percent_threshold"`   // max percent change for auto-approve
	HighValuePrice    string `yaml:"high_value_price"`    // unit price above which approval is always required
	MagnitudeRatio    string `yaml:"magnitude_ratio"`     // ratio beyond which a price looks like a decimal error
	FeeDeltaCap       string `yaml:"fee_delta_cap"`       // max fee delta for auto-approve
	ImpactCap         string `yaml:"impact_cap"`          // max total dollar impact before downgrade
	ApprovalTTLHours  int    `yaml:"approval_ttl_hours"`  // pending approval expiry
	SweepIntervalMins int    `yaml:"sweep_interval_mins"` // expiry sweep cadence
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Tenant   string `yaml:"tenant"`
}

var GlobalConfig *Config

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "activity.db"
	}
	if cfg.Auth.TokenExpireHours == 0 {
		cfg.Auth.TokenExpireHours = 24
	}
	if cfg.Recon.PercentThreshold == "" {
		cfg.Recon.PercentThreshold = "3"
	}
	if cfg.Recon.HighValuePrice == "" {
		cfg.Recon.HighValuePrice = "5000"
	}
	if cfg.Recon.MagnitudeRatio == "" {
		cfg.Recon.MagnitudeRatio = "10"
	}
	if cfg.Recon.FeeDeltaCap == "" {
		cfg.Recon.FeeDeltaCap = "250"
	}
	if cfg.Recon.ImpactCap == "" {
		cfg.Recon.ImpactCap = "500"
	}
	if cfg.Recon.ApprovalTTLHours == 0 {
		cfg.Recon.ApprovalTTLHours = 24
	}
	if cfg.Recon.SweepIntervalMins == 0 {
		cfg.Recon.SweepIntervalMins = 10
	}

	GlobalConfig = &cfg
	return &cfg, nil
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}

// ApprovalTTL returns the pending-approval expiry as a duration.
func (c *ReconConfig) ApprovalTTL() time.Duration {
	return time.Duration(c.ApprovalTTLHours) * time.Hour
}

// SweepInterval returns the expiry sweep cadence as a duration.
func (c *ReconConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMins) * time.Minute
}

// decimalOr parses s, falling back to def when s is not a valid number.
func decimalOr(s, def string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.RequireFromString(def)
	}
	return d
}

// PercentThresholdDec returns the percent threshold as a decimal.
func (c *ReconConfig) PercentThresholdDec() decimal.Decimal {
	return decimalOr(c.PercentThreshold, "3")
}

// HighValuePriceDec returns the high-value unit price as a decimal.
func (c *ReconConfig) HighValuePriceDec() decimal.Decimal {
	return decimalOr(c.HighValuePrice, "5000")
}

// MagnitudeRatioDec returns the decimal-error ratio as a decimal.
func (c *ReconConfig) MagnitudeRatioDec() decimal.Decimal {
	return decimalOr(c.MagnitudeRatio, "10")
}

// FeeDeltaCapDec returns the fee delta cap as a decimal.
func (c *ReconConfig) FeeDeltaCapDec() decimal.Decimal {
	return decimalOr(c.FeeDeltaCap, "250")
}

// ImpactCapDec returns the total impact cap as a decimal.
func (c *ReconConfig) ImpactCapDec() decimal.Decimal {
	return decimalOr(c.ImpactCap, "500")
}
