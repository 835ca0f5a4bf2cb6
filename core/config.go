package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultIdentifierUpperBound = 100000
	MaxIdentifierUpperBound     = 9999999
	DefaultMaxMintAttempts      = 1000
	DefaultRegistryTimeout      = 30 * time.Second
)

type RegistryConfig struct {
	Endpoint        string        `koanf:"endpoint" mapstructure:"endpoint"`
	AccountName     string        `koanf:"account_name" mapstructure:"account_name"`
	AccountPassword string        `koanf:"account_password" mapstructure:"account_password"`
	Timeout         time.Duration `koanf:"timeout" mapstructure:"timeout"`
}

type MintingConfig struct {
	MaxAttempts int `koanf:"max_attempts" mapstructure:"max_attempts"`
	UpperBound  int `koanf:"upper_bound" mapstructure:"upper_bound"`
}

type Config struct {
	ServiceName string         `koanf:"service_name" mapstructure:"service_name"`
	Prefix      string         `koanf:"prefix" mapstructure:"prefix"`
	Registry    RegistryConfig `koanf:"registry" mapstructure:"registry"`
	Minting     MintingConfig  `koanf:"minting" mapstructure:"minting"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "datacite",
		Registry: RegistryConfig{
			Timeout: DefaultRegistryTimeout,
		},
		Minting: MintingConfig{
			MaxAttempts: DefaultMaxMintAttempts,
			UpperBound:  DefaultIdentifierUpperBound,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.Prefix) == "" {
		return fmt.Errorf("core: prefix is required")
	}
	if strings.Contains(strings.Trim(strings.TrimSpace(c.Prefix), "/"), "/") {
		return fmt.Errorf("core: prefix %q is invalid", c.Prefix)
	}
	if err := c.Registry.Validate(); err != nil {
		return err
	}
	if c.Minting.MaxAttempts < 0 {
		return fmt.Errorf("core: minting.max_attempts is invalid")
	}
	if c.Minting.UpperBound < 0 {
		return fmt.Errorf("core: minting.upper_bound is invalid")
	}
	// suffixes are seven digits wide
	if c.Minting.UpperBound > MaxIdentifierUpperBound {
		return fmt.Errorf("core: minting.upper_bound %d is invalid, max is %d", c.Minting.UpperBound, MaxIdentifierUpperBound)
	}
	return nil
}

func (c RegistryConfig) Validate() error {
	endpoint := strings.TrimSpace(c.Endpoint)
	if endpoint == "" {
		return fmt.Errorf("core: registry.endpoint is required")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("core: registry.endpoint %q is invalid", endpoint)
	}
	if strings.TrimSpace(c.AccountName) == "" || strings.TrimSpace(c.AccountPassword) == "" {
		return fmt.Errorf("core: registry account_name and account_password are required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("core: registry.timeout is invalid")
	}
	return nil
}

func (c MintingConfig) maxAttempts() int {
	if c.MaxAttempts > 0 {
		return c.MaxAttempts
	}
	return DefaultMaxMintAttempts
}

func (c MintingConfig) upperBound() int {
	if c.UpperBound > 0 {
		return c.UpperBound
	}
	return DefaultIdentifierUpperBound
}
