package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"arenachain/core/types"
)

// GenesisAccount is a balance minted at first boot.
type GenesisAccount struct {
	Address string `toml:"Address"`
	Balance uint64 `toml:"Balance"`
}

type Config struct {
	RPCAddress  string `toml:"RPCAddress"`
	DataDir     string `toml:"DataDir"`
	NetworkName string `toml:"NetworkName"`
	Env         string `toml:"Env"`

	// Authority and Treasury bootstrap both engines on first run.
	Authority string `toml:"Authority"`
	Treasury  string `toml:"Treasury"`

	// OracleURL points at the price endpoint for the rounds market. Empty
	// disables the HTTP feed; the manual feed is always registered.
	OracleURL    string `toml:"OracleURL"`
	OracleAPIKey string `toml:"OracleAPIKey"`
	OracleSymbol string `toml:"OracleSymbol"`

	RateLimitPerSecond float64 `toml:"RateLimitPerSecond"`
	RateLimitBurst     int     `toml:"RateLimitBurst"`

	Genesis []GenesisAccount `toml:"Genesis"`
}

// Load reads the configuration at path, writing a default file on first run.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8545"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./arena-data"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "arena-local"
	}
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.OracleSymbol) == "" {
		cfg.OracleSymbol = "SOL"
	}
	if cfg.RateLimitPerSecond <= 0 {
		cfg.RateLimitPerSecond = 50
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 100
	}
	if cfg.Genesis == nil {
		cfg.Genesis = []GenesisAccount{}
	}
}

// Validate checks the address-typed fields decode.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Authority) != "" {
		if _, err := types.ParseAddress(c.Authority); err != nil {
			return fmt.Errorf("config: Authority: %w", err)
		}
	}
	if strings.TrimSpace(c.Treasury) != "" {
		if _, err := types.ParseAddress(c.Treasury); err != nil {
			return fmt.Errorf("config: Treasury: %w", err)
		}
	}
	for _, acc := range c.Genesis {
		if _, err := types.ParseAddress(acc.Address); err != nil {
			return fmt.Errorf("config: Genesis: %w", err)
		}
	}
	return nil
}

// AuthorityAddress decodes the configured authority.
func (c *Config) AuthorityAddress() ([20]byte, error) {
	return types.ParseAddress(c.Authority)
}

// TreasuryAddress decodes the configured treasury.
func (c *Config) TreasuryAddress() ([20]byte, error) {
	return types.ParseAddress(c.Treasury)
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
