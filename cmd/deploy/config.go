package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"thebutton/contract/button"
)

// Config is the deployment manifest: the accounts running the family
// and the rounds to stand up.
type Config struct {
	Deployer string `yaml:"deployer"`
	Operator string `yaml:"operator"`
	// Supply minted to the deployer at token construction, on top of
	// the per-game pools minted afterwards. Defaults to zero.
	Supply string       `yaml:"supply"`
	Games  []GameConfig `yaml:"games"`
}

type GameConfig struct {
	Variant    string   `yaml:"variant"`
	Lifetime   uint64   `yaml:"lifetime"`
	StartDelay uint64   `yaml:"start_delay"`
	Pool       string   `yaml:"pool"`
	Players    []string `yaml:"players"`
}

func loadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Deployer == "" || c.Operator == "" {
		return fmt.Errorf("deployer and operator are required")
	}
	if len(c.Games) == 0 {
		return fmt.Errorf("at least one game is required")
	}
	for i, g := range c.Games {
		if _, err := button.ParseVariant(g.Variant); err != nil {
			return fmt.Errorf("games[%d]: %w", i, err)
		}
		if g.Lifetime == 0 {
			return fmt.Errorf("games[%d]: lifetime must be positive", i)
		}
		if g.Pool == "" {
			return fmt.Errorf("games[%d]: pool is required", i)
		}
	}
	return nil
}

// defaultConfig backs --demo runs without a manifest: one round of
// each variant, small pools, two players.
func defaultConfig() *Config {
	players := []string{"alice", "bob"}
	return &Config{
		Deployer: "deployer",
		Operator: "operator",
		Games: []GameConfig{
			{Variant: "yellow_button", Lifetime: 30, Pool: "900", Players: players},
			{Variant: "early_bird_special", Lifetime: 30, Pool: "900", Players: players},
			{Variant: "back_to_the_future", Lifetime: 30, Pool: "900", Players: players},
		},
	}
}
