package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "FINSIGHT_"

// listKeys are split on commas when read from the environment.
var listKeys = map[string]bool{
	"server.cors_origins":        true,
	"insights.income_keywords":   true,
	"insights.transfer_keywords": true,
}

// Load builds the configuration.
//
// Precedence (highest to lowest):
//  1. FINSIGHT_* environment variables, including values from a .env file
//  2. The YAML file at configPath, when configPath is not empty
//  3. Default()
//
// Environment names map to keys by splitting on the first underscore after
// the prefix: FINSIGHT_SERVER_CORS_ORIGINS -> server.cors_origins.
func Load(configPath string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("Load: read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("Load: parse config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("Load: read environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("Load: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("Load: validate: %w", err)
	}
	return &cfg, nil
}

func envKey(name, value string) (string, interface{}) {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	parts := strings.SplitN(key, "_", 2)
	if len(parts) == 2 {
		key = parts[0] + "." + parts[1]
	}

	if listKeys[key] {
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return key, items
	}
	return key, value
}
