// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"
)

// readFile loads a YAML or, for a .toml extension, TOML configuration file.
func (cfg *ServerConfig) readFile(configFilePath string) error {
	if configFilePath == "" {
		return nil
	}

	_, err := os.Stat(configFilePath)
	if os.IsNotExist(err) {
		log.Info().
			Str("path", configFilePath).
			Msg("No configuration file found, skipping")

		return nil
	}

	data, err := os.ReadFile(configFilePath) // #nosec G304 -- Only loading a config file
	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", configFilePath, err)
	}

	if strings.EqualFold(filepath.Ext(configFilePath), ".toml") {
		err = cfg.decodeTOML(data)
	} else {
		err = cfg.decodeYAML(data)
	}

	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", configFilePath, err)
	}

	log.Info().
		Str("path", configFilePath).
		Msg("Successfully loaded configuration")

	return nil
}

func (cfg *ServerConfig) decodeYAML(data []byte) error {
	return yaml.Unmarshal(data, cfg)
}

func (cfg *ServerConfig) decodeTOML(data []byte) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}

	for _, key := range md.Undecoded() {
		log.Warn().
			Str("key", key.String()).
			Msg("Unknown configuration key")
	}

	return nil
}
