// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import "flag"

const defaultConfigFile = "./config.yaml"

// parseCommandLineArgs defines and parses flags, returning the value of the "config" flag.
func parseCommandLineArgs() string {
	var configFilePath string

	if flag.Lookup("config") == nil {
		flag.StringVar(&configFilePath, "config", defaultConfigFile, "Path to a transmgr configuration file in YAML or TOML format.")
	}

	if !flag.Parsed() {
		flag.Parse()
	}

	if configFilePath == "" {
		configFilePath = flag.Lookup("config").Value.String()
	}

	return configFilePath
}
