// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Command genconfig writes example configuration files built from the
// configuration defaults.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	"codeberg.org/pixivfe/transmgr/config"
	"codeberg.org/pixivfe/transmgr/core/audit"
)

const (
	envOutputFile  = ".env.example"
	yamlOutputFile = "config.yaml.example"
	filePerm       = 0o644

	envFileHeader = `# transmgr configuration (via environment variables)
#
# Copy this file to .env and customize the values below.
#
# This file was auto-generated using go run ./cmd/genconfig.

`
	yamlFileHeader = `# transmgr configuration (via configuration file)
#
# Copy this file to config.yaml and customize the values below.
#
# This file was auto-generated using go run ./cmd/genconfig.
`
)

// uncommented lists the settings written active in the examples.
var uncommented = map[string]bool{
	"TRANSMGR_HOST":          true,
	"TRANSMGR_PORT":          true,
	"TRANSMGR_DRIVER":        true,
	"TRANSMGR_SOURCE_LOCALE": true,
	"TRANSMGR_LANG_PATH":     true,
}

func main() {
	audit.SetDefaultLogger()

	outDir := flag.String("o", "deploy", "output directory")
	flag.Parse()

	cfg := &config.ServerConfig{}
	cfg.SetDefaults()

	yamlContent, err := yamlExample(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal config to YAML")
	}

	for name, content := range map[string]string{
		envOutputFile:  envExample(cfg),
		yamlOutputFile: yamlContent,
	} {
		path := filepath.Join(*outDir, name)

		if err := os.WriteFile(path, []byte(content), filePerm); err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Failed to write example file")
		}

		log.Info().Str("path", path).Msg("Generated example file")
	}
}

// envExample lists every setting with an env tag, grouped by section.
func envExample(cfg *config.ServerConfig) string {
	var sb strings.Builder

	sb.WriteString(envFileHeader)

	val := reflect.ValueOf(*cfg)
	typ := val.Type()

	for i := range typ.NumField() {
		section := val.Field(i)
		if section.Kind() != reflect.Struct || typ.Field(i).Name == "Build" {
			continue
		}

		var lines []string

		for j := range section.NumField() {
			tag, ok := section.Type().Field(j).Tag.Lookup("env")
			if !ok {
				continue
			}

			lines = append(lines, envLine(strings.Split(tag, ",")[0], section.Field(j)))
		}

		if len(lines) == 0 {
			continue
		}

		fmt.Fprintf(&sb, "## %s\n%s\n\n", typ.Field(i).Name, strings.Join(lines, "\n"))
	}

	return sb.String()
}

func envLine(name string, value reflect.Value) string {
	var s string

	switch value.Kind() {
	case reflect.Slice:
		parts := make([]string, value.Len())
		for i := range parts {
			parts[i] = fmt.Sprint(value.Index(i).Interface())
		}

		s = strings.Join(parts, ",")
	default:
		s = fmt.Sprint(value.Interface())
	}

	if uncommented[name] && s != "" {
		return fmt.Sprintf("%s=%q", name, s)
	}

	if s == "" {
		return "# " + name + "="
	}

	return fmt.Sprintf("# %s=%s", name, s)
}

// yamlExample marshals cfg with every setting commented out except the
// section headers.
func yamlExample(cfg *config.ServerConfig) (string, error) {
	var yamlContent strings.Builder

	encoderOpts := []yaml.EncodeOption{
		config.GetDurationEncoderOption(),
		yaml.Indent(2),
	}
	if err := yaml.NewEncoder(&yamlContent, encoderOpts...).Encode(cfg); err != nil {
		return "", err
	}

	var sb strings.Builder

	sb.WriteString(yamlFileHeader)

	for line := range strings.SplitSeq(yamlContent.String(), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		// Top-level keys (e.g., "translation:") are section headers.
		if !strings.HasPrefix(line, " ") {
			fmt.Fprintf(&sb, "\n%s\n", line)

			continue
		}

		indentSize := len(line) - len(strings.TrimLeft(line, " "))
		fmt.Fprintf(&sb, "%s# %s\n", strings.Repeat(" ", indentSize), trimmed)
	}

	return sb.String(), nil
}
