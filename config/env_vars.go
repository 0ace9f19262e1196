// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	maxEnvironmentKeyValueParts = 2
	minQuotedValueLength        = 2
)

var (
	errExpectedPointerToStruct = errors.New("expected a pointer to a struct")
	errUnsupportedSliceType    = errors.New("unsupported slice type")
	errUnsupportedFieldType    = errors.New("unsupported field type")
)

var durationType = reflect.TypeFor[time.Duration]()

// envTag is the parsed form of an `env:"NAME,overwrite"` struct tag.
type envTag struct {
	name      string
	overwrite bool
}

func parseEnvTag(field reflect.StructField) (envTag, bool) {
	raw := field.Tag.Get("env")
	if raw == "" {
		return envTag{}, false
	}

	parts := strings.Split(raw, ",")

	return envTag{name: parts[0], overwrite: slices.Contains(parts[1:], "overwrite")}, true
}

// readEnv populates the struct pointed to by dst from environment variables.
//
// Fields without the overwrite option are only set while they hold their
// zero value.
func readEnv(dst any) error {
	structValue := reflect.ValueOf(dst)
	if structValue.Kind() != reflect.Ptr {
		return fmt.Errorf("%w, got %s", errExpectedPointerToStruct, structValue.Kind())
	}

	structValue = structValue.Elem()
	if structValue.Kind() != reflect.Struct {
		return fmt.Errorf("%w, got a pointer to %s", errExpectedPointerToStruct, structValue.Kind())
	}

	structType := structValue.Type()

	for fieldIndex := range structValue.NumField() {
		field := structValue.Field(fieldIndex)
		fieldType := structType.Field(fieldIndex)

		tag, tagged := parseEnvTag(fieldType)
		if !tagged {
			if field.Kind() == reflect.Struct && field.CanAddr() && fieldType.IsExported() {
				if err := readEnv(field.Addr().Interface()); err != nil {
					return err
				}
			}

			continue
		}

		envValue, exists := os.LookupEnv(tag.name)
		if !exists || !field.CanSet() {
			continue
		}

		if !tag.overwrite && !field.IsZero() {
			continue
		}

		if err := setFieldValue(field, fieldType, tag.name, envValue); err != nil {
			return err
		}
	}

	return nil
}

// setFieldValue sets the field value based on its type.
func setFieldValue(field reflect.Value, fieldType reflect.StructField, envVarName, envValue string) error {
	parseError := func(kind string, err error) error {
		return fmt.Errorf("failed to parse %s for %s from env var %s (%s): %w",
			kind, fieldType.Name, envVarName, envValue, err)
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(envValue)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == durationType {
			parsedDuration, err := time.ParseDuration(envValue)
			if err != nil {
				return parseError("duration", err)
			}

			field.SetInt(int64(parsedDuration))

			return nil
		}

		intValue, err := strconv.ParseInt(envValue, 10, 64)
		if err != nil {
			return parseError("int", err)
		}

		field.SetInt(intValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(envValue)
		if err != nil {
			return parseError("bool", err)
		}

		field.SetBool(boolValue)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("%w for field %s", errUnsupportedSliceType, fieldType.Name)
		}

		values := strings.Split(envValue, ",")
		trimmedValues := make([]string, 0, len(values))

		for _, value := range values {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				trimmedValues = append(trimmedValues, trimmed)
			}
		}

		field.Set(reflect.ValueOf(trimmedValues))
	default:
		return fmt.Errorf("%w for field %s: %s", errUnsupportedFieldType, fieldType.Name, field.Kind())
	}

	return nil
}

// useDotEnv loads environment variables from a .env file, checking
// the current working directory, then the directory of the binary.
//
// This function soft fails if the .env file doesn't exist in either location.
func useDotEnv() error {
	if cwd, err := os.Getwd(); err != nil {
		log.Warn().
			Err(err).
			Msg("Could not get current working directory")
	} else if loaded, err := tryLoadDotEnv(filepath.Join(cwd, ".env")); loaded || err != nil {
		return err
	}

	dir := "."
	if exe, err := os.Executable(); err == nil {
		dir = filepath.Dir(exe)
	}

	_, err := tryLoadDotEnv(filepath.Join(dir, ".env"))

	return err
}

// tryLoadDotEnv loads the .env file at envPath, without overriding variables
// that are already set. It reports whether the file was read; a missing or
// unreadable file is not an error.
func tryLoadDotEnv(envPath string) (bool, error) {
	// #nosec G304 - envPath is controlled and comes from known safe sources
	data, err := os.ReadFile(envPath)
	if os.IsNotExist(err) {
		log.Debug().
			Str("path", envPath).
			Msg("No .env file found, skipping")

		return false, nil
	}

	if err != nil {
		log.Warn().
			Err(err).
			Str("path", envPath).
			Msg("Could not read .env file")

		return false, nil
	}

	for lineNumber, rawLine := range strings.Split(string(data), "\n") {
		key, value, ok := parseDotEnvLine(rawLine)
		if !ok {
			if line := strings.TrimSpace(rawLine); line != "" && !strings.HasPrefix(line, "#") {
				log.Warn().
					Str("path", envPath).
					Int("line", lineNumber+1).
					Str("content", line).
					Msg("Invalid format in .env file")
			}

			continue
		}

		if os.Getenv(key) != "" {
			continue
		}

		if err := os.Setenv(key, value); err != nil {
			log.Warn().
				Err(err).
				Str("key", key).
				Msg("Could not set environment variable")
		}
	}

	log.Info().
		Str("path", envPath).
		Msg("Loaded configuration from .env file")

	return true, nil
}

// parseDotEnvLine splits a KEY=value line. Comments, blank and malformed
// lines are rejected. Matching quotes around the value are stripped.
func parseDotEnvLine(rawLine string) (string, string, bool) {
	line := strings.TrimSpace(rawLine)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}

	parts := strings.SplitN(line, "=", maxEnvironmentKeyValueParts)
	if len(parts) != maxEnvironmentKeyValueParts {
		return "", "", false
	}

	key, value := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", false
	}

	if len(value) >= minQuotedValueLength && value[0] == value[len(value)-1] && (value[0] == '"' || value[0] == '\'') {
		value = value[1 : len(value)-1]
	}

	return key, value, true
}
