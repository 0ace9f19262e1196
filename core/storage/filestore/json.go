// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package filestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
)

var errJSONNotObject = errors.New("string key file is not a JSON object")

// encodeJSON renders m as a pretty printed JSON object with four space
// indentation, unescaped unicode and escaped slashes, matching the files
// written by PHP's json_encode with JSON_PRETTY_PRINT | JSON_UNESCAPED_UNICODE.
func encodeJSON(m map[string]string) ([]byte, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}

	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	var b bytes.Buffer

	b.WriteString("{\n")

	for i, key := range keys {
		b.WriteString("    ")

		if err := writeJSONString(&b, key); err != nil {
			return nil, err
		}

		b.WriteString(": ")

		if err := writeJSONString(&b, m[key]); err != nil {
			return nil, err
		}

		if i < len(keys)-1 {
			b.WriteByte(',')
		}

		b.WriteByte('\n')
	}

	b.WriteString("}")

	return b.Bytes(), nil
}

func writeJSONString(b *bytes.Buffer, s string) error {
	var tmp bytes.Buffer

	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode %q: %w", s, err)
	}

	b.WriteString(strings.ReplaceAll(strings.TrimSuffix(tmp.String(), "\n"), "/", `\/`))

	return nil
}

// decodeJSON reads a flat JSON object. Values that are not strings are kept as
// their raw JSON text; null becomes an empty string.
func decodeJSON(src []byte) (map[string]string, error) {
	out := make(map[string]string)

	if len(bytes.TrimSpace(src)) == 0 {
		return out, nil
	}

	if !gjson.ValidBytes(src) {
		return nil, fmt.Errorf("%w: invalid JSON", errJSONNotObject)
	}

	result := gjson.ParseBytes(src)
	if !result.IsObject() {
		return nil, errJSONNotObject
	}

	result.ForEach(func(key, value gjson.Result) bool {
		switch value.Type {
		case gjson.String:
			out[key.String()] = value.String()
		case gjson.Null:
			out[key.String()] = ""
		default:
			out[key.String()] = value.Raw
		}

		return true
	})

	return out, nil
}
