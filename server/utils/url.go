// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package utils

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

var errIncompleteURL = errors.New("url must have both scheme and host")

// ParseURL parses an absolute URL and trims a trailing slash from its path.
//
// urlType names the URL in error messages, e.g. "translator endpoint".
func ParseURL(urlStr, urlType string) (*url.URL, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s URL: %w", urlType, err)
	}

	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf(
			"%s URL is invalid: %q: %w. Please specify a complete URL, e.g. https://example.com",
			urlType, urlStr, errIncompleteURL)
	}

	parsedURL.Path = strings.TrimSuffix(parsedURL.Path, "/")

	return parsedURL, nil
}

// GetQueryParam retrieves the value of a query parameter by name.
//
// If the parameter is not present, it returns the provided default value or an empty string.
func GetQueryParam(r *http.Request, name string, defaultValue ...string) string {
	return orDefault(r.URL.Query().Get(name), defaultValue)
}

// GetPathVar retrieves the value of a path variable by name.
//
// If the variable is not present, it returns the provided default value or an empty string.
func GetPathVar(r *http.Request, name string, defaultValue ...string) string {
	return orDefault(r.PathValue(name), defaultValue)
}

func orDefault(v string, defaultValue []string) string {
	if v != "" || len(defaultValue) == 0 {
		return v
	}

	return defaultValue[0]
}
