// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		method           string
		requestURL       string
		expectedStatus   int
		expectedLocation string
	}{
		{
			name:           "Root path should not redirect",
			method:         http.MethodGet,
			requestURL:     "/",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Path without trailing slash should not redirect",
			method:         http.MethodGet,
			requestURL:     "/languages/es/translations",
			expectedStatus: http.StatusOK,
		},
		{
			name:             "Path with trailing slash should redirect",
			method:           http.MethodGet,
			requestURL:       "/languages/",
			expectedStatus:   http.StatusPermanentRedirect,
			expectedLocation: "/languages",
		},
		{
			name:             "Repeated trailing slashes are removed",
			method:           http.MethodGet,
			requestURL:       "/languages/es//",
			expectedStatus:   http.StatusPermanentRedirect,
			expectedLocation: "/languages/es",
		},
		{
			name:             "Writes keep a method preserving redirect",
			method:           http.MethodPost,
			requestURL:       "/languages/es/missing/",
			expectedStatus:   http.StatusPermanentRedirect,
			expectedLocation: "/languages/es/missing",
		},
		{
			name:             "Query parameters should be preserved",
			method:           http.MethodGet,
			requestURL:       "/languages/es/translations/?filter=up&group=auth",
			expectedStatus:   http.StatusPermanentRedirect,
			expectedLocation: "/languages/es/translations?filter=up&group=auth",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := Wrap(NormalizeURL, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.requestURL, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedLocation, w.Header().Get("Location"))
		})
	}
}

func TestHasTrailingSlash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path     string
		expected bool
	}{
		{"/", false},
		{"/languages", false},
		{"/languages/", true},
		{"/languages/es/missing/", true},
		{"/languages/es/missing", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, hasTrailingSlash(httptest.NewRequest(http.MethodGet, tt.path, nil)))
		})
	}
}
