// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package autotranslate

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newServer(t *testing.T, handler http.HandlerFunc) *HTTP {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tr, err := NewHTTP(Options{
		Endpoint: srv.URL + "/",
		APIKey:   "secret",
		Interval: -1,
		Client:   srv.Client(),
	})
	require.NoError(t, err)

	t.Cleanup(srv.Client().CloseIdleConnections)

	return tr
}

func TestTranslate(t *testing.T) {
	t.Parallel()

	tr := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		assert.Equal(t, "/translate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Hello", gjson.GetBytes(body, "q").String())
		assert.Equal(t, "en", gjson.GetBytes(body, "source").String())
		assert.Equal(t, "es", gjson.GetBytes(body, "target").String())
		assert.Equal(t, "secret", gjson.GetBytes(body, "api_key").String())

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"translatedText": "Hola"}`))
	})

	got, err := tr.Translate(context.Background(), "Hello", "en", "es")
	require.NoError(t, err)
	assert.Equal(t, "Hola", got)
}

func TestTranslate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		message string
	}{
		{
			name:    "service error with message",
			status:  http.StatusForbidden,
			body:    `{"error": "Invalid API key"}`,
			wantErr: errServiceError,
			message: "Invalid API key",
		},
		{
			name:    "service error without JSON",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			wantErr: errServiceError,
			message: "Bad Gateway",
		},
		{
			name:    "invalid JSON",
			status:  http.StatusOK,
			body:    `{"translatedText": `,
			wantErr: errInvalidJSON,
		},
		{
			name:    "empty translation",
			status:  http.StatusOK,
			body:    `{"detectedLanguage": "en"}`,
			wantErr: errEmptyTranslation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tr := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := tr.Translate(context.Background(), "Hello", "en", "es")
			require.ErrorIs(t, err, tt.wantErr)

			if tt.message != "" {
				var serviceErr *ServiceError
				require.ErrorAs(t, err, &serviceErr)
				assert.Equal(t, tt.status, serviceErr.StatusCode)
				assert.Equal(t, tt.message, serviceErr.Message)
			}
		})
	}
}

func TestTranslate_RateLimited(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"translatedText": "ok"}`))
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(srv.Client().CloseIdleConnections)

	tr, err := NewHTTP(Options{Endpoint: srv.URL, Interval: time.Hour, Client: srv.Client()})
	require.NoError(t, err)

	_, err = tr.Translate(context.Background(), "a", "en", "es")
	require.NoError(t, err)

	// The second call would wait an hour for a token.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = tr.Translate(ctx, "b", "en", "es")
	require.Error(t, err)
}

func TestNewHTTP_InvalidOptions(t *testing.T) {
	t.Parallel()

	_, err := NewHTTP(Options{})
	require.ErrorIs(t, err, errNoEndpoint)

	_, err = NewHTTP(Options{Endpoint: "://bad"})
	require.Error(t, err)
}
