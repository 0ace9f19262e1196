// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package autotranslate fills missing translations through a machine
// translation service.
package autotranslate

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"codeberg.org/pixivfe/transmgr/core/audit"
	"codeberg.org/pixivfe/transmgr/core/idgen"
	"codeberg.org/pixivfe/transmgr/server/request_context"
)

// Translator translates text between two language codes.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

var (
	errNoEndpoint       = errors.New("translation endpoint is not configured")
	errInvalidJSON      = errors.New("translation response contained invalid JSON")
	errEmptyTranslation = errors.New("translation response contained no text")
	errServiceError     = errors.New("translation service returned an error")
)

const (
	defaultTimeout  = 30 * time.Second
	defaultInterval = 200 * time.Millisecond

	clientSessionCacheSize = 20
	maxIdleConnsPerHost    = 4
)

// ServiceError is returned when the translation service answers with a
// non-2xx status.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s (status code: %d)", errServiceError, e.Message, e.StatusCode)
}

func (e *ServiceError) Unwrap() error {
	return errServiceError
}

// Options configures an HTTP translator.
type Options struct {
	// Endpoint is the base URL of a LibreTranslate compatible service.
	Endpoint string
	APIKey   string

	// Interval is the minimum time between two requests. Zero means 200ms; a
	// negative value disables rate limiting.
	Interval time.Duration
	// Burst is the number of requests allowed without waiting. Defaults to 1.
	Burst int
	// Timeout bounds a single request. Zero means 30s.
	Timeout time.Duration

	// Client overrides the HTTP client, mostly for tests.
	Client *http.Client
}

// HTTP is a Translator calling the /translate endpoint of a LibreTranslate
// compatible service.
type HTTP struct {
	endpoint string
	apiKey   string
	client   *http.Client
	limiter  *rate.Limiter
}

var _ Translator = (*HTTP)(nil)

// NewHTTP returns a rate limited HTTP translator.
func NewHTTP(opts Options) (*HTTP, error) {
	if opts.Endpoint == "" {
		return nil, errNoEndpoint
	}

	base, err := url.Parse(opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid translation endpoint %q: %w", opts.Endpoint, err)
	}

	base.Path = strings.TrimSuffix(base.Path, "/") + "/translate"

	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}

	if opts.Interval == 0 {
		opts.Interval = defaultInterval
	}

	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	limit := rate.Every(opts.Interval)
	if opts.Interval < 0 {
		limit = rate.Inf
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					ClientSessionCache: tls.NewLRUClientSessionCache(clientSessionCacheSize),
					MinVersion:         tls.VersionTLS12,
				},
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: maxIdleConnsPerHost,
			},
		}
	}

	return &HTTP{
		endpoint: base.String(),
		apiKey:   opts.APIKey,
		client:   client,
		limiter:  rate.NewLimiter(limit, opts.Burst),
	}, nil
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

// Translate waits for the rate limiter and translates text from source to
// target.
func (t *HTTP) Translate(ctx context.Context, text, source, target string) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	payload, err := json.Marshal(translateRequest{
		Q:      text,
		Source: source,
		Target: target,
		Format: "text",
		APIKey: t.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode translation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	status, body, err := t.send(ctx, req)
	if err != nil {
		return "", err
	}

	if !gjson.ValidBytes(body) {
		if status >= http.StatusBadRequest {
			return "", &ServiceError{StatusCode: status, Message: http.StatusText(status)}
		}

		return "", fmt.Errorf("%w: %s", errInvalidJSON, string(body))
	}

	result := gjson.ParseBytes(body)

	if status >= http.StatusBadRequest {
		message := result.Get("error").String()
		if message == "" {
			message = http.StatusText(status)
		}

		return "", &ServiceError{StatusCode: status, Message: message}
	}

	translated := result.Get("translatedText")
	if !translated.Exists() || translated.String() == "" {
		return "", errEmptyTranslation
	}

	return translated.String(), nil
}

// send performs req inside an audit span and returns the status code and
// body.
func (t *HTTP) send(ctx context.Context, req *http.Request) (_ int, _ []byte, err error) {
	span := audit.Span{
		Destination: audit.ToTranslator,
		RequestID:   requestID(ctx),
		Method:      req.Method,
		URL:         req.URL.Redacted(),
	}

	defer func() {
		span.Error = err
		span.End()
		span.Log()
	}()

	_ = span.Begin(ctx)

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	span.StatusCode = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	span.Body = body

	return resp.StatusCode, body, nil
}

func requestID(ctx context.Context) string {
	if id := request_context.FromContext(ctx).RequestID; id != "" {
		return id + "-" + idgen.Make()
	}

	return idgen.Make()
}
