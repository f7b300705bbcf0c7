// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package zaidel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/researches/models"
	"github.com/patrickmn/go-cache"
)

// ErrUpstream matches every failure reported by the analysis service
var ErrUpstream = errors.New("analysis service failure")

// Operation names, used in errors and metrics
const (
	OpPeaksSettings     = "peaks_settings"
	OpElementsSettings  = "elements_settings"
	OpFindPeaks         = "find_peaks"
	OpFindMatched       = "find_matched_elements"
	OpTriggerComparison = "trigger_comparison"
)

const (
	DefaultTimeout     = 30 * time.Second
	DefaultSettingsTTL = 5 * time.Minute

	maxErrorBodyBytes    = 4096
	maxResponseBodyBytes = 64 << 20
)

// UpstreamError describes a failed call. StatusCode is zero when the request
// never produced a response.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("zaidel %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("zaidel %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// Client is the analysis service as seen by the rest of the application.
// Every method forwards the caller's Authorization header value verbatim.
type Client interface {
	DefaultPeaksSettings(ctx context.Context, authHeader string) (models.PeaksSettings, error)
	DefaultChemicalElementsSettings(ctx context.Context, authHeader string) (models.ChemicalElementsSettings, error)
	FindPeaks(ctx context.Context, req FindPeaksRequest, authHeader string) (FindPeaksResponse, error)
	FindMatchedElements(ctx context.Context, req MatchElementsRequest, authHeader string) (MatchElementsResponse, error)
	TriggerComparison(ctx context.Context, req TriggerComparisonRequest, authHeader string) error
}

// Config holds the settings for HTTPClient
type Config struct {
	BaseURL string
	// Timeout applies when the request context has no deadline
	Timeout time.Duration
	// SettingsTTL is how long default settings are cached
	SettingsTTL time.Duration
	HTTPClient  *http.Client
}

// HTTPClient talks to the analysis service over JSON/HTTP. Safe for
// concurrent use.
type HTTPClient struct {
	baseURL  string
	timeout  time.Duration
	http     *http.Client
	defaults *cache.Cache
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(cfg Config) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.SettingsTTL <= 0 {
		cfg.SettingsTTL = DefaultSettingsTTL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &HTTPClient{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		timeout:  cfg.Timeout,
		http:     cfg.HTTPClient,
		defaults: cache.New(cfg.SettingsTTL, cfg.SettingsTTL*2),
	}
}

func (c *HTTPClient) DefaultPeaksSettings(ctx context.Context, authHeader string) (models.PeaksSettings, error) {
	if cached, found := c.defaults.Get(OpPeaksSettings); found {
		settingsCache.WithLabelValues("hit").Inc()
		return cached.(models.PeaksSettings), nil
	}
	settingsCache.WithLabelValues("miss").Inc()

	var settings models.PeaksSettings
	if err := c.do(ctx, OpPeaksSettings, http.MethodGet, "/peaks/settings", nil, authHeader, &settings); err != nil {
		return models.PeaksSettings{}, err
	}
	c.defaults.Set(OpPeaksSettings, settings, cache.DefaultExpiration)
	return settings, nil
}

func (c *HTTPClient) DefaultChemicalElementsSettings(ctx context.Context, authHeader string) (models.ChemicalElementsSettings, error) {
	if cached, found := c.defaults.Get(OpElementsSettings); found {
		settingsCache.WithLabelValues("hit").Inc()
		return cached.(models.ChemicalElementsSettings), nil
	}
	settingsCache.WithLabelValues("miss").Inc()

	var settings models.ChemicalElementsSettings
	if err := c.do(ctx, OpElementsSettings, http.MethodGet, "/spectrumlines/settings", nil, authHeader, &settings); err != nil {
		return models.ChemicalElementsSettings{}, err
	}
	c.defaults.Set(OpElementsSettings, settings, cache.DefaultExpiration)
	return settings, nil
}

func (c *HTTPClient) FindPeaks(ctx context.Context, req FindPeaksRequest, authHeader string) (FindPeaksResponse, error) {
	var resp FindPeaksResponse
	err := c.do(ctx, OpFindPeaks, http.MethodPost, "/peaks", req, authHeader, &resp)
	return resp, err
}

func (c *HTTPClient) FindMatchedElements(ctx context.Context, req MatchElementsRequest, authHeader string) (MatchElementsResponse, error) {
	var resp MatchElementsResponse
	err := c.do(ctx, OpFindMatched, http.MethodPost, "/spectrumlines", req, authHeader, &resp)
	return resp, err
}

// TriggerComparison asks the service to (re)compute a comparison. The
// response body is ignored.
func (c *HTTPClient) TriggerComparison(ctx context.Context, req TriggerComparisonRequest, authHeader string) error {
	return c.do(ctx, OpTriggerComparison, http.MethodPost, "/comparisons/trigger", req, authHeader, nil)
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, body any, authHeader string, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		callsTotal.WithLabelValues(op, outcome).Inc()
		callDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &UpstreamError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodyBytes)).Decode(out); err != nil {
		return &UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("invalid response body: %w", err)}
	}
	return nil
}
