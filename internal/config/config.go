package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// AuthMethod selects how credentials are attached to wallet API requests.
// Exactly one method is active per Config.
type AuthMethod string

const (
	AuthAPIKeyHeader AuthMethod = "api_key_header"
	AuthAPIKeyQuery  AuthMethod = "api_key_query"
	AuthHTTPBearer   AuthMethod = "http_bearer"
	AuthOAuth2       AuthMethod = "oauth2"
)

// Defaults applied by Build when the corresponding raw value is unset.
const (
	DefaultTimeout            = 30 * time.Second
	DefaultMaxRetries         = 3
	DefaultRateLimitPerMinute = 60
)

// ErrorKind classifies why a Config could not be built.
type ErrorKind string

const (
	MissingCredential ErrorKind = "MissingCredential"
	InvalidURL        ErrorKind = "InvalidURL"
	InvalidAuthMethod ErrorKind = "InvalidAuthMethod"
	InvalidValue      ErrorKind = "InvalidValue"
)

// ConfigError is returned by Build for invalid raw values. A ConfigError
// means no usable Config was constructed.
type ConfigError struct {
	Kind    ErrorKind
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("ConfigError/%s: %s", e.Kind, e.Message)
}

// RawValues are the unvalidated inputs to Build. String fields left empty and
// nil integer fields fall back to defaults (or, for secrets, count as unset).
type RawValues struct {
	URL                string
	AuthMethod         string
	APIKey             string
	BearerToken        string
	OAuth2Token        string
	TimeoutSeconds     *int
	MaxRetries         *int
	RateLimitPerMinute *int
}

// Config is a validated credential bundle for one wallet connection.
// It is immutable once constructed: reconfiguration builds a replacement
// Config rather than mutating fields in place, so a request in flight never
// observes half-updated credentials.
type Config struct {
	BaseURL            string
	AuthMethod         AuthMethod
	APIKey             string
	BearerToken        string
	OAuth2Token        string
	Timeout            time.Duration
	MaxRetries         int
	RateLimitPerMinute int
}

// Build validates raw values and constructs a Config. It never returns a
// partially usable Config: on any validation failure the result is nil and
// the error is a *ConfigError.
func Build(raw RawValues) (*Config, error) {
	method := AuthMethod(raw.AuthMethod)
	if raw.AuthMethod == "" {
		method = AuthAPIKeyHeader
	}
	switch method {
	case AuthAPIKeyHeader, AuthAPIKeyQuery, AuthHTTPBearer, AuthOAuth2:
	default:
		return nil, &ConfigError{Kind: InvalidAuthMethod, Message: fmt.Sprintf("unsupported auth method %q", raw.AuthMethod)}
	}

	if raw.URL == "" {
		return nil, &ConfigError{Kind: InvalidURL, Message: "base URL is required"}
	}
	u, err := url.Parse(raw.URL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &ConfigError{Kind: InvalidURL, Message: fmt.Sprintf("base URL %q is not an absolute http(s) URL", raw.URL)}
	}

	secrets := 0
	for _, s := range []string{raw.APIKey, raw.BearerToken, raw.OAuth2Token} {
		if s != "" {
			secrets++
		}
	}
	if secrets != 1 {
		return nil, &ConfigError{Kind: MissingCredential, Message: fmt.Sprintf("exactly one secret must be set, got %d", secrets)}
	}
	switch method {
	case AuthAPIKeyHeader, AuthAPIKeyQuery:
		if raw.APIKey == "" {
			return nil, &ConfigError{Kind: MissingCredential, Message: "auth method requires api_key"}
		}
	case AuthHTTPBearer:
		if raw.BearerToken == "" {
			return nil, &ConfigError{Kind: MissingCredential, Message: "auth method requires bearer_token"}
		}
	case AuthOAuth2:
		if raw.OAuth2Token == "" {
			return nil, &ConfigError{Kind: MissingCredential, Message: "auth method requires oauth2_token"}
		}
	}

	cfg := &Config{
		BaseURL:            strings.TrimRight(u.String(), "/"),
		AuthMethod:         method,
		APIKey:             raw.APIKey,
		BearerToken:        raw.BearerToken,
		OAuth2Token:        raw.OAuth2Token,
		Timeout:            DefaultTimeout,
		MaxRetries:         DefaultMaxRetries,
		RateLimitPerMinute: DefaultRateLimitPerMinute,
	}

	if raw.TimeoutSeconds != nil {
		if *raw.TimeoutSeconds <= 0 {
			return nil, &ConfigError{Kind: InvalidValue, Message: "timeout must be positive"}
		}
		cfg.Timeout = time.Duration(*raw.TimeoutSeconds) * time.Second
	}
	if raw.MaxRetries != nil {
		if *raw.MaxRetries < 0 {
			return nil, &ConfigError{Kind: InvalidValue, Message: "max_retries must be >= 0"}
		}
		cfg.MaxRetries = *raw.MaxRetries
	}
	if raw.RateLimitPerMinute != nil {
		if *raw.RateLimitPerMinute <= 0 {
			return nil, &ConfigError{Kind: InvalidValue, Message: "rate_limit_per_minute must be positive"}
		}
		cfg.RateLimitPerMinute = *raw.RateLimitPerMinute
	}

	return cfg, nil
}

// AuthHeaders returns the headers to attach for the configured auth method.
func (c *Config) AuthHeaders() map[string]string {
	switch c.AuthMethod {
	case AuthAPIKeyHeader:
		return map[string]string{"X-Api-Key": c.APIKey}
	case AuthHTTPBearer:
		return map[string]string{"Authorization": "Bearer " + c.BearerToken}
	case AuthOAuth2:
		return map[string]string{"Authorization": "Bearer " + c.OAuth2Token}
	}
	return nil
}

// AuthQuery returns query parameters to attach for the configured auth method.
func (c *Config) AuthQuery() url.Values {
	if c.AuthMethod == AuthAPIKeyQuery {
		return url.Values{"api_key": {c.APIKey}}
	}
	return nil
}

// Redacted returns a representation of the config safe for logs and tool
// output: secret material is masked, never echoed.
func (c *Config) Redacted() map[string]any {
	out := map[string]any{
		"lnbits_url":            c.BaseURL,
		"auth_method":           string(c.AuthMethod),
		"timeout_seconds":       int(c.Timeout / time.Second),
		"max_retries":           c.MaxRetries,
		"rate_limit_per_minute": c.RateLimitPerMinute,
	}
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "***MASKED***"
	}
	out["api_key"] = mask(c.APIKey)
	out["bearer_token"] = mask(c.BearerToken)
	out["oauth2_token"] = mask(c.OAuth2Token)
	return out
}
