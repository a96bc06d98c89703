package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variable names, matching the LNBITS_ prefix used by LNbits
// client tooling.
const (
	EnvURL                = "LNBITS_URL"
	EnvAPIKey             = "LNBITS_API_KEY"
	EnvBearerToken        = "LNBITS_BEARER_TOKEN"
	EnvOAuth2Token        = "LNBITS_OAUTH2_TOKEN"
	EnvAuthMethod         = "LNBITS_AUTH_METHOD"
	EnvTimeout            = "LNBITS_TIMEOUT"
	EnvMaxRetries         = "LNBITS_MAX_RETRIES"
	EnvRateLimitPerMinute = "LNBITS_RATE_LIMIT_PER_MINUTE"
)

// FromEnv builds a Config from LNBITS_* environment variables. These values
// seed the default (implicit) session only — they are never substituted for
// another session's missing credentials.
//
// Returns (nil, nil) when no secret is present in the environment, meaning
// the process starts without a default credential.
func FromEnv() (*Config, error) {
	raw := RawValues{
		URL:         os.Getenv(EnvURL),
		AuthMethod:  os.Getenv(EnvAuthMethod),
		APIKey:      os.Getenv(EnvAPIKey),
		BearerToken: os.Getenv(EnvBearerToken),
		OAuth2Token: os.Getenv(EnvOAuth2Token),
	}
	if raw.APIKey == "" && raw.BearerToken == "" && raw.OAuth2Token == "" {
		return nil, nil
	}
	if raw.URL == "" {
		raw.URL = "https://demo.lnbits.com"
	}

	var err error
	if raw.TimeoutSeconds, err = envInt(EnvTimeout); err != nil {
		return nil, err
	}
	if raw.MaxRetries, err = envInt(EnvMaxRetries); err != nil {
		return nil, err
	}
	if raw.RateLimitPerMinute, err = envInt(EnvRateLimitPerMinute); err != nil {
		return nil, err
	}

	return Build(raw)
}

func envInt(name string) (*int, error) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, &ConfigError{Kind: InvalidValue, Message: fmt.Sprintf("%s: %q is not an integer", name, v)}
	}
	return &n, nil
}
