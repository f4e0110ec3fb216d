package orderapi

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout         = 30 * time.Second
	defaultMaxResponseSize = 10 * 1024 * 1024
	defaultUserAgent       = "shopadmin-backend/1.0"
)

// Configuration errors
var (
	ErrMissingBaseURL = errors.New("orderapi: base URL is required")
	ErrInvalidBaseURL = errors.New("orderapi: base URL must be an absolute http(s) URL")
)

// Config holds the shop backend connection settings
type Config struct {
	// BaseURL is the API root, e.g. https://api.shop.example/api/v1
	BaseURL string
	// Timeout bounds a single request including reading the body
	Timeout time.Duration
	// MaxResponseSize caps the bytes read from any response body
	MaxResponseSize int64
	UserAgent       string
}

// Validate checks the configuration and fills defaults
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxResponseSize <= 0 {
		c.MaxResponseSize = defaultMaxResponseSize
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	return nil
}
