package repository

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Browser-shaped identity the upstream expects on every fetch.
const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	referer   = "https://book.douban.com/"
)

// NewHTTPClient builds the shared upstream client. proxyURL is the optional
// process-wide egress proxy; when empty, requests go direct (the ambient
// proxy environment is resolved once at config load, never here).
func NewHTTPClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	transport := &http.Transport{}
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(parsed)
	}
	return &http.Client{Transport: transport, Timeout: timeout}, nil
}
