package customHttpClient

import (
	"net/http"
	"time"

	"github.com/akolanti/RegGuru/internal/config"
)

var customTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// Transport is shared by every outbound client so model and object-store calls reuse connections.
func Transport() *http.Transport {
	return customTransport
}

func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Transport: customTransport, Timeout: timeout}
}
