package main

import (
	"net/http"
	"time"
)

const defaultExternalHTTPTimeout = 30 * time.Second

var externalHTTPClient = &http.Client{
	Timeout: defaultExternalHTTPTimeout,
}

func configureExternalHTTPClient(cfg Config) {
	if cfg.ExternalHTTPTimeoutSeconds > 0 {
		externalHTTPClient.Timeout = time.Duration(cfg.ExternalHTTPTimeoutSeconds) * time.Second
	}
}
