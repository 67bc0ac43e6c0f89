// Package httpserver builds the process listener serving webhook ingress
// and the inspection endpoints.
package httpserver

import (
	"net/http"
	"time"
)

// New wraps handler in an http.Server. The timeouts assume small request
// bodies; webhook payloads and inspection queries never stream.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
