package api

import (
	"net/http"
	"time"
)

// NewServer wraps the handler in an http.Server with sane timeouts. Sync
// payloads can be large, so the read timeout is generous.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
