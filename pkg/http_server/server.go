// Package http_server wraps http.Server with a graceful shutdown
// convention. The router passed in is already a fully configured
// *gin.Engine (logging/telemetry middleware included), so no
// additional wrapping is applied here.
package http_server

import (
	"net/http"

	"github.com/vecmap/tilecore/pkg/config"
)

func NewServer(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
