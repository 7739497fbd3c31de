package web

import (
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/csvstats/internal/logging"
	webmw "github.com/JonMunkholm/csvstats/internal/web/middleware"
)

// requestLogger returns a logger tagged with the request ID and client IP.
func requestLogger(r *http.Request, args ...any) *slog.Logger {
	return logging.WithFields(r.Context(), append([]any{"ip", webmw.ClientIP(r)}, args...)...)
}
