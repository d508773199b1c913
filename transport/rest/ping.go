package rest

import (
	"log/slog"
	"net/http"
)

type pingHandler struct {
	logger *slog.Logger
}

// NewPingHandler - liveness check answering "pong".
func NewPingHandler(logger *slog.Logger) http.Handler {
	return &pingHandler{logger: logger.With("component", "ping")}
}

func (that *pingHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Error("failed to write ping response", "error", err)
	}
}
