package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shifthunter/backend/internal/config"
)

// StartHTTPServer boots the REST API server and registers all provided
// route registrars. Blocks until the listener fails.
func StartHTTPServer(cfg *config.Config, registrars ...Registrar) error {
	mux := http.NewServeMux()

	// register all services
	for _, r := range registrars {
		r.Register(mux)
	}

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv.ListenAndServe()
}
