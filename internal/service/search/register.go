package search

import (
	"net/http"

	"github.com/shifthunter/backend/internal/app"
	apperr "github.com/shifthunter/backend/internal/errors"
	"github.com/shifthunter/backend/internal/server"
)

// Registrar wires the search-control endpoints into the REST router.
type Registrar struct {
	appCtx *app.AppContext
	svc    *Service
}

// NewRegistrar builds the search service and its route registrar.
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx, svc: NewService(appCtx)}
}

// Service exposes the underlying search service for collaborators that
// share it (the automation runner).
func (r *Registrar) Service() *Service {
	return r.svc
}

func (r *Registrar) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/search/start", server.RequireAuth(r.appCtx, r.handleStart))
	mux.HandleFunc("POST /api/search/stop", server.RequireAuth(r.appCtx, r.handleStop))
	mux.HandleFunc("GET /api/search/status", server.RequireAuth(r.appCtx, r.handleStatus))
}

func (r *Registrar) handleStart(w http.ResponseWriter, req *http.Request) {
	userID, ok := server.UserID(req.Context())
	if !ok {
		server.WriteError(w, apperr.ErrNotAuthenticated)
		return
	}

	session, err := r.svc.Start(req.Context(), userID)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	server.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"session": session,
		"message": "Search started successfully",
	})
}

func (r *Registrar) handleStop(w http.ResponseWriter, req *http.Request) {
	userID, ok := server.UserID(req.Context())
	if !ok {
		server.WriteError(w, apperr.ErrNotAuthenticated)
		return
	}

	session, err := r.svc.Stop(req.Context(), userID)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	server.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"session": session,
		"message": "Search stopped successfully",
	})
}

func (r *Registrar) handleStatus(w http.ResponseWriter, req *http.Request) {
	userID, ok := server.UserID(req.Context())
	if !ok {
		server.WriteError(w, apperr.ErrNotAuthenticated)
		return
	}

	report, err := r.svc.Status(req.Context(), userID)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	server.WriteJSON(w, http.StatusOK, report)
}
