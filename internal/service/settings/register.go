package settings

import (
	"net/http"
	"strconv"

	"github.com/shifthunter/backend/internal/app"
	apperr "github.com/shifthunter/backend/internal/errors"
	"github.com/shifthunter/backend/internal/server"
)

// Registrar wires the configuration and history endpoints into the
// REST router.
type Registrar struct {
	appCtx *app.AppContext
	svc    *Service
}

// NewRegistrar builds the settings service and its route registrar.
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx, svc: NewService(appCtx)}
}

func (r *Registrar) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/locations", server.RequireAuth(r.appCtx, r.handleListLocations))
	mux.HandleFunc("POST /api/locations", server.RequireAuth(r.appCtx, r.handleCreateLocation))
	mux.HandleFunc("PATCH /api/locations/{id}", server.RequireAuth(r.appCtx, r.handleUpdateLocation))
	mux.HandleFunc("DELETE /api/locations/{id}", server.RequireAuth(r.appCtx, r.handleDeleteLocation))
	mux.HandleFunc("GET /api/search-settings", server.RequireAuth(r.appCtx, r.handleGetSettings))
	mux.HandleFunc("PATCH /api/search-settings", server.RequireAuth(r.appCtx, r.handleUpdateSettings))
	mux.HandleFunc("GET /api/activity-logs", server.RequireAuth(r.appCtx, r.handleListActivity))
	mux.HandleFunc("GET /api/offers", server.RequireAuth(r.appCtx, r.handleListOffers))
}

func (r *Registrar) handleListLocations(w http.ResponseWriter, req *http.Request) {
	userID, ok := server.UserID(req.Context())
	if !ok {
		server.WriteError(w, apperr.ErrNotAuthenticated)
		return
	}

	prefs, err := r.svc.ListLocations(req.Context(), userID)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, prefs)
}

func (r *Registrar) handleCreateLocation(w http.ResponseWriter, req *http.Request) {
	userID, ok := server.UserID(req.Context())
	if !ok {
		server.WriteError(w, apperr.ErrNotAuthenticated)
		return
	}

	var body LocationRequest
	if !server.DecodeJSON(w, req, &body) {
		return
	}

	pref, err := r.svc.CreateLocation(req.Context(), userID, body)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, pref)
}

func (r *Registrar) handleUpdateLocation(w http.ResponseWriter, req *http.Request) {
	userID, ok := server.UserID(req.Context())
	if !ok {
		server.WriteError(w, apperr.ErrNotAuthenticated)
		return
	}

	locationID, ok := pathID(req)
	if !ok {
		server.WriteError(w, apperr.Invalid("invalid location id"))
		return
	}

	var body LocationPatch
	if !server.DecodeJSON(w, req, &body) {
		return
	}

	pref, err := r.svc.UpdateLocation(req.Context(), userID, locationID, body)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, pref)
}

func (r *Registrar) handleDeleteLocation(w http.ResponseWriter, req *http.Request) {
	userID, ok := server.UserID(req.Context())
	if !ok {
		server.WriteError(w, apperr.ErrNotAuthenticated)
		return
	}

	locationID, ok := pathID(req)
	if !ok {
		server.WriteError(w, apperr.Invalid("invalid location id"))
		return
	}

	if err := r.svc.DeleteLocation(req.Context(), userID, locationID); err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (r *Registrar) handleGetSettings(w http.ResponseWriter, req *http.Request) {
	userID, ok := server.UserID(req.Context())
	if !ok {
		server.WriteError(w, apperr.ErrNotAuthenticated)
		return
	}

	settings, err := r.svc.GetSettings(req.Context(), userID)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, settings)
}

func (r *Registrar) handleUpdateSettings(w http.ResponseWriter, req *http.Request) {
	userID, ok := server.UserID(req.Context())
	if !ok {
		server.WriteError(w, apperr.ErrNotAuthenticated)
		return
	}

	var body SettingsPatch
	if !server.DecodeJSON(w, req, &body) {
		return
	}

	settings, err := r.svc.UpdateSettings(req.Context(), userID, body)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, settings)
}

func (r *Registrar) handleListActivity(w http.ResponseWriter, req *http.Request) {
	userID, ok := server.UserID(req.Context())
	if !ok {
		server.WriteError(w, apperr.ErrNotAuthenticated)
		return
	}

	entries, err := r.svc.ListActivity(req.Context(), userID, queryLimit(req))
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, entries)
}

func (r *Registrar) handleListOffers(w http.ResponseWriter, req *http.Request) {
	userID, ok := server.UserID(req.Context())
	if !ok {
		server.WriteError(w, apperr.ErrNotAuthenticated)
		return
	}

	offers, err := r.svc.ListOffers(req.Context(), userID, queryLimit(req))
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, offers)
}

func pathID(req *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(req.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// queryLimit reads an optional ?limit= parameter. Zero means "use the
// service default".
func queryLimit(req *http.Request) int {
	raw := req.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
