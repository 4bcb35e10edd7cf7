package account

import (
	"net/http"

	"github.com/shifthunter/backend/internal/app"
	apperr "github.com/shifthunter/backend/internal/errors"
	"github.com/shifthunter/backend/internal/server"
)

// Registrar wires the auth and profile endpoints into the REST router.
type Registrar struct {
	appCtx *app.AppContext
	svc    *Service
}

// NewRegistrar builds the account service and its route registrar.
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx, svc: NewService(appCtx)}
}

func (r *Registrar) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", r.handleRegister)
	mux.HandleFunc("POST /api/auth/login", r.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", server.RequireAuth(r.appCtx, r.handleLogout))
	mux.HandleFunc("GET /api/user", server.RequireAuth(r.appCtx, r.handleGetUser))
	mux.HandleFunc("PATCH /api/user", server.RequireAuth(r.appCtx, r.handleUpdateUser))
	mux.HandleFunc("POST /api/account/link", server.RequireAuth(r.appCtx, r.handleLinkAccount))
}

func (r *Registrar) handleRegister(w http.ResponseWriter, req *http.Request) {
	var body RegisterRequest
	if !server.DecodeJSON(w, req, &body) {
		return
	}

	profile, token, err := r.svc.Register(req.Context(), body)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	r.setSessionCookie(w, token)
	server.WriteJSON(w, http.StatusCreated, profile)
}

func (r *Registrar) handleLogin(w http.ResponseWriter, req *http.Request) {
	var body LoginRequest
	if !server.DecodeJSON(w, req, &body) {
		return
	}

	profile, token, err := r.svc.Login(req.Context(), body)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	r.setSessionCookie(w, token)
	server.WriteJSON(w, http.StatusOK, profile)
}

func (r *Registrar) handleLogout(w http.ResponseWriter, req *http.Request) {
	userID, ok := server.UserID(req.Context())
	if !ok {
		server.WriteError(w, apperr.ErrNotAuthenticated)
		return
	}

	token := server.SessionToken(r.appCtx, req)
	if err := r.svc.Logout(req.Context(), userID, token); err != nil {
		server.WriteError(w, err)
		return
	}

	r.clearSessionCookie(w)
	server.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (r *Registrar) handleGetUser(w http.ResponseWriter, req *http.Request) {
	userID, ok := server.UserID(req.Context())
	if !ok {
		server.WriteError(w, apperr.ErrNotAuthenticated)
		return
	}

	profile, err := r.svc.GetProfile(req.Context(), userID)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, profile)
}

func (r *Registrar) handleUpdateUser(w http.ResponseWriter, req *http.Request) {
	userID, ok := server.UserID(req.Context())
	if !ok {
		server.WriteError(w, apperr.ErrNotAuthenticated)
		return
	}

	var body UpdateProfileRequest
	if !server.DecodeJSON(w, req, &body) {
		return
	}

	profile, err := r.svc.UpdateProfile(req.Context(), userID, body)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, profile)
}

func (r *Registrar) handleLinkAccount(w http.ResponseWriter, req *http.Request) {
	userID, ok := server.UserID(req.Context())
	if !ok {
		server.WriteError(w, apperr.ErrNotAuthenticated)
		return
	}

	var body LinkAccountRequest
	if !server.DecodeJSON(w, req, &body) {
		return
	}

	profile, err := r.svc.LinkAccount(req.Context(), userID, body)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, profile)
}

func (r *Registrar) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     r.appCtx.Config.Session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(r.appCtx.Config.Session.TTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (r *Registrar) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     r.appCtx.Config.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
